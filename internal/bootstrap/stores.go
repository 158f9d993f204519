package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/consentforms/consentforms/config"
	"github.com/consentforms/consentforms/internal/adapters/filestore"
	"github.com/consentforms/consentforms/internal/data"
	"github.com/consentforms/consentforms/internal/data/cryptoutil"
	"github.com/consentforms/consentforms/internal/ports"
)

// DirectoryStoreDeps groups dependencies for BuildDirectoryConfigStore.
type DirectoryStoreDeps struct {
	Config    config.DirectoryConfig
	DB        *sql.DB
	Encryptor cryptoutil.Encryptor
	Logger    *slog.Logger
}

// BuildDirectoryConfigStore selects the configuration backend named by DIRECTORY_STORE.
//
//nolint:ireturn // callers only need the port.
func BuildDirectoryConfigStore(deps DirectoryStoreDeps) (ports.DirectoryConfigStore, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch deps.Config.Store {
	case config.DirectoryStoreFile, "":
		logger.Info("directory configuration store", "store", "file", "path", deps.Config.ConfigPath)
		return filestore.NewDirectoryConfigStore(deps.Config.ConfigPath, logger), nil
	case config.DirectoryStorePostgres:
		if deps.DB == nil {
			return nil, errors.New("postgres directory store requires a database connection")
		}
		enc := deps.Encryptor
		if enc == nil {
			enc = &cryptoutil.NoopEncryptor{}
		}
		logger.Info("directory configuration store", "store", "postgres")
		return data.NewDirectoryConfigRepo(deps.DB, enc), nil
	default:
		return nil, fmt.Errorf("unsupported directory store %q", deps.Config.Store)
	}
}
