// Package filestore persists the directory configuration as a JSON document on disk.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/ports"
)

const fileMode = 0o600

// DirectoryConfigStore reads the record from Path on every Load so
// administrative edits take effect on the next authentication attempt.
type DirectoryConfigStore struct {
	path   string
	logger *slog.Logger

	// mu serializes writers; readers see either the old or new file via rename.
	mu sync.Mutex
}

var _ ports.DirectoryConfigStore = (*DirectoryConfigStore)(nil)

// NewDirectoryConfigStore returns a store backed by the JSON file at path.
func NewDirectoryConfigStore(path string, logger *slog.Logger) *DirectoryConfigStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryConfigStore{path: path, logger: logger}
}

// Path returns the backing file location.
func (s *DirectoryConfigStore) Path() string { return s.path }

// Load returns the stored record. A missing file yields the zero record, which
// puts the application in setup mode.
func (s *DirectoryConfigStore) Load(ctx context.Context) (domainauth.DirectoryConfig, error) {
	var cfg domainauth.DirectoryConfig
	if err := ctx.Err(); err != nil {
		return cfg, err
	}

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.DebugContext(ctx, "directory config file not found, using empty configuration", "path", s.path)
		return cfg, nil
	}
	if err != nil {
		return cfg, apperrors.Wrapf(err, apperrors.ErrCodeConfiguration, "read directory config %s", s.path)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return domainauth.DirectoryConfig{}, apperrors.Wrapf(err, apperrors.ErrCodeConfiguration, "parse directory config %s", s.path)
	}
	return cfg, nil
}

// Save writes cfg to a temp file in the same directory, fsyncs it, and renames
// it over the target.
func (s *DirectoryConfigStore) Save(ctx context.Context, cfg domainauth.DirectoryConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode directory config")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "create config directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "create temp config file")
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if err := writeAndSync(tmp, buf); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "write temp config file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "replace directory config %s", s.path)
	}
	if err := os.Chmod(s.path, fileMode); err != nil {
		s.logger.WarnContext(ctx, "failed to restrict directory config permissions", "path", s.path, "error", err)
	}
	return nil
}

func writeAndSync(f *os.File, buf []byte) error {
	if err := f.Chmod(fileMode); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
