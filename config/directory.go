package config

import (
	"fmt"
	"strings"
	"time"
)

// DirectoryStore selects where the directory configuration is persisted.
type DirectoryStore string

const (
	// DirectoryStoreFile keeps the configuration in a JSON file.
	DirectoryStoreFile DirectoryStore = "file"
	// DirectoryStorePostgres keeps the configuration in the directory_config table.
	DirectoryStorePostgres DirectoryStore = "postgres"
)

const (
	defaultDirectoryTimeout = 6 * time.Second
	maxDirectoryTimeout     = time.Minute
)

// UnmarshalText implements encoding.TextUnmarshaler for DirectoryStore.
func (d *DirectoryStore) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "file", "postgres":
		*d = DirectoryStore(v)
		return nil
	default:
		return fmt.Errorf("invalid DirectoryStore: %q (valid options: file, postgres)", v)
	}
}

// DirectoryConfig controls where the LDAP settings are stored and how long
// directory operations may take.
type DirectoryConfig struct {
	// Store selects the configuration backend.
	Store DirectoryStore `env:"STORE" envDefault:"file"`

	// ConfigPath is the JSON file used when Store=file.
	ConfigPath string `env:"CONFIG_PATH" envDefault:"data/directory-config.json"`

	// Timeout bounds each network operation against the directory server.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"6s"`
}

// Sanitize applies guardrails to directory configuration values.
func (d *DirectoryConfig) Sanitize() {
	if d.Store == "" {
		d.Store = DirectoryStoreFile
	}
	d.ConfigPath = strings.TrimSpace(d.ConfigPath)
	if d.Timeout <= 0 {
		d.Timeout = defaultDirectoryTimeout
	}
	if d.Timeout > maxDirectoryTimeout {
		d.Timeout = maxDirectoryTimeout
	}
}
