package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
)

// SearchRequest describes a subtree search below BaseDN.
type SearchRequest struct {
	BaseDN     string
	Filter     string
	Attributes []string
}

// Entry is a single directory search result.
type Entry struct {
	DN         string
	Attributes map[string][]string
}

// DirectorySession is one short-lived connection to the directory.
// Close is idempotent and never fails.
type DirectorySession interface {
	// Bind authenticates the connection. A rejected password yields an
	// invalid_credentials AppError; transport failures yield directory_unavailable.
	Bind(ctx context.Context, dn, password string) error

	// Search performs a subtree search and returns every matching entry.
	Search(ctx context.Context, req SearchRequest) ([]Entry, error)

	// Close releases the connection.
	Close() error
}

// DirectoryDialer opens directory sessions from a configuration snapshot.
type DirectoryDialer interface {
	// Open validates TLS material, then connects. An unreadable CA file is
	// reported as a configuration error before any network activity.
	Open(ctx context.Context, cfg domainauth.DirectoryConfig) (DirectorySession, error)
}

// DirectoryConfigStore persists the access-control configuration record.
type DirectoryConfigStore interface {
	// Load returns the current record. A record that was never saved is the zero value.
	Load(ctx context.Context) (domainauth.DirectoryConfig, error)
	// Save replaces the stored record.
	Save(ctx context.Context, cfg domainauth.DirectoryConfig) error
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}
