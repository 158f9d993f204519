package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"strings"
	"sync"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/ldapfilter"
	"github.com/consentforms/consentforms/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.DirectoryDialer      = (*FakeDirectory)(nil)
	_ ports.DirectorySession     = (*FakeSession)(nil)
	_ ports.SessionStore         = (*MemorySessionStore)(nil)
	_ ports.DirectoryConfigStore = (*MemoryConfigStore)(nil)
)

// FakeUser is a directory account known to FakeDirectory.
type FakeUser struct {
	SAMAccountName    string
	UserPrincipalName string
	DN                string
	Password          string
	// Groups lists every group the user belongs to, directly or through nesting.
	Groups []string
}

// FakeDirectory answers the exact filters produced by ldapfilter, so tests
// exercise the real filter construction and escaping.
type FakeDirectory struct {
	ServiceDN       string
	ServicePassword string
	Users           []FakeUser

	// Fault injection.
	OpenErr   error
	SearchErr error
	// FailSearchAfter makes the Nth search (1-based) and later fail with SearchErr.
	FailSearchAfter int

	mu       sync.Mutex
	sessions []*FakeSession
}

// Open returns a new session. OpenErr, when set, is returned without creating one.
func (d *FakeDirectory) Open(ctx context.Context, _ domainauth.DirectoryConfig) (ports.DirectorySession, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDirectoryUnavailable, "open aborted")
	}
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	s := &FakeSession{dir: d}
	d.mu.Lock()
	d.sessions = append(d.sessions, s)
	d.mu.Unlock()
	return s, nil
}

// Sessions returns every session opened so far.
func (d *FakeDirectory) Sessions() []*FakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakeSession(nil), d.sessions...)
}

// OpenCount reports how many sessions were opened.
func (d *FakeDirectory) OpenCount() int {
	return len(d.Sessions())
}

// FakeSession records binds, searches, and closes.
type FakeSession struct {
	dir *FakeDirectory

	mu         sync.Mutex
	boundAs    string
	binds      []string
	searches   []ports.SearchRequest
	closeCalls int
}

func (s *FakeSession) Bind(_ context.Context, dn, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binds = append(s.binds, dn)
	s.boundAs = ""

	if dn == s.dir.ServiceDN && password == s.dir.ServicePassword && password != "" {
		s.boundAs = dn
		return nil
	}
	for _, u := range s.dir.Users {
		if u.DN == dn && u.Password == password && password != "" {
			s.boundAs = dn
			return nil
		}
	}
	return apperrors.InvalidCredentials("bind rejected for " + dn)
}

func (s *FakeSession) Search(_ context.Context, req ports.SearchRequest) ([]ports.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches = append(s.searches, req)

	if s.dir.SearchErr != nil && len(s.searches) >= max(s.dir.FailSearchAfter, 1) {
		return nil, s.dir.SearchErr
	}
	if s.boundAs != s.dir.ServiceDN {
		return nil, apperrors.DirectoryUnavailable("search requires the service account bind")
	}

	var out []ports.Entry
	for _, u := range s.dir.Users {
		if !strings.HasSuffix(strings.ToLower(u.DN), strings.ToLower(req.BaseDN)) {
			continue
		}
		if req.Filter == ldapfilter.UserLookup(u.SAMAccountName) ||
			(u.UserPrincipalName != "" && req.Filter == ldapfilter.UserLookup(u.UserPrincipalName)) {
			out = append(out, ports.Entry{DN: u.DN})
			continue
		}
		for _, g := range u.Groups {
			if req.Filter == ldapfilter.TransitiveMembership(u.DN, g) {
				out = append(out, ports.Entry{DN: u.DN})
				break
			}
		}
	}
	return out, nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return nil
}

// Binds returns the DNs bound in order.
func (s *FakeSession) Binds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.binds...)
}

// Searches returns the recorded search requests.
func (s *FakeSession) Searches() []ports.SearchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.SearchRequest(nil), s.searches...)
}

// CloseCalls reports how many times Close was called.
func (s *FakeSession) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return apperrors.Validation("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are stored.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned by mocks when an entity is not present.
var ErrNotFound = apperrors.NotFound("not found")

// MemoryConfigStore holds a DirectoryConfig in memory.
type MemoryConfigStore struct {
	LoadErr error
	SaveErr error

	mu    sync.Mutex
	cfg   domainauth.DirectoryConfig
	loads int
	saves int
}

// NewMemoryConfigStore returns a store seeded with cfg.
func NewMemoryConfigStore(cfg domainauth.DirectoryConfig) *MemoryConfigStore {
	return &MemoryConfigStore{cfg: cfg}
}

func (m *MemoryConfigStore) Load(_ context.Context) (domainauth.DirectoryConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.LoadErr != nil {
		return domainauth.DirectoryConfig{}, m.LoadErr
	}
	return m.cfg, nil
}

func (m *MemoryConfigStore) Save(_ context.Context, cfg domainauth.DirectoryConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.saves++
	m.cfg = cfg
	return nil
}

// Set replaces the stored config without counting a save.
func (m *MemoryConfigStore) Set(cfg domainauth.DirectoryConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// Loads reports how many times Load was called.
func (m *MemoryConfigStore) Loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// Saves reports how many successful saves occurred.
func (m *MemoryConfigStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
