package ldap

import (
	"context"
	"sync"

	goldap "github.com/go-ldap/ldap/v3"

	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/ports"
)

type session struct {
	conn      Conn
	closeOnce sync.Once
}

var _ ports.DirectorySession = (*session)(nil)

func newSession(conn Conn) *session {
	return &session{conn: conn}
}

// Bind performs a simple bind. Result code 49 maps to invalid_credentials.
func (s *session) Bind(ctx context.Context, dn, password string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDirectoryUnavailable, "bind aborted")
	}
	stop := context.AfterFunc(ctx, s.abort)
	defer stop()

	err := s.conn.Bind(dn, password)
	if err == nil {
		return nil
	}
	if goldap.IsErrorWithCode(err, goldap.LDAPResultInvalidCredentials) ||
		goldap.IsErrorWithCode(err, goldap.ErrorEmptyPassword) {
		return apperrors.Wrapf(err, apperrors.ErrCodeInvalidCredentials, "bind rejected for %s", dn)
	}
	return apperrors.Wrapf(err, apperrors.ErrCodeDirectoryUnavailable, "bind as %s", dn)
}

// Search runs a subtree search without dereferencing aliases.
func (s *session) Search(ctx context.Context, req ports.SearchRequest) ([]ports.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDirectoryUnavailable, "search aborted")
	}
	stop := context.AfterFunc(ctx, s.abort)
	defer stop()

	sr := goldap.NewSearchRequest(
		req.BaseDN,
		goldap.ScopeWholeSubtree,
		goldap.NeverDerefAliases,
		0, 0, false,
		req.Filter,
		req.Attributes,
		nil,
	)
	res, err := s.conn.Search(sr)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeDirectoryUnavailable, "search %s", req.BaseDN)
	}

	entries := make([]ports.Entry, 0, len(res.Entries))
	for _, e := range res.Entries {
		attrs := make(map[string][]string, len(e.Attributes))
		for _, a := range e.Attributes {
			attrs[a.Name] = a.Values
		}
		entries = append(entries, ports.Entry{DN: e.DN, Attributes: attrs})
	}
	return entries, nil
}

// Close releases the connection; repeated calls are no-ops.
func (s *session) Close() error {
	s.abort()
	return nil
}

func (s *session) abort() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}
