package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/ldapfilter"
	"github.com/consentforms/consentforms/internal/ports"
)

// userLookupAttributes keeps the projection minimal; only the entry DN is used.
var userLookupAttributes = []string{"distinguishedName"}

// CredentialVerifier resolves a login name to exactly one directory entry and
// proves the password by binding as that entry.
type CredentialVerifier struct{}

// Verify returns the verified user DN. The session must already be bound as
// the service account. On return the session is bound as the user (or unbound
// after a failed bind); callers re-bind before further privileged searches.
func (CredentialVerifier) Verify(
	ctx context.Context,
	sess ports.DirectorySession,
	baseDN, username, password string,
) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperrors.InvalidCredentials("username is empty")
	}
	// An empty password would be an unauthenticated simple bind, which many
	// directories accept as success.
	if password == "" {
		return "", apperrors.InvalidCredentials("password is empty")
	}

	entries, err := sess.Search(ctx, ports.SearchRequest{
		BaseDN:     baseDN,
		Filter:     ldapfilter.UserLookup(username),
		Attributes: userLookupAttributes,
	})
	if err != nil {
		return "", err
	}
	if len(entries) != 1 {
		return "", apperrors.AmbiguousOrNotFound(
			fmt.Sprintf("user lookup for %q returned %d entries, want exactly 1", username, len(entries)))
	}

	userDN := entries[0].DN
	// Every user-bind failure reads as invalid credentials; the cause stays in the chain for logs.
	if err := sess.Bind(ctx, userDN, password); err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeInvalidCredentials, "bind as %s", userDN)
	}
	return userDN, nil
}
