package service

import (
	"context"
	"strings"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	"github.com/consentforms/consentforms/internal/ldapfilter"
	"github.com/consentforms/consentforms/internal/ports"
)

// RoleResolver derives a user's roles from transitive group membership.
type RoleResolver struct{}

// Resolve tests membership of userDN in each configured group and returns the
// role set closed under full ⇒ change ⇒ read. A role whose group DN is empty
// is never granted and costs no search. Any search failure aborts resolution.
func (RoleResolver) Resolve(
	ctx context.Context,
	sess ports.DirectorySession,
	baseDN, userDN string,
	groups domainauth.GroupDNs,
) (domainauth.RoleSet, error) {
	raw := domainauth.NewRoleSet()
	for _, role := range domainauth.AllRoles {
		groupDN := strings.TrimSpace(groups.ForRole(role))
		if groupDN == "" {
			continue
		}
		entries, err := sess.Search(ctx, ports.SearchRequest{
			BaseDN:     baseDN,
			Filter:     ldapfilter.TransitiveMembership(userDN, groupDN),
			Attributes: userLookupAttributes,
		})
		if err != nil {
			return nil, err
		}
		if len(entries) == 1 {
			raw[role] = struct{}{}
		}
	}
	return raw.Normalize(), nil
}
