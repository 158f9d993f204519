// Package ldapfilter builds escaped LDAP search filters for Active Directory lookups.
package ldapfilter

import (
	"fmt"

	goldap "github.com/go-ldap/ldap/v3"
)

// transitiveMemberOfRule is Active Directory's LDAP_MATCHING_RULE_IN_CHAIN.
const transitiveMemberOfRule = "1.2.840.113556.1.4.1941"

// EscapeValue escapes a value for embedding in a search filter.
// NUL, '*', '(', ')' and '\' become a backslash plus two hex digits.
func EscapeValue(v string) string {
	return goldap.EscapeFilter(v)
}

// UserLookup matches a user entry by account name or UPN.
func UserLookup(username string) string {
	u := EscapeValue(username)
	return fmt.Sprintf("(&(objectClass=user)(|(sAMAccountName=%s)(userPrincipalName=%s)))", u, u)
}

// TransitiveMembership matches the user entry at userDN when it is a direct or
// nested member of groupDN.
func TransitiveMembership(userDN, groupDN string) string {
	return fmt.Sprintf(
		"(&(objectClass=user)(distinguishedName=%s)(memberOf:%s:=%s))",
		EscapeValue(userDN),
		transitiveMemberOfRule,
		EscapeValue(groupDN),
	)
}
