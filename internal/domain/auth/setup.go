package auth

import "strings"

// IsSetupMode reports whether authentication is bypassed because the access-control
// configuration has not been completed: the full-access group is unset or still the placeholder.
//
// Every consumer (request gatekeeper, UI status endpoint, admin tooling) must call this
// function rather than repeating the comparison.
func IsSetupMode(cfg DirectoryConfig) bool {
	full := strings.TrimSpace(cfg.GroupDNs.Full)
	return full == "" || full == PlaceholderFullGroupDN
}

// SetupIdentity is the identity attached to requests admitted while in setup mode.
func SetupIdentity() Identity {
	return Identity{
		Username: "setup",
		Roles:    NewRoleSet(RoleFull).Normalize(),
	}
}
