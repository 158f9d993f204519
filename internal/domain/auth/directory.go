package auth

import "strings"

// PlaceholderFullGroupDN is the value shipped in fresh configurations for the full-access group.
// A configuration still carrying it has not been completed by an administrator.
const PlaceholderFullGroupDN = "CN=Placeholder-Full-Access,OU=Groups,DC=example,DC=com"

// GroupDNs maps each role to the directory group that grants it. Any entry may be empty.
type GroupDNs struct {
	Read   string `json:"read"`
	Change string `json:"change"`
	Full   string `json:"full"`
}

// ForRole returns the group DN configured for r.
func (g GroupDNs) ForRole(r Role) string {
	switch r {
	case RoleRead:
		return g.Read
	case RoleChange:
		return g.Change
	case RoleFull:
		return g.Full
	default:
		return ""
	}
}

// DirectoryConfig is the persisted access-control configuration record.
type DirectoryConfig struct {
	ServerURL           string   `json:"serverUrl"`
	BaseSearchDN        string   `json:"baseSearchDn"`
	ServiceBindDN       string   `json:"serviceBindDn"`
	ServiceBindPassword string   `json:"serviceBindPassword,omitempty"`
	CACertificatePath   string   `json:"caCertificatePath,omitempty"`
	GroupDNs            GroupDNs `json:"groupDns"`
}

// Insecure reports whether connections made with this config skip certificate validation.
func (c DirectoryConfig) Insecure() bool {
	return strings.TrimSpace(c.CACertificatePath) == ""
}

// Redacted returns a copy safe to hand back to callers of the read path.
func (c DirectoryConfig) Redacted() DirectoryConfig {
	c.ServiceBindPassword = ""
	return c
}
