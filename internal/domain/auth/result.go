package auth

// AuthResult is the tagged outcome of a login attempt.
// When OK is false only Reason is set; it is safe to show to an unauthenticated caller.
type AuthResult struct {
	OK     bool
	UserDN string
	Roles  RoleSet
	Reason string
}

// Succeeded builds a successful result.
func Succeeded(userDN string, roles RoleSet) AuthResult {
	return AuthResult{OK: true, UserDN: userDN, Roles: roles}
}

// Failed builds a failed result carrying a public reason.
func Failed(reason string) AuthResult {
	return AuthResult{Reason: reason}
}

// ConnectionTestResult is the outcome of the administrator connection diagnostic.
type ConnectionTestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
