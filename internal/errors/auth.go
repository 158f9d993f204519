package errors

// Messages that may cross the trust boundary to an unauthenticated caller.
const (
	// PublicInvalidLogin is shared by unknown, ambiguous, and wrong-password outcomes
	// so a caller cannot tell which one occurred.
	PublicInvalidLogin = "invalid credentials: account not found, ambiguous, or wrong password"
	// PublicAuthUnavailable covers configuration, service-account, and connectivity failures.
	PublicAuthUnavailable = "authentication service unavailable, please try again later"
)

// PublicAuthMessage maps an authentication failure to the message shown to the end user.
func PublicAuthMessage(err error) string {
	switch GetCode(err) {
	case ErrCodeAmbiguousOrNotFound, ErrCodeInvalidCredentials:
		return PublicInvalidLogin
	default:
		return PublicAuthUnavailable
	}
}
