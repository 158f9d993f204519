package config

import "time"

const (
	defaultSessionTTL      = 8 * time.Hour
	minSessionTTL          = time.Minute
	defaultLoginRateLimit  = 10
	defaultLoginRateWindow = time.Minute
)

// AuthConfig groups session and login configuration.
type AuthConfig struct {
	// SessionTTL is how long a session created by a successful login stays valid.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"8h"`

	// LoginRateLimit is the number of login attempts allowed per client IP per LoginRateWindow.
	LoginRateLimit  int           `env:"AUTH_LOGIN_RATE_LIMIT"  envDefault:"10"`
	LoginRateWindow time.Duration `env:"AUTH_LOGIN_RATE_WINDOW" envDefault:"1m"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL <= 0 {
		a.SessionTTL = defaultSessionTTL
	}
	if a.SessionTTL < minSessionTTL {
		a.SessionTTL = minSessionTTL
	}
	if a.LoginRateLimit <= 0 {
		a.LoginRateLimit = defaultLoginRateLimit
	}
	if a.LoginRateWindow <= 0 {
		a.LoginRateWindow = defaultLoginRateWindow
	}
}
