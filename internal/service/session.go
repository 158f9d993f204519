package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/ports"
)

// DefaultSessionTTL is used when SessionServiceOptions.TTL is unset.
const DefaultSessionTTL = 8 * time.Hour

// NoAccessReason is shown to users whose credentials are valid but who hold no role.
const NoAccessReason = "access denied: your account is not a member of any consent forms group"

// ErrSessionExpired is returned by GetSession for sessions past their expiry.
var ErrSessionExpired = apperrors.NotFound("session expired")

// Authenticator verifies credentials and derives roles.
type Authenticator interface {
	AuthenticateAndAuthorise(ctx context.Context, username, password string) domainauth.AuthResult
}

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Auth     Authenticator
	Sessions ports.SessionStore
	TTL      time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// SessionService turns successful directory logins into server-side sessions.
type SessionService struct {
	auth     Authenticator
	sessions ports.SessionStore
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	s := &SessionService{
		auth:     opts.Auth,
		sessions: opts.Sessions,
		ttl:      opts.TTL,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// LoginResult is the outcome of a login. When OK is false, Reason is safe to show the caller.
type LoginResult struct {
	OK      bool
	Reason  string
	Session domainauth.Session
}

// Login authenticates the user and persists a session. A user with no role is
// refused and no session is created. The error is non-nil only for session
// persistence failures.
func (s *SessionService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	res := s.auth.AuthenticateAndAuthorise(ctx, username, password)
	if !res.OK {
		return LoginResult{Reason: res.Reason}, nil
	}
	if len(res.Roles) == 0 {
		s.logger.WarnContext(ctx, "login refused: no roles", "user_dn", res.UserDN)
		return LoginResult{Reason: NoAccessReason}, nil
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		Username:  username,
		UserDN:    res.UserDN,
		Roles:     res.Roles.Slice(),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return LoginResult{}, fmt.Errorf("save session: %w", err)
	}
	return LoginResult{OK: true, Session: session}, nil
}

// GetSession retrieves a live session by ID.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, apperrors.NotFound("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !s.now().Before(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// Logout removes a session.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// TTL reports the session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

func generateSessionID() string {
	return uuid.New().String()
}
