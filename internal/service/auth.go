package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/observability/metrics"
	"github.com/consentforms/consentforms/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Config  ports.DirectoryConfigStore
	Dialer  ports.DirectoryDialer
	Logger  *slog.Logger
	Metrics metrics.AuthRecorder
	Now     func() time.Time
}

// AuthService authenticates users against the configured directory and derives
// their roles. It holds no per-request state; every call loads the current
// configuration and opens its own directory session.
type AuthService struct {
	config   ports.DirectoryConfigStore
	dialer   ports.DirectoryDialer
	logger   *slog.Logger
	metrics  metrics.AuthRecorder
	now      func() time.Time
	verifier CredentialVerifier
	resolver RoleResolver
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	s := &AuthService{
		config:  opts.Config,
		dialer:  opts.Dialer,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.logger = s.logger.With("component", "auth")
	return s
}

// AuthenticateAndAuthorise verifies the credentials and resolves roles. It never
// returns an error: failures become a failed AuthResult whose Reason is safe to
// show an unauthenticated caller, and the detail is logged.
func (s *AuthService) AuthenticateAndAuthorise(ctx context.Context, username, password string) domainauth.AuthResult {
	start := s.now()
	username = strings.TrimSpace(username)

	userDN, roles, err := s.authenticate(ctx, username, password)
	elapsed := s.now().Sub(start)
	if err != nil {
		result := metrics.ResultError
		logFn := s.logger.ErrorContext
		if apperrors.IsInvalidCredentials(err) || apperrors.IsAmbiguousOrNotFound(err) {
			result = metrics.ResultFailure
			logFn = s.logger.WarnContext
		}
		logFn(ctx, "directory login failed",
			"username", username,
			"error_code", apperrors.GetCode(err),
			"error", err,
			"duration", elapsed)
		s.metrics.LoginAttempt(result, err, elapsed)
		return domainauth.Failed(apperrors.PublicAuthMessage(err))
	}

	s.logger.InfoContext(ctx, "directory login succeeded",
		"username", username,
		"user_dn", userDN,
		"roles", roles.Slice(),
		"duration", elapsed)
	s.metrics.LoginAttempt(metrics.ResultSuccess, nil, elapsed)
	return domainauth.Succeeded(userDN, roles)
}

func (s *AuthService) authenticate(ctx context.Context, username, password string) (userDN string, roles domainauth.RoleSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Internal(fmt.Sprintf("panic during authentication: %v", r))
		}
	}()

	if username == "" || password == "" {
		return "", nil, apperrors.InvalidCredentials("username or password is empty")
	}

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return "", nil, err
	}

	sess, err := s.open(ctx, cfg)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = sess.Close() }()

	if err := bindService(ctx, sess, cfg); err != nil {
		return "", nil, err
	}

	userDN, err = s.verifier.Verify(ctx, sess, cfg.BaseSearchDN, username, password)
	if err != nil {
		return "", nil, err
	}

	if err := bindService(ctx, sess, cfg); err != nil {
		return "", nil, err
	}

	roles, err = s.resolver.Resolve(ctx, sess, cfg.BaseSearchDN, userDN, cfg.GroupDNs)
	if err != nil {
		return "", nil, err
	}
	return userDN, roles, nil
}

// TestConnection loads the configuration, connects, and binds as the service
// account only. The message classifies common failures for administrators.
func (s *AuthService) TestConnection(ctx context.Context) domainauth.ConnectionTestResult {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return s.connectionTestFailed(ctx, cfg, err)
	}

	sess, err := s.open(ctx, cfg)
	if err != nil {
		return s.connectionTestFailed(ctx, cfg, err)
	}
	defer func() { _ = sess.Close() }()

	if err := bindService(ctx, sess, cfg); err != nil {
		return s.connectionTestFailed(ctx, cfg, err)
	}

	msg := fmt.Sprintf("Connected to %s and bound as %s.", cfg.ServerURL, cfg.ServiceBindDN)
	if cfg.Insecure() {
		msg += " " + insecureNotice
	}
	s.logger.InfoContext(ctx, "directory connection test succeeded",
		"server", cfg.ServerURL,
		"insecure", cfg.Insecure())
	s.metrics.ConnectionTest(true, cfg.Insecure())
	return domainauth.ConnectionTestResult{Success: true, Message: msg}
}

func (s *AuthService) connectionTestFailed(ctx context.Context, cfg domainauth.DirectoryConfig, err error) domainauth.ConnectionTestResult {
	s.logger.WarnContext(ctx, "directory connection test failed",
		"server", cfg.ServerURL,
		"error_code", apperrors.GetCode(err),
		"error", err)
	s.metrics.ConnectionTest(false, cfg.Insecure())
	return domainauth.ConnectionTestResult{Success: false, Message: DescribeConnectionError(err)}
}

// SetupMode reports whether the stored configuration leaves the application in setup mode.
func (s *AuthService) SetupMode(ctx context.Context) (bool, error) {
	cfg, err := s.config.Load(ctx)
	if err != nil {
		return false, err
	}
	return domainauth.IsSetupMode(cfg), nil
}

func (s *AuthService) loadConfig(ctx context.Context) (domainauth.DirectoryConfig, error) {
	cfg, err := s.config.Load(ctx)
	if err != nil {
		if apperrors.GetCode(err) == "" {
			err = apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "load directory configuration")
		}
		return domainauth.DirectoryConfig{}, err
	}
	if err := validateDirectoryConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s *AuthService) open(ctx context.Context, cfg domainauth.DirectoryConfig) (ports.DirectorySession, error) {
	start := s.now()
	sess, err := s.dialer.Open(ctx, cfg)
	s.metrics.DirectoryOp(metrics.OpDial, err, s.now().Sub(start))
	if err != nil {
		return nil, err
	}
	return &instrumentedSession{DirectorySession: sess, metrics: s.metrics, now: s.now}, nil
}

// validateDirectoryConfig rejects records that would lead to an anonymous bind
// or an unscoped search.
func validateDirectoryConfig(cfg domainauth.DirectoryConfig) error {
	required := []struct {
		field string
		value string
	}{
		{"serverUrl", cfg.ServerURL},
		{"baseSearchDn", cfg.BaseSearchDN},
		{"serviceBindDn", cfg.ServiceBindDN},
		{"serviceBindPassword", cfg.ServiceBindPassword},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &apperrors.AppError{
				Code:    apperrors.ErrCodeConfiguration,
				Message: r.field + " is not configured",
				Field:   r.field,
			}
		}
	}
	return nil
}

// bindService binds as the service account. A rejected password is a
// misconfiguration, not a user error.
func bindService(ctx context.Context, sess ports.DirectorySession, cfg domainauth.DirectoryConfig) error {
	err := sess.Bind(ctx, cfg.ServiceBindDN, cfg.ServiceBindPassword)
	if apperrors.IsInvalidCredentials(err) {
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidServiceCredentials, "service account bind rejected")
	}
	return err
}

// instrumentedSession records latency and outcome of each directory call.
type instrumentedSession struct {
	ports.DirectorySession
	metrics metrics.AuthRecorder
	now     func() time.Time
}

func (s *instrumentedSession) Bind(ctx context.Context, dn, password string) error {
	start := s.now()
	err := s.DirectorySession.Bind(ctx, dn, password)
	s.metrics.DirectoryOp(metrics.OpBind, err, s.now().Sub(start))
	return err
}

func (s *instrumentedSession) Search(ctx context.Context, req ports.SearchRequest) ([]ports.Entry, error) {
	start := s.now()
	entries, err := s.DirectorySession.Search(ctx, req)
	s.metrics.DirectoryOp(metrics.OpSearch, err, s.now().Sub(start))
	return entries, err
}
