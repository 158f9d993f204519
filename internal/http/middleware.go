package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	"github.com/consentforms/consentforms/internal/observability/metrics"
)

// SessionCookieName is the cookie carrying the opaque session ID.
const SessionCookieName = "session_id"

// Gatekeeper decisions recorded in metrics.
const (
	DecisionAllowed         = "allowed"
	DecisionSetupBypass     = "setup_bypass"
	DecisionUnauthenticated = "unauthenticated"
	DecisionForbidden       = "forbidden"
	DecisionUnavailable     = "unavailable"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			reqID := r.Header.Get("X-Request-Id")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			ww.Header().Set("X-Request-Id", reqID)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionReader resolves a session ID to a live session.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// SetupModeChecker reports whether access control is still being set up.
type SetupModeChecker interface {
	SetupMode(ctx context.Context) (bool, error)
}

// Gatekeeper guards routes by role. While the directory configuration is in
// setup mode every request is admitted with the synthetic setup identity.
type Gatekeeper struct {
	Sessions SessionReader
	Setup    SetupModeChecker
	Metrics  metrics.AuthRecorder
	Logger   *slog.Logger
}

func (g *Gatekeeper) logger() *slog.Logger {
	if g != nil && g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Gatekeeper) record(decision string) {
	if g.Metrics != nil {
		g.Metrics.GatekeeperDecision(decision)
	}
}

// RequireRole returns a middleware that admits requests whose session holds
// requiredRole. It responds 401 without a session, 403 without the role, and
// 503 when the configuration cannot be read.
func (g *Gatekeeper) RequireRole(requiredRole domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setup, err := g.Setup.SetupMode(r.Context())
			if err != nil {
				g.logger().ErrorContext(r.Context(), "gatekeeper: load directory configuration", "error", err)
				g.record(DecisionUnavailable)
				WriteError(w, ErrorParams{
					Code:    http.StatusServiceUnavailable,
					ErrCode: "configuration_unavailable",
					Err:     errors.New("access control configuration is unavailable"),
				})
				return
			}
			if setup {
				g.record(DecisionSetupBypass)
				ctx := SetSessionInContext(r.Context(), setupSession())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			session := getSessionFromRequest(r, g.Sessions)
			if session == nil {
				g.record(DecisionUnauthenticated)
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}

			if !session.HasRole(requiredRole) {
				g.record(DecisionForbidden)
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}

			g.record(DecisionAllowed)
			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// getSessionFromRequest retrieves and validates a session from the request.
func getSessionFromRequest(r *http.Request, sessions SessionReader) *domainauth.Session {
	sessionCookie, err := r.Cookie(SessionCookieName)
	if err != nil || sessionCookie.Value == "" {
		return nil
	}

	session, err := sessions.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		return nil
	}

	return session
}
