package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	"github.com/consentforms/consentforms/internal/observability/metrics"
)

// Login rate limit defaults, applied per client IP.
const (
	DefaultLoginRateLimit  = 10
	DefaultLoginRateWindow = time.Minute
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions        SessionServiceInterface
	Setup           SetupModeChecker
	DirectoryConfig DirectoryConfigServiceInterface
	Tester          ConnectionTester
	Metrics         metrics.AuthRecorder
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer     prometheus.Gatherer
	CookieDomain string
	// LoginRateLimit is the number of login attempts allowed per client IP per LoginRateWindow.
	LoginRateLimit  int
	LoginRateWindow time.Duration
	Logger          *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gate := &Gatekeeper{
		Sessions: services.Sessions,
		Setup:    services.Setup,
		Metrics:  services.Metrics,
		Logger:   logger,
	}
	authHandlers := &AuthHandlers{
		Svc:          services.Sessions,
		Setup:        services.Setup,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	}
	configHandlers := &DirectoryConfigHandlers{
		Svc:    services.DirectoryConfig,
		Tester: services.Tester,
		Logger: logger,
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if services.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(services.Gatherer, promhttp.HandlerOpts{}))
	}

	registerAuthRoutes(mux, authHandlers, loginLimiter(services))
	registerAdminRoutes(mux, configHandlers, gate)
	mux.Handle("GET /api/me", gate.RequireRole(domainauth.RoleRead)(http.HandlerFunc(authHandlers.Me)))

	return Recover(logger)(Logging(logger)(mux))
}

func loginLimiter(services RouterServices) func(http.Handler) http.Handler {
	limit := services.LoginRateLimit
	if limit <= 0 {
		limit = DefaultLoginRateLimit
	}
	window := services.LoginRateWindow
	if window <= 0 {
		window = DefaultLoginRateWindow
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			WriteJSON(w, http.StatusTooManyRequests, map[string]any{
				"ok":     false,
				"reason": "too many login attempts, please wait and try again",
			})
		}),
	)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, limiter func(http.Handler) http.Handler) {
	mux.Handle("POST /auth/login", limiter(http.HandlerFunc(h.Login)))
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.HandleFunc("GET /auth/setup-mode", h.SetupMode)
}

func registerAdminRoutes(mux *http.ServeMux, h *DirectoryConfigHandlers, gate *Gatekeeper) {
	admin := gate.RequireRole(domainauth.RoleFull)
	mux.Handle("GET /api/admin/directory-config", admin(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/admin/directory-config", admin(http.HandlerFunc(h.Update)))
	mux.Handle("POST /api/admin/directory-config/test", admin(http.HandlerFunc(h.Test)))
}
