package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/consentforms/consentforms/config"
	httpx "github.com/consentforms/consentforms/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// BuildHTTPHandler builds the router over the service container.
func BuildHTTPHandler(cfg *HTTPServerConfig) http.Handler {
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	services := httpx.RouterServices{
		Sessions:        cfg.Services.Sessions,
		Setup:           cfg.Services.Auth,
		DirectoryConfig: cfg.Services.DirectoryConfig,
		Tester:          cfg.Services.Auth,
		Metrics:         cfg.Services.Metrics,
		CookieDomain:    appCfg.HTTP.CookieDomain,
		LoginRateLimit:  appCfg.Auth.LoginRateLimit,
		LoginRateWindow: appCfg.Auth.LoginRateWindow,
		Logger:          logger,
	}
	if appCfg.Observability.Metrics.Enabled && cfg.Services.Registry != nil {
		services.Gatherer = cfg.Services.Registry
	}
	return httpx.NewRouter(services)
}

func listenAddr(cfg config.HTTPConfig) string {
	// Guard against empty addr to avoid listening on Go default
	if cfg.Addr == "" {
		return ":8080"
	}
	return cfg.Addr
}

// NewHTTPServer creates an unstarted server for handler.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              listenAddr(cfg),
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeHTTP runs server on ln until ctx is cancelled, then shuts it down
// within shutdownTimeout.
func ServeHTTP(ctx context.Context, server *http.Server, ln net.Listener, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting HTTP server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return <-errCh
}
