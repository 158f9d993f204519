package bootstrap

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/consentforms/consentforms/config"
	ldapadapter "github.com/consentforms/consentforms/internal/adapters/ldap"
	redisadapter "github.com/consentforms/consentforms/internal/adapters/redis"
	"github.com/consentforms/consentforms/internal/observability/metrics"
	"github.com/consentforms/consentforms/internal/ports"
	"github.com/consentforms/consentforms/internal/service"
)

// ServiceContainer holds the application services.
type ServiceContainer struct {
	Auth            *service.AuthService
	Sessions        *service.SessionService
	DirectoryConfig *service.DirectoryConfigService
	Metrics         *metrics.Auth
	Registry        *prometheus.Registry
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	Store       ports.DirectoryConfigStore
	RedisClient redis.UniversalClient
	// Dialer overrides the LDAP dialer; nil builds one from Config.Directory.
	Dialer ports.DirectoryDialer
	// Registry receives the service metrics; nil creates a fresh registry with
	// the Go runtime and process collectors.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// NewServices wires the authentication, session and configuration services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service dependencies require config")
	}
	if deps.Store == nil {
		return ServiceContainer{}, errors.New("service dependencies require a directory configuration store")
	}
	if deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("service dependencies require a redis client for sessions")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	authMetrics := metrics.NewAuth(reg)

	dialer := deps.Dialer
	if dialer == nil {
		dialer = ldapadapter.NewDialer(ldapadapter.DialerOptions{
			Timeout: deps.Config.Directory.Timeout,
			Logger:  logger.With("component", "ldap"),
		})
	}

	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Config:  deps.Store,
		Dialer:  dialer,
		Logger:  logger.With("component", "auth"),
		Metrics: authMetrics,
	})

	var storeOpts []redisadapter.SessionStoreOption
	if prefix := deps.Config.Redis.SessionPrefix; prefix != "" {
		storeOpts = append(storeOpts, redisadapter.WithPrefix(prefix))
	}
	sessionStore := redisadapter.NewSessionStore(deps.RedisClient, storeOpts...)

	return ServiceContainer{
		Auth: authSvc,
		Sessions: service.NewSessionService(service.SessionServiceOptions{
			Auth:     authSvc,
			Sessions: sessionStore,
			TTL:      deps.Config.Auth.SessionTTL,
			Logger:   logger.With("component", "sessions"),
		}),
		DirectoryConfig: service.NewDirectoryConfigService(service.DirectoryConfigServiceOptions{
			Store:  deps.Store,
			Logger: logger.With("component", "directory_config"),
		}),
		Metrics:  authMetrics,
		Registry: reg,
	}, nil
}
