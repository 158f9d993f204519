package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/consentforms/consentforms/config"
	"github.com/consentforms/consentforms/internal/data/cryptoutil"
)

// Infrastructure holds the external connections opened at startup.
type Infrastructure struct {
	DB    *sql.DB
	Redis redis.UniversalClient
}

// Close releases every open connection.
func (i *Infrastructure) Close() error {
	var errs []error
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ConnectInfrastructure opens Redis and, when the directory configuration lives
// there, Postgres (applying migrations if enabled).
func ConnectInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{}
	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	if cfg.NeedsPostgres() {
		db, err := ConnectDB(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		infra.DB = db

		if cfg.Postgres.RunMigrationsOnStart {
			if err := RunMigrations(ctx, db, logger); err != nil {
				return nil, errors.Join(err, infra.Close())
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
	}

	client, err := ConnectRedis(ctx, dbCfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connect redis: %w", err), infra.Close())
	}
	infra.Redis = client
	return infra, nil
}

// BuildServices creates the directory configuration store and the services over infra.
func BuildServices(cfg *config.AppConfig, infra *Infrastructure, logger *slog.Logger) (ServiceContainer, error) {
	var enc cryptoutil.Encryptor
	if cfg.NeedsPostgres() {
		var err error
		if enc, err = CreateEncryptor(cfg.SecretsEncryptionKey, logger); err != nil {
			return ServiceContainer{}, fmt.Errorf("create encryptor: %w", err)
		}
	}

	store, err := BuildDirectoryConfigStore(DirectoryStoreDeps{
		Config:    cfg.Directory,
		DB:        infra.DB,
		Encryptor: enc,
		Logger:    logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	return NewServices(&ServiceDeps{
		Config:      cfg,
		Store:       store,
		RedisClient: infra.Redis,
		Logger:      logger,
	})
}

// Run connects infrastructure, builds the services and serves HTTP until
// SIGINT/SIGTERM or a fatal server error.
func Run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	infra, err := ConnectInfrastructure(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close infrastructure failed", "error", cerr)
		}
	}()

	services, err := BuildServices(cfg, infra, logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", listenAddr(cfg.HTTP))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return Serve(sigCtx, ServeConfig{
		Config:   cfg,
		Services: services,
		Listener: ln,
		Logger:   logger,
	})
}

// DefaultSetupModePollInterval is how often Serve re-reads the configuration
// to track setup-mode transitions.
const DefaultSetupModePollInterval = 30 * time.Second

// ServeConfig groups what Serve needs.
type ServeConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Listener net.Listener
	Logger   *slog.Logger
	// SetupModePollInterval overrides DefaultSetupModePollInterval.
	SetupModePollInterval time.Duration
}

// Serve runs the HTTP server on cfg.Listener until ctx is done.
func Serve(ctx context.Context, cfg ServeConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := BuildHTTPHandler(&HTTPServerConfig{Config: cfg.Config, Services: cfg.Services, Logger: logger})
	server := NewHTTPServer(cfg.Config.HTTP, handler)

	interval := cfg.SetupModePollInterval
	if interval <= 0 {
		interval = DefaultSetupModePollInterval
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ServeHTTP(gctx, server, cfg.Listener, cfg.Config.HTTP.ShutdownTimeout, logger)
	})
	g.Go(func() error {
		watchSetupMode(gctx, cfg.Services, interval, logger)
		return nil
	})
	return g.Wait()
}

// watchSetupMode logs setup-mode transitions and keeps the setup-mode gauge
// current until ctx is done.
func watchSetupMode(ctx context.Context, services ServiceContainer, interval time.Duration, logger *slog.Logger) {
	if services.Auth == nil {
		return
	}

	var (
		known bool
		last  bool
	)
	check := func() {
		setup, err := services.Auth.SetupMode(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.ErrorContext(ctx, "directory configuration unreadable; protected routes will return 503", "error", err)
			}
			return
		}
		if services.Metrics != nil {
			services.Metrics.SetSetupMode(setup)
		}
		if known && setup == last {
			return
		}
		if setup {
			logger.WarnContext(ctx, "setup mode active: all requests are admitted with full access until a full-access group is configured")
		} else if known {
			logger.InfoContext(ctx, "setup mode ended: role checks enforced")
		}
		known, last = true, setup
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
