package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/consentforms/consentforms/config"
	"github.com/consentforms/consentforms/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.ConfigureLogger(&cfg)

	logStartupInfo(ctx, logger, &cfg)

	return bootstrap.Run(ctx, &cfg, logger)
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	attrs := []any{
		"addr", cfg.HTTP.Addr,
		"directory_store", cfg.Directory.Store,
		"directory_timeout", cfg.Directory.Timeout,
		"session_ttl", cfg.Auth.SessionTTL,
		"metrics", cfg.Observability.Metrics.Enabled,
	}
	if cfg.Directory.Store == config.DirectoryStoreFile {
		attrs = append(attrs, "directory_config_path", cfg.Directory.ConfigPath)
	} else {
		attrs = append(attrs, "db_host", cfg.Postgres.Host, "db_name", cfg.Postgres.Name)
	}
	logger.InfoContext(ctx, "starting consentforms service", attrs...)
}
