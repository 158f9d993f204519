package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/consentforms/consentforms/config"
	ldapadapter "github.com/consentforms/consentforms/internal/adapters/ldap"
	"github.com/consentforms/consentforms/internal/bootstrap"
	"github.com/consentforms/consentforms/internal/observability/metrics"
	"github.com/consentforms/consentforms/internal/ports"
	"github.com/consentforms/consentforms/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdout io.Writer
	Stdin  io.Reader

	// openStore returns the configured directory store and a closer for any
	// connection it opened.
	openStore func(ctx context.Context) (ports.DirectoryConfigStore, func() error, error)
	dialer    ports.DirectoryDialer
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger = bootstrap.ConfigureLogger(&cfg)

	cmdCtx := newCommandContext(context.Background(), logger, cfg)
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newCommandContext(ctx context.Context, logger *slog.Logger, cfg config.AppConfig) *commandContext {
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Stdout: os.Stdout,
		Stdin:  os.Stdin,
		dialer: ldapadapter.NewDialer(ldapadapter.DialerOptions{
			Timeout: cfg.Directory.Timeout,
			Logger:  logger,
		}),
	}
	cmdCtx.openStore = cmdCtx.openConfiguredStore
	return cmdCtx
}

func commands() map[string]command {
	return map[string]command{
		"setup-mode": {
			name:        "setup-mode",
			description: "Report whether access control is bypassed (no full-access group configured)",
			run:         runSetupMode,
		},
		"show-config": {
			name:        "show-config",
			description: "Print the directory configuration with the bind password redacted",
			run:         runShowConfig,
		},
		"test-directory": {
			name:        "test-directory",
			description: "Connect and bind to the directory with the stored service account",
			run:         runTestDirectory,
		},
		"check-login": {
			name:        "check-login",
			description: "Authenticate a user (password read from stdin) and print the derived roles",
			run:         runCheckLogin,
		},
		"migrate": {
			name:        "migrate",
			description: "Run database migrations for the postgres directory store",
			run:         runMigrations,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: consentforms-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands()[name]
		if err := writef(w, "  %-16s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

//nolint:ireturn // commands only need the port.
func (c *commandContext) openConfiguredStore(ctx context.Context) (ports.DirectoryConfigStore, func() error, error) {
	deps := bootstrap.DirectoryStoreDeps{Config: c.Config.Directory, Logger: c.Logger}
	closer := func() error { return nil }

	if c.Config.NeedsPostgres() {
		db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: c.Config.Postgres, Logger: c.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		closer = db.Close
		deps.DB = db

		if deps.Encryptor, err = bootstrap.CreateEncryptor(c.Config.SecretsEncryptionKey, c.Logger); err != nil {
			return nil, nil, closeAfter(fmt.Errorf("create encryptor: %w", err), closer)
		}
	}

	store, err := bootstrap.BuildDirectoryConfigStore(deps)
	if err != nil {
		return nil, nil, closeAfter(err, closer)
	}
	return store, closer, nil
}

// authService builds an AuthService over the configured store.
func (c *commandContext) authService(ctx context.Context) (*service.AuthService, func() error, error) {
	store, closer, err := c.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return service.NewAuthService(service.AuthServiceOptions{
		Config:  store,
		Dialer:  c.dialer,
		Logger:  c.Logger,
		Metrics: metrics.Noop{},
	}), closer, nil
}

func (c *commandContext) close(closer func() error) {
	if closer == nil {
		return
	}
	if err := closer(); err != nil {
		c.Logger.Warn("close store failed", "error", err)
	}
}

func closeAfter(err error, closer func() error) error {
	if cerr := closer(); cerr != nil {
		return fmt.Errorf("%w (close: %w)", err, cerr)
	}
	return err
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
