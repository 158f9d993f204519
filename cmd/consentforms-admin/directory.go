package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/consentforms/consentforms/internal/service"
)

const defaultDirectoryCommandTimeout = 30 * time.Second

type jsonOptions struct {
	JSON bool
}

type checkLoginOptions struct {
	Username string
	Timeout  time.Duration
}

func parseJSONFlag(name string, args []string, stderr io.Writer) (jsonOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts jsonOptions
	fs.BoolVar(&opts.JSON, "json", false, "Print machine-readable JSON")
	if err := fs.Parse(args); err != nil {
		return jsonOptions{}, err
	}
	return opts, nil
}

func parseCheckLoginFlags(args []string, stderr io.Writer) (checkLoginOptions, error) {
	fs := flag.NewFlagSet("check-login", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := checkLoginOptions{Timeout: defaultDirectoryCommandTimeout}
	fs.StringVar(&opts.Username, "username", "", "sAMAccountName or userPrincipalName to authenticate")
	fs.DurationVar(&opts.Timeout, "timeout", defaultDirectoryCommandTimeout, "Maximum duration for the whole check")

	if err := fs.Parse(args); err != nil {
		return checkLoginOptions{}, err
	}
	opts.Username = strings.TrimSpace(opts.Username)
	if opts.Username == "" {
		return checkLoginOptions{}, errors.New("--username is required")
	}
	if opts.Timeout <= 0 {
		return checkLoginOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runSetupMode(cmdCtx *commandContext, args []string) error {
	opts, err := parseJSONFlag("setup-mode", args, cmdCtx.Stdout)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultDirectoryCommandTimeout)
	defer cancel()

	svc, closer, err := cmdCtx.authService(ctx)
	if err != nil {
		return err
	}
	defer cmdCtx.close(closer)

	setup, err := svc.SetupMode(ctx)
	if err != nil {
		return fmt.Errorf("load directory configuration: %w", err)
	}

	if opts.JSON {
		return json.NewEncoder(cmdCtx.Stdout).Encode(map[string]bool{"setupMode": setup})
	}
	if setup {
		return writeln(cmdCtx.Stdout, "setup mode: ACTIVE (every request is admitted with full access)")
	}
	return writeln(cmdCtx.Stdout, "setup mode: inactive")
}

func runShowConfig(cmdCtx *commandContext, args []string) error {
	opts, err := parseJSONFlag("show-config", args, cmdCtx.Stdout)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultDirectoryCommandTimeout)
	defer cancel()

	store, closer, err := cmdCtx.openStore(ctx)
	if err != nil {
		return err
	}
	defer cmdCtx.close(closer)

	view, err := service.NewDirectoryConfigService(service.DirectoryConfigServiceOptions{
		Store:  store,
		Logger: cmdCtx.Logger,
	}).Get(ctx)
	if err != nil {
		return fmt.Errorf("load directory configuration: %w", err)
	}

	if opts.JSON {
		enc := json.NewEncoder(cmdCtx.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return printConfigView(cmdCtx.Stdout, view)
}

func printConfigView(w io.Writer, view service.DirectoryConfigView) error {
	password := "(not set)"
	if view.HasServiceBindPassword {
		password = "(set)"
	}
	ca := view.CACertificatePath
	if ca == "" {
		ca = "(none: certificate verification disabled)"
	}
	rows := [][2]string{
		{"Server URL", view.ServerURL},
		{"Base search DN", view.BaseSearchDN},
		{"Service bind DN", view.ServiceBindDN},
		{"Service bind password", password},
		{"CA certificate", ca},
		{"Read group", view.GroupDNs.Read},
		{"Change group", view.GroupDNs.Change},
		{"Full group", view.GroupDNs.Full},
		{"Setup mode", fmt.Sprint(view.SetupMode)},
	}
	for _, row := range rows {
		if err := writef(w, "%-22s %s\n", row[0]+":", row[1]); err != nil {
			return err
		}
	}
	return nil
}

func runTestDirectory(cmdCtx *commandContext, args []string) error {
	if _, err := parseJSONFlag("test-directory", args, cmdCtx.Stdout); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultDirectoryCommandTimeout)
	defer cancel()

	svc, closer, err := cmdCtx.authService(ctx)
	if err != nil {
		return err
	}
	defer cmdCtx.close(closer)

	res := svc.TestConnection(ctx)
	if err := writeln(cmdCtx.Stdout, res.Message); err != nil {
		return err
	}
	if !res.Success {
		return errors.New("directory connection test failed")
	}
	return nil
}

func runCheckLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseCheckLoginFlags(args, cmdCtx.Stdout)
	if err != nil {
		return err
	}

	password, err := readPassword(cmdCtx.Stdin)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	svc, closer, err := cmdCtx.authService(ctx)
	if err != nil {
		return err
	}
	defer cmdCtx.close(closer)

	res := svc.AuthenticateAndAuthorise(ctx, opts.Username, password)
	if !res.OK {
		if writeErr := writef(cmdCtx.Stdout, "login rejected: %s\n", res.Reason); writeErr != nil {
			return writeErr
		}
		return errors.New("login rejected")
	}

	roles := res.Roles.Slice()
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	if len(names) == 0 {
		names = append(names, "(none)")
	}
	if err := writef(cmdCtx.Stdout, "user DN: %s\nroles:   %s\n", res.UserDN, strings.Join(names, ", ")); err != nil {
		return err
	}
	return nil
}

// readPassword reads a single line from r so the password never appears in
// argv or shell history.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must be supplied on stdin")
	}
	return password, nil
}
