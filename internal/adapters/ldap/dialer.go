// Package ldap opens short-lived directory sessions against an LDAP or
// Active Directory server using github.com/go-ldap/ldap/v3.
package ldap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	goldap "github.com/go-ldap/ldap/v3"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/ports"
)

// DefaultTimeout bounds dialing and every bind or search.
const DefaultTimeout = 6 * time.Second

// Conn is the subset of *goldap.Conn used by sessions.
type Conn interface {
	Bind(username, password string) error
	Search(req *goldap.SearchRequest) (*goldap.SearchResult, error)
	StartTLS(cfg *tls.Config) error
	SetTimeout(timeout time.Duration)
	Close() error
}

var _ Conn = (*goldap.Conn)(nil)

// DialFunc establishes a raw connection to serverURL.
type DialFunc func(ctx context.Context, serverURL string, tlsCfg *tls.Config, timeout time.Duration) (Conn, error)

// DialerOptions groups dependencies for NewDialer.
type DialerOptions struct {
	Timeout time.Duration
	Logger  *slog.Logger
	// Dial overrides the network dial; nil uses goldap.DialURL.
	Dial DialFunc
	// ReadFile overrides CA file reads; nil uses os.ReadFile.
	ReadFile func(name string) ([]byte, error)
}

// Dialer implements ports.DirectoryDialer.
type Dialer struct {
	timeout  time.Duration
	logger   *slog.Logger
	dial     DialFunc
	readFile func(string) ([]byte, error)
}

var _ ports.DirectoryDialer = (*Dialer)(nil)

// NewDialer constructs a Dialer.
func NewDialer(opts DialerOptions) *Dialer {
	d := &Dialer{
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		dial:     opts.Dial,
		readFile: opts.ReadFile,
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.dial == nil {
		d.dial = dialURL
	}
	if d.readFile == nil {
		d.readFile = os.ReadFile
	}
	return d
}

// Timeout returns the bound applied to each directory operation.
func (d *Dialer) Timeout() time.Duration { return d.timeout }

// Open connects to cfg.ServerURL. TLS material is resolved before dialing so
// an unreadable CA file never results in network traffic.
func (d *Dialer) Open(ctx context.Context, cfg domainauth.DirectoryConfig) (ports.DirectorySession, error) {
	u, err := parseServerURL(cfg.ServerURL)
	if err != nil {
		return nil, err
	}

	tlsCfg, err := d.tlsConfig(ctx, cfg, u.Hostname())
	if err != nil {
		return nil, err
	}

	conn, err := d.dial(ctx, u.String(), tlsCfg, d.timeout)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeDirectoryUnavailable, "connect to %s", u.Host)
	}

	// The request timeout must be in place before the first request, StartTLS included.
	conn.SetTimeout(d.timeout)

	if u.Scheme == "ldap" {
		if err := startTLS(ctx, conn, tlsCfg, d.timeout); err != nil {
			_ = conn.Close()
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeDirectoryUnavailable, "start tls with %s", u.Host)
		}
	}

	return newSession(conn), nil
}

// startTLS upgrades conn. The connection is closed when ctx ends or timeout
// passes first, which also aborts a stalled TLS handshake.
func startTLS(ctx context.Context, conn Conn, tlsCfg *tls.Config, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	err := conn.StartTLS(tlsCfg)
	if !stop() {
		// conn is already closed even if the upgrade itself succeeded.
		return errors.Join(ctx.Err(), err)
	}
	return err
}

func (d *Dialer) tlsConfig(ctx context.Context, cfg domainauth.DirectoryConfig, serverName string) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: serverName,
	}

	caPath := strings.TrimSpace(cfg.CACertificatePath)
	if caPath == "" {
		d.logger.WarnContext(ctx, "directory certificate validation disabled; no CA certificate configured",
			"server", serverName,
			"tls_mode", "insecure")
		tlsCfg.InsecureSkipVerify = true //nolint:gosec // explicit fallback when no CA file is configured
		return tlsCfg, nil
	}

	pem, err := d.readFile(caPath)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeConfiguration, "read CA certificate %s", caPath)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, apperrors.Configuration("CA certificate " + caPath + " contains no PEM certificates")
	}
	tlsCfg.RootCAs = pool
	return tlsCfg, nil
}

func parseServerURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &apperrors.AppError{
			Code:    apperrors.ErrCodeConfiguration,
			Message: "directory server URL is not configured",
			Field:   "serverUrl",
		}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "parse directory server URL")
	}
	switch u.Scheme {
	case "ldap", "ldaps":
	default:
		return nil, apperrors.Configuration("directory server URL must use ldap:// or ldaps://")
	}
	if u.Hostname() == "" {
		return nil, apperrors.Configuration("directory server URL has no host")
	}
	return u, nil
}

func dialURL(ctx context.Context, serverURL string, tlsCfg *tls.Config, timeout time.Duration) (Conn, error) {
	nd := &net.Dialer{Timeout: timeout}
	if deadline, ok := ctx.Deadline(); ok {
		nd.Deadline = deadline
	}
	conn, err := goldap.DialURL(serverURL,
		goldap.DialWithDialer(nd),
		goldap.DialWithTLSConfig(tlsCfg),
	)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
