package ldap

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
	"github.com/consentforms/consentforms/internal/ports"
)

func writeTestCA(t *testing.T) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Directory CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	return path
}

type fakeConn struct {
	bindErr     error
	searchErr   error
	result      *goldap.SearchResult
	startTLSErr error

	binds      []string
	searches   []*goldap.SearchRequest
	startTLS   int
	timeout    time.Duration
	closeCalls int
	// timeout observed when StartTLS was issued
	startTLSTimeout time.Duration
}

func (f *fakeConn) Bind(username, _ string) error {
	f.binds = append(f.binds, username)
	return f.bindErr
}

func (f *fakeConn) Search(req *goldap.SearchRequest) (*goldap.SearchResult, error) {
	f.searches = append(f.searches, req)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.result == nil {
		return &goldap.SearchResult{}, nil
	}
	return f.result, nil
}

func (f *fakeConn) StartTLS(*tls.Config) error {
	f.startTLS++
	f.startTLSTimeout = f.timeout
	return f.startTLSErr
}

func (f *fakeConn) SetTimeout(d time.Duration) { f.timeout = d }

func (f *fakeConn) Close() error {
	f.closeCalls++
	return nil
}

type dialRecorder struct {
	conn   *fakeConn
	err    error
	calls  int
	url    string
	tlsCfg *tls.Config
}

func (r *dialRecorder) dial(_ context.Context, serverURL string, tlsCfg *tls.Config, _ time.Duration) (Conn, error) {
	r.calls++
	r.url = serverURL
	r.tlsCfg = tlsCfg
	if r.err != nil {
		return nil, r.err
	}
	return r.conn, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDialer(rec *dialRecorder) *Dialer {
	return NewDialer(DialerOptions{
		Timeout: 5 * time.Second,
		Logger:  quietLogger(),
		Dial:    rec.dial,
	})
}

func TestOpen_UnreadableCAFileFailsBeforeDial(t *testing.T) {
	rec := &dialRecorder{conn: &fakeConn{}}
	d := newTestDialer(rec)

	_, err := d.Open(context.Background(), domainauth.DirectoryConfig{
		ServerURL:         "ldaps://dc.corp.local",
		CACertificatePath: filepath.Join(t.TempDir(), "missing.pem"),
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	assert.Zero(t, rec.calls)
}

func TestOpen_InvalidPEMIsConfigurationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))
	rec := &dialRecorder{conn: &fakeConn{}}

	_, err := newTestDialer(rec).Open(context.Background(), domainauth.DirectoryConfig{
		ServerURL:         "ldaps://dc.corp.local",
		CACertificatePath: path,
	})

	assert.True(t, apperrors.IsConfiguration(err))
	assert.Zero(t, rec.calls)
}

func TestOpen_WithCAFileVerifiesCertificates(t *testing.T) {
	path := writeTestCA(t)
	fc := &fakeConn{}
	rec := &dialRecorder{conn: fc}

	sess, err := newTestDialer(rec).Open(context.Background(), domainauth.DirectoryConfig{
		ServerURL:         "ldaps://dc.corp.local:636",
		CACertificatePath: path,
	})
	require.NoError(t, err)
	defer sess.Close()

	require.NotNil(t, rec.tlsCfg)
	assert.False(t, rec.tlsCfg.InsecureSkipVerify)
	assert.NotNil(t, rec.tlsCfg.RootCAs)
	assert.Equal(t, "dc.corp.local", rec.tlsCfg.ServerName)
	assert.Zero(t, fc.startTLS, "ldaps must not issue StartTLS")
	assert.Equal(t, 5*time.Second, fc.timeout)
}

func TestOpen_WithoutCAFileIsInsecure(t *testing.T) {
	fc := &fakeConn{}
	rec := &dialRecorder{conn: fc}

	sess, err := newTestDialer(rec).Open(context.Background(), domainauth.DirectoryConfig{
		ServerURL: "ldap://dc.corp.local",
	})
	require.NoError(t, err)
	defer sess.Close()

	assert.True(t, rec.tlsCfg.InsecureSkipVerify)
	assert.Equal(t, 1, fc.startTLS, "ldap:// upgrades with StartTLS")
}

func TestOpen_StartTLSFailureClosesConn(t *testing.T) {
	fc := &fakeConn{startTLSErr: errors.New("unsupported extended operation")}
	rec := &dialRecorder{conn: fc}

	_, err := newTestDialer(rec).Open(context.Background(), domainauth.DirectoryConfig{ServerURL: "ldap://dc"})

	assert.True(t, apperrors.IsDirectoryUnavailable(err))
	assert.Equal(t, 1, fc.closeCalls)
}

func TestOpen_TimeoutAppliedBeforeStartTLS(t *testing.T) {
	fc := &fakeConn{}
	rec := &dialRecorder{conn: fc}

	sess, err := newTestDialer(rec).Open(context.Background(), domainauth.DirectoryConfig{ServerURL: "ldap://dc"})
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, 5*time.Second, fc.startTLSTimeout)
}

// silentListener accepts TCP connections and never writes a byte.
func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, acceptErr := ln.Accept()
			if acceptErr != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
			go func() { _, _ = io.Copy(io.Discard, c) }()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func openAsync(ctx context.Context, d *Dialer, serverURL string) <-chan error {
	done := make(chan error, 1)
	go func() {
		sess, err := d.Open(ctx, domainauth.DirectoryConfig{ServerURL: serverURL})
		if sess != nil {
			_ = sess.Close()
		}
		done <- err
	}()
	return done
}

func TestOpen_SilentServerStartTLSTimesOut(t *testing.T) {
	addr := silentListener(t)
	d := NewDialer(DialerOptions{Timeout: 200 * time.Millisecond, Logger: quietLogger()})

	select {
	case err := <-openAsync(context.Background(), d, "ldap://"+addr):
		require.Error(t, err)
		assert.True(t, apperrors.IsDirectoryUnavailable(err), err.Error())
	case <-time.After(5 * time.Second):
		t.Fatal("Open did not return within the directory timeout")
	}
}

func TestOpen_CanceledContextAbortsStartTLS(t *testing.T) {
	addr := silentListener(t)
	d := NewDialer(DialerOptions{Timeout: time.Minute, Logger: quietLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := openAsync(ctx, d, "ldap://"+addr)
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, apperrors.IsDirectoryUnavailable(err))
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Open ignored context cancellation during StartTLS")
	}
}

func TestOpen_DialFailureIsUnavailable(t *testing.T) {
	rec := &dialRecorder{err: errors.New("connection refused")}

	_, err := newTestDialer(rec).Open(context.Background(), domainauth.DirectoryConfig{ServerURL: "ldaps://dc"})

	assert.True(t, apperrors.IsDirectoryUnavailable(err))
}

func TestOpen_BadServerURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "http://dc.corp.local", "ldaps://"} {
		rec := &dialRecorder{conn: &fakeConn{}}
		_, err := newTestDialer(rec).Open(context.Background(), domainauth.DirectoryConfig{ServerURL: raw})
		assert.True(t, apperrors.IsConfiguration(err), "url %q", raw)
		assert.Zero(t, rec.calls)
	}
}

func TestSession_BindErrorMapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name:  "invalid credentials",
			err:   goldap.NewError(goldap.LDAPResultInvalidCredentials, errors.New("80090308: AcceptSecurityContext error")),
			check: apperrors.IsInvalidCredentials,
		},
		{
			name:  "network",
			err:   goldap.NewError(goldap.ErrorNetwork, errors.New("connection reset")),
			check: apperrors.IsDirectoryUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(&fakeConn{bindErr: tt.err})
			err := s.Bind(context.Background(), "CN=svc", "secret")
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestSession_BindSuccess(t *testing.T) {
	fc := &fakeConn{}
	s := newSession(fc)
	require.NoError(t, s.Bind(context.Background(), "CN=svc", "secret"))
	assert.Equal(t, []string{"CN=svc"}, fc.binds)
}

func TestSession_SearchConvertsEntries(t *testing.T) {
	fc := &fakeConn{result: &goldap.SearchResult{Entries: []*goldap.Entry{
		goldap.NewEntry("CN=Jane,DC=corp", map[string][]string{"sAMAccountName": {"jane"}}),
	}}}
	s := newSession(fc)

	got, err := s.Search(context.Background(), ports.SearchRequest{
		BaseDN:     "DC=corp",
		Filter:     "(sAMAccountName=jane)",
		Attributes: []string{"dn"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CN=Jane,DC=corp", got[0].DN)
	assert.Equal(t, []string{"jane"}, got[0].Attributes["sAMAccountName"])

	require.Len(t, fc.searches, 1)
	assert.Equal(t, goldap.ScopeWholeSubtree, fc.searches[0].Scope)
	assert.Equal(t, "DC=corp", fc.searches[0].BaseDN)
}

func TestSession_SearchErrorIsUnavailable(t *testing.T) {
	s := newSession(&fakeConn{searchErr: goldap.NewError(goldap.ErrorNetwork, errors.New("timeout"))})
	_, err := s.Search(context.Background(), ports.SearchRequest{BaseDN: "DC=corp", Filter: "(objectClass=user)"})
	assert.True(t, apperrors.IsDirectoryUnavailable(err))
}

func TestSession_CanceledContextDoesNotCallConn(t *testing.T) {
	fc := &fakeConn{}
	s := newSession(fc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, apperrors.IsDirectoryUnavailable(s.Bind(ctx, "CN=svc", "pw")))
	_, err := s.Search(ctx, ports.SearchRequest{})
	assert.True(t, apperrors.IsDirectoryUnavailable(err))
	assert.Empty(t, fc.binds)
	assert.Empty(t, fc.searches)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	fc := &fakeConn{}
	s := newSession(fc)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, fc.closeCalls)
}
