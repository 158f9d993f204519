package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	fakes "github.com/consentforms/consentforms/internal/mocks/auth"
	"github.com/consentforms/consentforms/internal/observability/metrics"
	"github.com/consentforms/consentforms/internal/service"
)

const (
	testServiceDN = "CN=svc,OU=Service,DC=example,DC=com"
	testReadDN    = "CN=Reader,OU=Users,DC=example,DC=com"
	testAdminDN   = "CN=Admin,OU=Users,DC=example,DC=com"
	testFullGroup = "CN=Consent-Full,OU=Groups,DC=example,DC=com"
	testReadGroup = "CN=Consent-Read,OU=Groups,DC=example,DC=com"
)

func configuredDirectory() domainauth.DirectoryConfig {
	return domainauth.DirectoryConfig{
		ServerURL:           "ldaps://dc1.example.com",
		BaseSearchDN:        "DC=example,DC=com",
		ServiceBindDN:       testServiceDN,
		ServiceBindPassword: "svc-pass",
		CACertificatePath:   "/etc/ssl/ca.pem",
		GroupDNs:            domainauth.GroupDNs{Read: testReadGroup, Full: testFullGroup},
	}
}

// testApp wires the real services over in-memory fakes.
type testApp struct {
	handler  http.Handler
	config   *fakes.MemoryConfigStore
	dir      *fakes.FakeDirectory
	sessions *fakes.MemorySessionStore
	auth     *service.AuthService
	registry *prometheus.Registry
	metrics  *metrics.Auth
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, cfg domainauth.DirectoryConfig) *testApp {
	t.Helper()
	app := &testApp{
		config:   fakes.NewMemoryConfigStore(cfg),
		sessions: fakes.NewMemorySessionStore(),
		registry: prometheus.NewRegistry(),
		dir: &fakes.FakeDirectory{
			ServiceDN:       testServiceDN,
			ServicePassword: "svc-pass",
			Users: []fakes.FakeUser{
				{SAMAccountName: "reader", DN: testReadDN, Password: "pw", Groups: []string{testReadGroup}},
				{SAMAccountName: "admin", DN: testAdminDN, Password: "pw", Groups: []string{testFullGroup}},
				{SAMAccountName: "visitor", DN: "CN=Visitor,OU=Users,DC=example,DC=com", Password: "pw"},
			},
		},
	}
	app.metrics = metrics.NewAuth(app.registry)
	logger := discardLogger()

	app.auth = service.NewAuthService(service.AuthServiceOptions{
		Config:  app.config,
		Dialer:  app.dir,
		Logger:  logger,
		Metrics: app.metrics,
	})
	sessions := service.NewSessionService(service.SessionServiceOptions{
		Auth:     app.auth,
		Sessions: app.sessions,
		TTL:      time.Hour,
		Logger:   logger,
	})
	app.handler = NewRouter(RouterServices{
		Sessions:        sessions,
		Setup:           app.auth,
		DirectoryConfig: service.NewDirectoryConfigService(service.DirectoryConfigServiceOptions{Store: app.config, Logger: logger}),
		Tester:          app.auth,
		Metrics:         app.metrics,
		Gatherer:        app.registry,
		LoginRateLimit:  100,
		Logger:          logger,
	})
	return app
}

func (a *testApp) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.RemoteAddr = "192.0.2.10:4711"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// login performs a login and returns the session cookie.
func (a *testApp) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/auth/login", map[string]string{"username": username, "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
