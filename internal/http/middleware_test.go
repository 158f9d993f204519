package httpx

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	apperrors "github.com/consentforms/consentforms/internal/errors"
)

func TestGatekeeper_Decisions(t *testing.T) {
	tests := []struct {
		name         string
		login        string
		setupMode    bool
		loadErr      error
		path         string
		wantStatus   int
		wantDecision string
	}{
		{name: "no session", path: "/api/me", wantStatus: http.StatusUnauthorized, wantDecision: DecisionUnauthenticated},
		{name: "reader reads", login: "reader", path: "/api/me", wantStatus: http.StatusOK, wantDecision: DecisionAllowed},
		{
			name: "reader on admin route", login: "reader", path: "/api/admin/directory-config",
			wantStatus: http.StatusForbidden, wantDecision: DecisionForbidden,
		},
		{
			name: "admin on admin route", login: "admin", path: "/api/admin/directory-config",
			wantStatus: http.StatusOK, wantDecision: DecisionAllowed,
		},
		{
			name: "setup mode bypass", setupMode: true, path: "/api/admin/directory-config",
			wantStatus: http.StatusOK, wantDecision: DecisionSetupBypass,
		},
		{
			name: "store unreadable", loadErr: apperrors.Configuration("malformed"), path: "/api/me",
			wantStatus: http.StatusServiceUnavailable, wantDecision: DecisionUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := configuredDirectory()
			if tt.setupMode {
				cfg.GroupDNs.Full = ""
			}
			app := newTestApp(t, cfg)

			var cookies []*http.Cookie
			if tt.login != "" {
				cookies = append(cookies, app.login(t, tt.login))
			}
			app.config.LoadErr = tt.loadErr

			rec := app.do(t, http.MethodGet, tt.path, nil, cookies...)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.InDelta(t, 1, testutil.ToFloat64(app.metrics.GatekeeperOutcomes.WithLabelValues(tt.wantDecision)), 0)
		})
	}
}

func TestGatekeeper_SetupIdentity(t *testing.T) {
	cfg := configuredDirectory()
	cfg.GroupDNs.Full = domainauth.PlaceholderFullGroupDN
	app := newTestApp(t, cfg)

	rec := app.do(t, http.MethodGet, "/api/me", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["setupMode"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "setup", user["username"])
	assert.Equal(t, []any{"read", "change", "full"}, user["roles"])
}

func TestGatekeeper_LeavingSetupModeTakesEffectImmediately(t *testing.T) {
	cfg := configuredDirectory()
	cfg.GroupDNs.Full = ""
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/api/me", nil).Code)

	app.config.Set(configuredDirectory())
	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/api/me", nil).Code)
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "boom")
}

func TestLogging_SetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
