package httpx

import (
	"context"
	"log/slog"
	"net/http"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	"github.com/consentforms/consentforms/internal/service"
)

// DirectoryConfigServiceInterface defines the admin configuration operations.
type DirectoryConfigServiceInterface interface {
	Get(ctx context.Context) (service.DirectoryConfigView, error)
	Update(ctx context.Context, req service.UpdateDirectoryConfigRequest) (service.DirectoryConfigView, error)
}

// ConnectionTester runs the directory connection diagnostic.
type ConnectionTester interface {
	TestConnection(ctx context.Context) domainauth.ConnectionTestResult
}

// DirectoryConfigHandlers serves the administrator configuration API.
type DirectoryConfigHandlers struct {
	Svc    DirectoryConfigServiceInterface
	Tester ConnectionTester
	Logger *slog.Logger
}

// Get returns the configuration without the bind password.
// GET /api/admin/directory-config.
func (h *DirectoryConfigHandlers) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.Svc.Get(r.Context())
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// Update replaces the configuration.
// PUT /api/admin/directory-config.
func (h *DirectoryConfigHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateDirectoryConfigRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	view, err := h.Svc.Update(r.Context(), req)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// Test connects and binds with the stored configuration.
// POST /api/admin/directory-config/test.
func (h *DirectoryConfigHandlers) Test(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Tester.TestConnection(r.Context()))
}
