package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/consentforms/consentforms/internal/domain/auth"
	"github.com/consentforms/consentforms/internal/service"
)

// SessionServiceInterface defines the session operations used by the auth handlers.
type SessionServiceInterface interface {
	Login(ctx context.Context, username, password string) (service.LoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          SessionServiceInterface
	Setup        SetupModeChecker
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	Username string            `json:"username"`
	UserDN   string            `json:"userDn,omitempty"`
	Roles    []domainauth.Role `json:"roles"`
}

func userFromSession(s *domainauth.Session) userResponse {
	return userResponse{Username: s.Username, UserDN: s.UserDN, Roles: s.RoleSet().Slice()}
}

// Login authenticates against the directory and starts a session.
// POST /auth/login {"username": "...", "password": "..."}.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "login: create session", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("could not start a session, please try again later"),
		})
		return
	}
	if !res.OK {
		WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"ok":     false,
			"reason": res.Reason,
		})
		return
	}

	h.setSessionCookie(w, r, res.Session)
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"user":      userFromSession(&res.Session),
		"expiresAt": res.Session.ExpiresAt,
	})
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), sessionCookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearCookie(w, r, SessionCookieName)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	setup, err := h.Setup.SetupMode(r.Context())
	if err != nil {
		h.logger().WarnContext(r.Context(), "status: load directory configuration", "error", err)
	}

	body := map[string]any{
		"authenticated": false,
		"setupMode":     setup,
	}

	sessionCookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		WriteJSON(w, http.StatusOK, body)
		return
	}

	session, err := h.Svc.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		// Session is invalid or expired, clear the cookie
		h.clearCookie(w, r, SessionCookieName)
		WriteJSON(w, http.StatusOK, body)
		return
	}

	body["authenticated"] = true
	body["user"] = userFromSession(session)
	body["expiresAt"] = session.ExpiresAt
	WriteJSON(w, http.StatusOK, body)
}

// SetupMode reports whether access control is bypassed.
// GET /auth/setup-mode.
func (h *AuthHandlers) SetupMode(w http.ResponseWriter, r *http.Request) {
	setup, err := h.Setup.SetupMode(r.Context())
	if err != nil {
		RenderError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"setupMode": setup})
}

// Me returns the identity attached by the gatekeeper.
// GET /api/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":      userFromSession(session),
		"setupMode": IsSetupSession(r.Context()),
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt.UTC(),
	})
}
