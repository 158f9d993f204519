package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/consentforms/consentforms/internal/errors"
)

// StatusForError maps an application error to an HTTP status code.
func StatusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeInvalidCredentials, apperrors.ErrCodeAmbiguousOrNotFound:
		return http.StatusUnauthorized
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeDirectoryUnavailable, apperrors.ErrCodeInvalidServiceCredentials:
		return http.StatusBadGateway
	case apperrors.ErrCodeConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RenderError writes err as a JSON error. Server-side failures are logged and
// their detail is withheld from the response.
func RenderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusForError(err)
	code := string(apperrors.GetCode(err))
	if code == "" {
		code = string(apperrors.ErrCodeInternal)
	}

	if status >= http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err)
		if status == http.StatusInternalServerError {
			err = errors.New(http.StatusText(status))
		}
	}

	WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: err, Field: apperrors.GetField(err)})
}
