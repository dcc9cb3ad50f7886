package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"aqiadvisor/internal/app"
	"aqiadvisor/internal/domain"
)

const (
	msgUsernameRequired   = "Username is required"
	msgAllFieldsRequired  = "All fields are required"
	msgLoginRequired      = "Username and password required"
	msgMonthRequired      = "Month parameter is required"
	msgUserExists         = "Username already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgUserNotFound       = "User not found"
	msgInvalidMonth       = "Invalid month index (1-12)"
	msgDatasetUnavailable = "Dataset not loaded or empty"
	msgRenderFailed       = "Failed to generate visualizations"
	msgInternal           = "Internal server error"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// parseJSON decodes the body into dst and checks its validate tags.
func parseJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return validate.Struct(dst)
}

// statusFor maps service errors to a status code and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidMonth):
		return http.StatusBadRequest, msgInvalidMonth
	case errors.Is(err, app.ErrUserNotFound):
		return http.StatusUnauthorized, msgUserNotFound
	case errors.Is(err, app.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, app.ErrUserExists):
		return http.StatusBadRequest, msgUserExists
	case errors.Is(err, app.ErrMissingFields):
		return http.StatusBadRequest, msgAllFieldsRequired
	case errors.Is(err, domain.ErrDatasetUnavailable):
		return http.StatusServiceUnavailable, msgDatasetUnavailable
	case errors.Is(err, app.ErrRendererUnavailable):
		return http.StatusInternalServerError, msgRenderFailed
	}
	return http.StatusInternalServerError, msgInternal
}

// fail writes the mapped error response. Causes of server errors are logged
// and never sent to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, msg)
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
