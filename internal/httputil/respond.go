package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-tenancy/pkg/domain"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Message writes a {"message": ..., key: v} response.
func Message(w http.ResponseWriter, status int, message, key string, v any) {
	JSON(w, status, map[string]any{"message": message, key: v})
}

// Decode reads a JSON request body into v. A failed read is reported as a
// validation error, or 413 when the body exceeds the configured limit.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return domain.Validation("invalid request body")
	}
	return nil
}

var errBodyTooLarge = errors.New("request body too large")

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindConflict, domain.KindInvalidState:
		return http.StatusBadRequest
	case domain.KindUnauthenticated, domain.KindPrincipalNotFound, domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound, domain.KindNotFoundEmpty:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Responder writes service errors at the HTTP boundary.
type Responder struct {
	logger *slog.Logger
	// Debug adds the underlying cause of unexpected errors to the response.
	Debug bool
}

// NewResponder creates a responder.
func NewResponder(logger *slog.Logger, debug bool) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{logger: logger, Debug: debug}
}

// WriteError maps err to a status and a caller-safe message. Causes of
// unexpected errors are logged and never returned unless Debug is set.
func (rs *Responder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		Error(w, http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
		return
	}

	kind := domain.KindOf(err)
	status := StatusFor(kind)
	if kind != domain.KindUnexpected {
		Error(w, status, domain.MessageOf(err))
		return
	}

	rs.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	body := map[string]string{"error": "internal server error"}
	if rs.Debug {
		body["detail"] = err.Error()
	}
	JSON(w, status, body)
}
