package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/view"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// errorStatus maps a service error onto its HTTP status and envelope code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, view.ErrStale):
		return http.StatusConflict, "stale"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// errorMessage strips the sentinel prefix so clients see only the detail.
func errorMessage(err error) string {
	msg := err.Error()
	for _, s := range []error{domain.ErrInvalid, domain.ErrConflict} {
		msg = strings.TrimPrefix(msg, s.Error()+": ")
	}
	return msg
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	msg := errorMessage(err)
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	WriteError(w, r, status, code, msg)
}
