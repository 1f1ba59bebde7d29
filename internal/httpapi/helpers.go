package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/events"
)

const maxBody = 1 << 20

// decodeJSON reads a single JSON value; unknown fields are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalidf("request body is empty")
		}
		return domain.Invalidf("invalid JSON: %v", err)
	}
	if dec.More() {
		return domain.Invalidf("invalid JSON: trailing data")
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalidf("invalid %s", name)
	}
	return id, nil
}

// notifier turns handler outcomes into notice events, the server-side
// equivalent of the UI's toasts.
type notifier struct {
	hub *events.Hub
	log *zap.Logger
}

func (n notifier) ok(r *http.Request, msg string) {
	if n.hub != nil {
		n.hub.Notify(RequestIDFrom(r.Context()), events.LevelSuccess, msg)
	}
}

func (n notifier) emit(r *http.Request, typ string, data any) {
	if n.hub != nil {
		n.hub.Emit(RequestIDFrom(r.Context()), typ, data)
	}
}

// fail writes the error response and publishes an error notice with msg.
func (n notifier) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if status, _ := errorStatus(err); status >= 500 {
		n.log.Error(msg, zap.String("request_id", RequestIDFrom(r.Context())), zap.Error(err))
	}
	if n.hub != nil {
		n.hub.Notify(RequestIDFrom(r.Context()), events.LevelError, msg)
	}
	writeErr(w, r, err)
}
