package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"siftin-engine/internal/integrations"
)

type IntegrationsHandler struct {
	Integrations *integrations.Service
	n            notifier
}

func (h IntegrationsHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Integrations.List())
}

func (h IntegrationsHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	c, err := h.Integrations.Connect(chi.URLParam(r, "name"), req.APIKey)
	if err != nil {
		h.n.fail(w, r, "Failed to connect integration", err)
		return
	}
	h.n.ok(r, c.Name+" connected")
	WriteJSON(w, http.StatusOK, c)
}

func (h IntegrationsHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	c, err := h.Integrations.Disconnect(chi.URLParam(r, "name"))
	if err != nil {
		h.n.fail(w, r, "Failed to disconnect integration", err)
		return
	}
	h.n.ok(r, c.Name+" disconnected")
	WriteJSON(w, http.StatusOK, c)
}
