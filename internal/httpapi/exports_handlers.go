package httpapi

import (
	"net/http"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/exports"
)

type ExportsHandler struct {
	Exports *exports.Service
	n       notifier
}

func (h ExportsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Exports.List(r.Context())
	if err != nil {
		h.n.fail(w, r, "Failed to load exports", err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (h ExportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	e, err := h.Exports.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, e)
}

type exportCreateRequest struct {
	Destination domain.Destination `json:"destination"`
	RecordCount int                `json:"record_count"`
	MappingName string             `json:"mapping_name"`
}

func (h ExportsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req exportCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	e, err := h.Exports.Create(r.Context(), domain.Export{
		Destination: req.Destination,
		RecordCount: req.RecordCount,
		MappingName: req.MappingName,
	})
	if err != nil {
		h.n.fail(w, r, "Failed to create export", err)
		return
	}
	h.n.ok(r, "Export queued")
	WriteJSON(w, http.StatusCreated, e)
}

func (h ExportsHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	e, err := h.Exports.Retry(r.Context(), id)
	if err != nil {
		h.n.fail(w, r, "Failed to retry export", err)
		return
	}
	h.n.ok(r, "Export retry initiated")
	WriteJSON(w, http.StatusOK, e)
}

func (h ExportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if _, err := h.Exports.Delete(r.Context(), id); err != nil {
		h.n.fail(w, r, "Failed to delete export", err)
		return
	}
	h.n.ok(r, "Export deleted")
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}
