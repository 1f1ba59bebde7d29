package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/events"
	"siftin-engine/internal/query"
	"siftin-engine/internal/view"
)

// ViewsHandler exposes server-side lead table sessions. Each one keeps its
// own filter, sort, page and selection between requests.
type ViewsHandler struct {
	Views *view.Registry
	n     notifier
}

type viewReply struct {
	ID   string    `json:"id"`
	View view.View `json:"view"`
}

func (h ViewsHandler) controller(w http.ResponseWriter, r *http.Request) (*view.Controller, bool) {
	c, err := h.Views.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return nil, false
	}
	return c, true
}

func (h ViewsHandler) snapshot(w http.ResponseWriter, r *http.Request, c *view.Controller) {
	WriteJSON(w, http.StatusOK, viewReply{ID: chi.URLParam(r, "id"), View: c.Snapshot()})
}

// Open creates a view and loads it. A failed load still returns the view,
// in the failed state, so the client can offer a retry.
func (h ViewsHandler) Open(w http.ResponseWriter, r *http.Request) {
	id, c := h.Views.Open()
	if err := c.Load(r.Context()); err != nil && !errors.Is(err, view.ErrStale) {
		h.n.fail(w, r, "Failed to load leads", err)
		return
	}
	WriteJSON(w, http.StatusCreated, viewReply{ID: id, View: c.Snapshot()})
}

func (h ViewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if c, ok := h.controller(w, r); ok {
		h.snapshot(w, r, c)
	}
}

func (h ViewsHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Views.Close(id); err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (h ViewsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.Retry(r.Context()); err != nil {
		h.n.fail(w, r, "Failed to load leads", err)
		return
	}
	h.snapshot(w, r, c)
}

func (h ViewsHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	var p query.FilterPatch
	if err := decodeJSON(r, &p); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := c.SetFilter(p); err != nil {
		writeErr(w, r, err)
		return
	}
	h.snapshot(w, r, c)
}

func (h ViewsHandler) ResetFilter(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	c.ResetFilter()
	h.snapshot(w, r, c)
}

func (h ViewsHandler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	if err := c.ApplyPreset(chi.URLParam(r, "name")); err != nil {
		writeErr(w, r, err)
		return
	}
	h.snapshot(w, r, c)
}

func (h ViewsHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req struct {
		Sort string `json:"sort"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	mode, err := query.ParseSortMode(req.Sort)
	if err == nil {
		err = c.SetSort(mode)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.snapshot(w, r, c)
}

func (h ViewsHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req struct {
		Page int `json:"page"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	c.SetPage(req.Page)
	h.snapshot(w, r, c)
}

func (h ViewsHandler) ToggleSelect(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	leadID, err := strconv.ParseInt(chi.URLParam(r, "leadID"), 10, 64)
	if err != nil {
		writeErr(w, r, domain.Invalidf("invalid leadID"))
		return
	}
	if _, err := c.ToggleSelect(leadID); err != nil {
		writeErr(w, r, err)
		return
	}
	h.snapshot(w, r, c)
}

func (h ViewsHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	if c, ok := h.controller(w, r); ok {
		c.SelectAll()
		h.snapshot(w, r, c)
	}
}

func (h ViewsHandler) ToggleAll(w http.ResponseWriter, r *http.Request) {
	if c, ok := h.controller(w, r); ok {
		c.ToggleSelectAll()
		h.snapshot(w, r, c)
	}
}

func (h ViewsHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	if c, ok := h.controller(w, r); ok {
		c.ClearSelection()
		h.snapshot(w, r, c)
	}
}

type bulkTagRequest struct {
	IDs []int64 `json:"ids"`
	Tag string  `json:"tag"`
}

func (h ViewsHandler) BulkTag(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req bulkTagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	n, err := c.BulkTag(r.Context(), req.IDs, req.Tag)
	if err != nil {
		h.n.fail(w, r, "Failed to add tag", err)
		return
	}
	h.n.emit(r, events.TypeLeadsChanged, map[string]any{"tag": req.Tag, "count": n})
	h.n.ok(r, "Tagged "+strconv.Itoa(n)+" leads with "+req.Tag)
	h.snapshot(w, r, c)
}
