package httpapi

import (
	"net/http"
	"strconv"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/events"
	"siftin-engine/internal/query"
	"siftin-engine/internal/store"
)

type LeadsHandler struct {
	Leads    *store.Leads
	PageSize int
	n        notifier
}

// List is the stateless form of the lead table: every call filters, sorts
// and pages the whole collection from the query string.
func (h LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := query.ParseRequest(r.URL.Query(), h.PageSize)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var all []domain.Lead
	if req.Filter.Search != "" {
		all, err = h.Leads.Search(r.Context(), query.Predicate(req.Filter))
	} else {
		all, err = h.Leads.GetAll(r.Context())
	}
	if err != nil {
		h.n.fail(w, r, "Failed to load leads", err)
		return
	}
	WriteJSON(w, http.StatusOK, query.Run(all, req))
}

func (h LeadsHandler) Facets(w http.ResponseWriter, r *http.Request) {
	f, err := h.Leads.Facets(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"facets":        f,
		"saved_views":   query.SavedViews(),
		"quick_filters": query.QuickFilters(),
		"sort_modes":    query.SortModes,
	})
}

func (h LeadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	l, err := h.Leads.GetByID(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

func (h LeadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.Lead
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	l, err := h.Leads.Create(r.Context(), in)
	if err != nil {
		h.n.fail(w, r, "Failed to create lead", err)
		return
	}
	h.n.emit(r, events.TypeLeadsChanged, map[string]any{"ids": []int64{l.ID}})
	h.n.ok(r, "Lead created")
	WriteJSON(w, http.StatusCreated, l)
}

func (h LeadsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var p domain.LeadPatch
	if err := decodeJSON(r, &p); err != nil {
		writeErr(w, r, err)
		return
	}
	l, err := h.Leads.Update(r.Context(), id, p)
	if err != nil {
		h.n.fail(w, r, "Failed to update lead", err)
		return
	}
	h.n.emit(r, events.TypeLeadsChanged, map[string]any{"ids": []int64{l.ID}})
	h.n.ok(r, "Lead updated")
	WriteJSON(w, http.StatusOK, l)
}

func (h LeadsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if _, err := h.Leads.Delete(r.Context(), id); err != nil {
		h.n.fail(w, r, "Failed to delete lead", err)
		return
	}
	h.n.emit(r, events.TypeLeadsChanged, map[string]any{"ids": []int64{id}})
	h.n.ok(r, "Lead deleted")
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

type bulkRequest struct {
	IDs   []int64          `json:"ids"`
	Patch domain.LeadPatch `json:"patch"`
}

func (h LeadsHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		writeErr(w, r, domain.Invalidf("ids is required"))
		return
	}
	updated, err := h.Leads.BulkUpdate(r.Context(), req.IDs, req.Patch)
	if err != nil {
		h.n.fail(w, r, "Failed to update leads", err)
		return
	}
	ids := make([]int64, 0, len(updated))
	for _, l := range updated {
		ids = append(ids, l.ID)
	}
	h.n.emit(r, events.TypeLeadsChanged, map[string]any{"ids": ids})
	h.n.ok(r, "Updated "+strconv.Itoa(len(updated))+" leads")
	WriteJSON(w, http.StatusOK, map[string]any{"updated": updated, "count": len(updated)})
}
