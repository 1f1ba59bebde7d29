package httpapi

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"siftin-engine/internal/capture"
	"siftin-engine/internal/config"
	"siftin-engine/internal/domain"
	"siftin-engine/internal/events"
	"siftin-engine/internal/query"
	"siftin-engine/internal/store"
)

type RunsHandler struct {
	Runs     *store.Runs
	Leads    *store.Leads
	Captures *capture.Wizard
	Live     *config.Live
	PageSize int
	n        notifier
}

// sampleSize is how many leads a run detail shows: found_count, or 5 when
// the run has found nothing yet.
func sampleSize(r domain.Run) int {
	if r.FoundCount > 0 {
		return r.FoundCount
	}
	return 5
}

func (h RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Runs.GetAll(r.Context())
	if err != nil {
		h.n.fail(w, r, "Failed to load runs", err)
		return
	}
	WriteJSON(w, http.StatusOK, runs)
}

type RunDetail struct {
	Run         domain.Run    `json:"run"`
	SampleLeads []domain.Lead `json:"sample_leads"`
}

// Get returns the run with its sample leads; both are fetched concurrently.
func (h RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var (
		run   domain.Run
		leads []domain.Lead
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		run, err = h.Runs.GetByID(ctx, id)
		return err
	})
	g.Go(func() (err error) {
		leads, err = h.Leads.GetAll(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, RunDetail{Run: run, SampleLeads: leads[:min(sampleSize(run), len(leads))]})
}

type runCreateRequest struct {
	Label        string `json:"label"`
	SourceURL    string `json:"source_url"`
	CriteriaText string `json:"criteria_text"`
	CreatedBy    string `json:"created_by"`
}

func (h RunsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req runCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	run := domain.Run{
		Label:        req.Label,
		SourceURL:    req.SourceURL,
		CriteriaText: domain.CleanText(req.CriteriaText),
		CreatedBy:    domain.CleanText(req.CreatedBy),
	}
	if run.SourceURL != "" {
		canon, err := capture.CanonicalSourceURL(run.SourceURL)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		run.SourceURL = canon
	}
	if run.CreatedBy == "" && h.Live != nil {
		run.CreatedBy = h.Live.Get().App.CreatedBy
	}
	created, err := h.Runs.Create(r.Context(), run)
	if err != nil {
		h.n.fail(w, r, "Failed to create run", err)
		return
	}
	h.n.emit(r, events.TypeRunsChanged, map[string]any{"id": created.ID})
	h.n.ok(r, "Run created")
	WriteJSON(w, http.StatusCreated, created)
}

func (h RunsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var p domain.RunPatch
	if err := decodeJSON(r, &p); err != nil {
		writeErr(w, r, err)
		return
	}
	run, err := h.Runs.Update(r.Context(), id, p)
	if err != nil {
		h.n.fail(w, r, "Failed to update run", err)
		return
	}
	h.n.emit(r, events.TypeRunsChanged, map[string]any{"id": id})
	h.n.ok(r, "Run updated")
	WriteJSON(w, http.StatusOK, run)
}

func (h RunsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if _, err := h.Runs.Delete(r.Context(), id); err != nil {
		h.n.fail(w, r, "Failed to delete run", err)
		return
	}
	h.n.emit(r, events.TypeRunsChanged, map[string]any{"id": id})
	h.n.ok(r, "Run deleted")
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (h RunsHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	dup, err := h.Runs.Duplicate(r.Context(), id)
	if err != nil {
		h.n.fail(w, r, "Failed to duplicate run", err)
		return
	}
	h.n.emit(r, events.TypeRunsChanged, map[string]any{"id": dup.ID})
	h.n.ok(r, "Run duplicated")
	WriteJSON(w, http.StatusCreated, dup)
}

type Results struct {
	Run   domain.Run              `json:"run"`
	Leads query.Page[domain.Lead] `json:"leads"`
}

// Results is the post-capture results table for a run.
func (h RunsHandler) Results(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	req, err := query.ParseRequest(r.URL.Query(), h.PageSize)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var (
		run   domain.Run
		leads []domain.Lead
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		run, err = h.Runs.GetByID(ctx, id)
		return err
	})
	g.Go(func() (err error) {
		leads, err = h.Leads.GetAll(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, Results{Run: run, Leads: query.Run(leads, req)})
}

type previewRequest struct {
	Criteria string `json:"criteria"`
}

func (h RunsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	p, err := h.Captures.EstimateRun(r.Context(), req.Criteria)
	if err != nil {
		h.n.fail(w, r, "Failed to preview run", err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
