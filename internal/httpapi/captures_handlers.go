package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"siftin-engine/internal/capture"
	"siftin-engine/internal/domain"
	"siftin-engine/internal/events"
)

type CapturesHandler struct {
	Wizard *capture.Wizard
	n      notifier
}

type captureStarted struct {
	Session       capture.Session `json:"session"`
	QuickCriteria []string        `json:"quick_criteria"`
}

func (h CapturesHandler) Start(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusCreated, captureStarted{
		Session:       h.Wizard.Start(),
		QuickCriteria: capture.QuickCriteria(),
	})
}

func (h CapturesHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Wizard.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, s)
}

func (h CapturesHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Wizard.Discard(id); err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

// reply writes the session, or the error with an error notice.
func (h CapturesHandler) reply(w http.ResponseWriter, r *http.Request, s capture.Session, err error, failMsg string) {
	if err != nil {
		h.n.fail(w, r, failMsg, err)
		return
	}
	WriteJSON(w, http.StatusOK, s)
}

func (h CapturesHandler) Source(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	s, err := h.Wizard.SetSource(r.Context(), chi.URLParam(r, "id"), req.URL)
	if err == nil {
		h.n.emit(r, events.TypeRunsChanged, map[string]any{"id": s.RunID})
	}
	h.reply(w, r, s, err, "Please enter a valid LinkedIn search URL")
}

func (h CapturesHandler) Criteria(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	s, err := h.Wizard.SetCriteria(r.Context(), chi.URLParam(r, "id"), req.Text)
	h.reply(w, r, s, err, "Please enter your criteria first")
}

func (h CapturesHandler) Preview(w http.ResponseWriter, r *http.Request) {
	s, err := h.Wizard.Preview(r.Context(), chi.URLParam(r, "id"))
	if err == nil {
		h.n.emit(r, events.TypeRunsChanged, map[string]any{"id": s.RunID})
	}
	h.reply(w, r, s, err, "Failed to generate preview")
}

type selectionRequest struct {
	// Action is one of set, toggle, all, none.
	Action string  `json:"action"`
	IDs    []int64 `json:"ids"`
	LeadID int64   `json:"lead_id"`
}

func (h CapturesHandler) Selection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	var (
		s   capture.Session
		err error
	)
	switch req.Action {
	case "set", "":
		s, err = h.Wizard.Select(id, req.IDs)
	case "toggle":
		s, err = h.Wizard.Toggle(id, req.LeadID)
	case "all":
		s, err = h.Wizard.SelectAll(id)
	case "none":
		s, err = h.Wizard.DeselectAll(id)
	default:
		err = domain.Invalidf("action must be set, toggle, all or none")
	}
	h.reply(w, r, s, err, "Failed to update selection")
}

func (h CapturesHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	s, err := h.Wizard.ConfirmSelection(chi.URLParam(r, "id"))
	h.reply(w, r, s, err, "Please select at least one lead")
}

func (h CapturesHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req capture.SaveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	s, err := h.Wizard.Save(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.n.fail(w, r, "Failed to save run", err)
		return
	}
	h.n.emit(r, events.TypeRunsChanged, map[string]any{"id": s.RunID})
	h.n.emit(r, events.TypeLeadsChanged, map[string]any{"ids": s.Selected})
	h.n.ok(r, "Run saved successfully!")
	WriteJSON(w, http.StatusOK, s)
}

func (h CapturesHandler) Step(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step capture.Step `json:"step"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	s, err := h.Wizard.GoTo(chi.URLParam(r, "id"), req.Step)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, s)
}
