package httpapi

import (
	"net/http"

	"siftin-engine/internal/help"
	"siftin-engine/internal/settings"
)

type SettingsHandler struct {
	Settings *settings.Store
	n        notifier
}

func (h SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"settings":        h.Settings.Get(),
		"columns":         settings.Columns,
		"export_mappings": settings.ExportMappings,
	})
}

func (h SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var in settings.Settings
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, r, err)
		return
	}
	saved, warnings, err := h.Settings.Update(in)
	if err != nil {
		h.n.fail(w, r, "Failed to save settings", err)
		return
	}
	h.n.ok(r, "Settings saved successfully!")
	WriteJSON(w, http.StatusOK, map[string]any{"settings": saved, "warnings": warnings})
}

type HelpHandler struct {
	Content help.Content
}

func (h HelpHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Content)
}

func (h HelpHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	WriteJSON(w, http.StatusOK, map[string]any{"query": q, "faqs": h.Content.Search(q)})
}
