package httpapi

import (
	"net/http"
	"path/filepath"

	"siftin-engine/internal/config"
	"siftin-engine/internal/events"
)

type ConfigHandler struct {
	Live        *config.Live
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
	n           notifier
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Live.Get())
}

func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var incoming config.Config
	if err := decodeJSON(r, &incoming); err != nil {
		writeErr(w, r, err)
		return
	}

	_, vr, err := config.SaveAtomic(h.UserCfgPath, incoming)
	if !vr.OK() {
		// structured errors so the UI can show them next to the fields
		WriteJSON(w, http.StatusBadRequest, vr)
		return
	}
	if err != nil {
		h.n.fail(w, r, "Failed to save config", err)
		return
	}

	saved, err := h.LoadCfg()
	if err != nil {
		h.n.fail(w, r, "Config saved but reload failed", err)
		return
	}
	saved, _ = config.NormalizeAndValidate(saved)
	h.Live.Set(saved)
	h.n.emit(r, events.TypeConfigReloaded, map[string]any{"path": h.UserCfgPath})
	h.n.ok(r, "Config saved")
	WriteJSON(w, http.StatusOK, saved)
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.UserCfgPath)
	WriteJSON(w, http.StatusOK, map[string]any{"path": abs})
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, vr := config.NormalizeAndValidate(h.Live.Get())
	WriteJSON(w, http.StatusOK, vr)
}
