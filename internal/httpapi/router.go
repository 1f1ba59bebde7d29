package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires every route onto a chi router behind the middleware chain
// RequestID, Recover, AccessLog, Cors.
func NewRouter(d Deps) chi.Router {
	log := d.logger()
	n := notifier{hub: d.Hub, log: log}
	pageSize := 0
	if d.Live != nil {
		pageSize = d.Live.Get().Views.PageSize
	}
	if pageSize <= 0 {
		pageSize = 25
	}

	r := chi.NewRouter()
	r.Use(RequestID, Recover(log), AccessLog(log.Named("http")), Cors)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed on "+r.URL.Path)
	})

	hh := HealthHandler{Leads: d.Leads, Runs: d.Runs, Exports: d.Exports}
	r.Get("/health", hh.Health)
	r.Get("/overview", hh.Overview)

	// Leads
	lh := LeadsHandler{Leads: d.Leads, PageSize: pageSize, n: n}
	r.Route("/leads", func(r chi.Router) {
		r.Get("/", lh.List)
		r.Post("/", lh.Create)
		r.Get("/facets", lh.Facets)
		r.Post("/bulk", lh.Bulk)
		r.Get("/{id}", lh.Get)
		r.Patch("/{id}", lh.Update)
		r.Delete("/{id}", lh.Delete)
	})

	// Runs
	rh := RunsHandler{Runs: d.Runs, Leads: d.Leads, Captures: d.Captures, Live: d.Live, PageSize: pageSize, n: n}
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", rh.List)
		r.Post("/", rh.Create)
		r.Post("/preview", rh.Preview)
		r.Get("/{id}", rh.Get)
		r.Patch("/{id}", rh.Update)
		r.Delete("/{id}", rh.Delete)
		r.Post("/{id}/duplicate", rh.Duplicate)
		r.Get("/{id}/results", rh.Results)
	})

	// Capture wizard
	ch := CapturesHandler{Wizard: d.Captures, n: n}
	r.Route("/captures", func(r chi.Router) {
		r.Post("/", ch.Start)
		r.Get("/{id}", ch.Get)
		r.Delete("/{id}", ch.Discard)
		r.Post("/{id}/source", ch.Source)
		r.Post("/{id}/criteria", ch.Criteria)
		r.Post("/{id}/preview", ch.Preview)
		r.Post("/{id}/selection", ch.Selection)
		r.Post("/{id}/confirm", ch.Confirm)
		r.Post("/{id}/save", ch.Save)
		r.Post("/{id}/step", ch.Step)
	})

	// View sessions
	vh := ViewsHandler{Views: d.Views, n: n}
	r.Route("/views", func(r chi.Router) {
		r.Post("/", vh.Open)
		r.Get("/{id}", vh.Get)
		r.Delete("/{id}", vh.Close)
		r.Post("/{id}/reload", vh.Reload)
		r.Patch("/{id}/filter", vh.SetFilter)
		r.Delete("/{id}/filter", vh.ResetFilter)
		r.Post("/{id}/presets/{name}", vh.ApplyPreset)
		r.Put("/{id}/sort", vh.SetSort)
		r.Put("/{id}/page", vh.SetPage)
		r.Post("/{id}/select/{leadID}", vh.ToggleSelect)
		r.Post("/{id}/select-all", vh.SelectAll)
		r.Post("/{id}/toggle-all", vh.ToggleAll)
		r.Delete("/{id}/selection", vh.ClearSelection)
		r.Post("/{id}/bulk-tag", vh.BulkTag)
	})

	// Exports
	eh := ExportsHandler{Exports: d.Exports, n: n}
	r.Route("/exports", func(r chi.Router) {
		r.Get("/", eh.List)
		r.Post("/", eh.Create)
		r.Get("/{id}", eh.Get)
		r.Delete("/{id}", eh.Delete)
		r.Post("/{id}/retry", eh.Retry)
	})

	ih := IntegrationsHandler{Integrations: d.Integrations, n: n}
	r.Get("/integrations", ih.List)
	r.Post("/integrations/{name}/connect", ih.Connect)
	r.Delete("/integrations/{name}", ih.Disconnect)

	sh := SettingsHandler{Settings: d.Settings, n: n}
	r.Get("/settings", sh.Get)
	r.Put("/settings", sh.Put)

	helpH := HelpHandler{Content: d.Help}
	r.Get("/help", helpH.Get)
	r.Get("/help/search", helpH.Search)

	// Config
	cfgH := ConfigHandler{Live: d.Live, UserCfgPath: d.UserCfgPath, LoadCfg: d.LoadCfg, n: n}
	r.Get("/config", cfgH.Get)
	r.Put("/config", cfgH.Put)
	r.Get("/config/path", cfgH.Path)
	r.Get("/config/validate", cfgH.Validate)

	// SSE events
	evH := EventsHandler{Hub: d.Hub}
	r.Get("/events", evH.ServeSSE)

	if d.Shutdown != nil && d.ShutdownToken != "" {
		sdH := ShutdownHandler{Token: d.ShutdownToken, Shutdown: d.Shutdown, Log: log}
		r.Post("/shutdown", sdH.Handle)
	}

	return r
}
