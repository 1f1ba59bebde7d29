package httpapi

import (
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/exports"
	"siftin-engine/internal/store"
)

type HealthHandler struct {
	Leads   *store.Leads
	Runs    *store.Runs
	Exports *exports.Service
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

type Overview struct {
	Leads          int                         `json:"leads"`
	HighMatchLeads int                         `json:"high_match_leads"`
	Runs           int                         `json:"runs"`
	RunsByStatus   map[domain.RunStatus]int    `json:"runs_by_status"`
	Exports        int                         `json:"exports"`
	ExportsByState map[domain.ExportStatus]int `json:"exports_by_status"`
}

// Overview loads the three collections concurrently and summarises them.
func (h HealthHandler) Overview(w http.ResponseWriter, r *http.Request) {
	var (
		leads []domain.Lead
		runs  []domain.Run
		exps  []domain.Export
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		leads, err = h.Leads.GetAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		runs, err = h.Runs.GetAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		exps, err = h.Exports.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeErr(w, r, err)
		return
	}

	out := Overview{
		Leads:          len(leads),
		Runs:           len(runs),
		RunsByStatus:   map[domain.RunStatus]int{},
		Exports:        len(exps),
		ExportsByState: map[domain.ExportStatus]int{},
	}
	for _, l := range leads {
		if l.MatchScore >= 80 {
			out.HighMatchLeads++
		}
	}
	for _, run := range runs {
		out.RunsByStatus[run.Status]++
	}
	for _, e := range exps {
		out.ExportsByState[e.Status]++
	}
	WriteJSON(w, http.StatusOK, out)
}
