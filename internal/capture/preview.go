package capture

import (
	"context"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/rank"
)

// RunPreview is the quick estimate shown before a run is saved.
type RunPreview struct {
	FoundCount     int           `json:"found_count"`
	PreviewResults []rank.Result `json:"preview_results"`
}

// EstimateRun guesses how many leads the criteria would find (50..149) and
// scores a handful of sample leads against it.
func (w *Wizard) EstimateRun(ctx context.Context, criteria string) (RunPreview, error) {
	criteria = domain.CleanText(criteria)
	if criteria == "" {
		return RunPreview{}, domain.Invalidf("Please enter your criteria first")
	}
	if err := sleep(ctx, w.opts.PreviewDelay); err != nil {
		return RunPreview{}, err
	}
	all, err := w.leads.GetAll(ctx)
	if err != nil {
		return RunPreview{}, err
	}

	w.rngMu.Lock()
	found := 50 + w.rng.Intn(100)
	n := 3 + w.rng.Intn(5)
	w.rngMu.Unlock()

	out := RunPreview{FoundCount: found, PreviewResults: []rank.Result{}}
	for _, l := range all[:min(n, 5, len(all))] {
		out.PreviewResults = append(out.PreviewResults, w.scorer.Score(l, criteria))
	}
	return out, nil
}
