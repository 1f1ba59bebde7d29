package domain

import "time"

type RunStatus string

const (
	RunDraft     RunStatus = "Draft"
	RunQueued    RunStatus = "Queued"
	RunRunning   RunStatus = "Running"
	RunCompleted RunStatus = "Completed"
	RunFailed    RunStatus = "Failed"
)

func (s RunStatus) Valid() bool {
	switch s {
	case RunDraft, RunQueued, RunRunning, RunCompleted, RunFailed:
		return true
	}
	return false
}

// Run is a saved capture session. SelectedCount <= FoundCount by convention only.
type Run struct {
	ID            int64     `json:"id" yaml:"id"`
	Label         string    `json:"label" yaml:"label"`
	SourceURL     string    `json:"source_url" yaml:"source_url"`
	CriteriaText  string    `json:"criteria_text" yaml:"criteria_text"`
	FoundCount    int       `json:"found_count" yaml:"found_count"`
	SelectedCount int       `json:"selected_count" yaml:"selected_count"`
	Status        RunStatus `json:"status" yaml:"status"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	CreatedBy     string    `json:"created_by" yaml:"created_by"`
}

func (r Run) Validate() error {
	if !r.Status.Valid() {
		return Invalidf("status %q is not a run status", r.Status)
	}
	if r.FoundCount < 0 || r.SelectedCount < 0 {
		return Invalidf("counts must be >= 0")
	}
	return nil
}

// Duplicate copies r into a fresh Draft with zeroed counts. ID and CreatedAt are left to the store.
func (r Run) Duplicate() Run {
	r.ID = 0
	r.Label = r.Label + " (Copy)"
	r.Status = RunDraft
	r.FoundCount = 0
	r.SelectedCount = 0
	r.CreatedAt = time.Time{}
	return r
}

type RunPatch struct {
	Label         *string    `json:"label,omitempty"`
	SourceURL     *string    `json:"source_url,omitempty"`
	CriteriaText  *string    `json:"criteria_text,omitempty"`
	FoundCount    *int       `json:"found_count,omitempty"`
	SelectedCount *int       `json:"selected_count,omitempty"`
	Status        *RunStatus `json:"status,omitempty"`
	CreatedBy     *string    `json:"created_by,omitempty"`
}

func (p RunPatch) Apply(r Run) Run {
	if p.Label != nil {
		r.Label = *p.Label
	}
	if p.SourceURL != nil {
		r.SourceURL = *p.SourceURL
	}
	if p.CriteriaText != nil {
		r.CriteriaText = *p.CriteriaText
	}
	if p.FoundCount != nil {
		r.FoundCount = *p.FoundCount
	}
	if p.SelectedCount != nil {
		r.SelectedCount = *p.SelectedCount
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.CreatedBy != nil {
		r.CreatedBy = *p.CreatedBy
	}
	return r
}
