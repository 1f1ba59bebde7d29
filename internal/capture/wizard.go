// Package capture runs the new-capture wizard: source URL, criteria,
// scored preview, lead selection, then save with optional export.
package capture

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"siftin-engine/internal/domain"
	"siftin-engine/internal/rank"
)

type Step int

const (
	StepSource Step = iota + 1
	StepCriteria
	StepPreview
	StepSave
	StepDone
)

var stepNames = map[Step]string{
	StepSource:   "Source",
	StepCriteria: "AI Criteria",
	StepPreview:  "Preview & Select",
	StepSave:     "Save & Export",
	StepDone:     "Done",
}

func (s Step) String() string { return stepNames[s] }

var quickCriteria = []string{
	"US-based SDR managers at B2B SaaS (11–200), using HubSpot",
	"Founders in fintech, Series A–B, NYC or remote",
	"VP Sales at enterprise software companies (500+ employees)",
	"Revenue Operations leaders at high-growth SaaS companies",
}

// QuickCriteria are the one-click criteria suggestions.
func QuickCriteria() []string { return slices.Clone(quickCriteria) }

type RunStore interface {
	Create(ctx context.Context, r domain.Run) (domain.Run, error)
	Update(ctx context.Context, id int64, p domain.RunPatch) (domain.Run, error)
}

type LeadStore interface {
	GetAll(ctx context.Context) ([]domain.Lead, error)
	BulkUpdate(ctx context.Context, ids []int64, p domain.LeadPatch) ([]domain.Lead, error)
}

type ExportQueue interface {
	Create(ctx context.Context, e domain.Export) (domain.Export, error)
	Delete(ctx context.Context, id int64) (domain.Export, error)
}

// Session is the client-visible state of one wizard.
type Session struct {
	ID        string        `json:"id"`
	Step      Step          `json:"step"`
	StepName  string        `json:"step_name"`
	RunID     int64         `json:"run_id,omitempty"`
	SourceURL string        `json:"source_url"`
	Criteria  string        `json:"criteria"`
	Preview   []domain.Lead `json:"preview"`
	Selected  []int64       `json:"selected"`
	Label     string        `json:"label"`
	ExportID  int64         `json:"export_id,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (s Session) clone() Session {
	s.Preview = slices.Clone(s.Preview)
	s.Selected = slices.Clone(s.Selected)
	s.StepName = s.Step.String()
	return s
}

type Options struct {
	PreviewSize  int
	PreviewDelay time.Duration
	Seed         int64
	CreatedBy    string
	TTL          time.Duration
}

type Wizard struct {
	runs    RunStore
	leads   LeadStore
	exports ExportQueue
	scorer  rank.Scorer
	opts    Options
	log     *zap.Logger
	now     func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	mu sync.Mutex
	s  Session
}

func New(runs RunStore, leads LeadStore, exports ExportQueue, scorer rank.Scorer, opts Options, log *zap.Logger) *Wizard {
	if opts.PreviewSize <= 0 {
		opts.PreviewSize = 8
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Wizard{
		runs:     runs,
		leads:    leads,
		exports:  exports,
		scorer:   scorer,
		opts:     opts,
		log:      log.Named("capture"),
		now:      func() time.Time { return time.Now().UTC() },
		rng:      rand.New(rand.NewSource(opts.Seed)),
		sessions: map[string]*entry{},
	}
}

func (w *Wizard) Start() Session {
	s := Session{ID: uuid.NewString(), Step: StepSource, Preview: []domain.Lead{}, Selected: []int64{}, UpdatedAt: w.now()}
	w.mu.Lock()
	w.sessions[s.ID] = &entry{s: s}
	w.mu.Unlock()
	return s.clone()
}

func (w *Wizard) Get(id string) (Session, error) {
	e, err := w.entry(id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.clone(), nil
}

// Discard forgets the session. A run it already created is kept.
func (w *Wizard) Discard(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.sessions[id]; !ok {
		return sessionNotFound(id)
	}
	delete(w.sessions, id)
	return nil
}

// Sweep drops sessions untouched for longer than the TTL.
func (w *Wizard) Sweep() int {
	if w.opts.TTL <= 0 {
		return 0
	}
	cutoff := w.now().Add(-w.opts.TTL)
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for id, e := range w.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if e.s.UpdatedAt.Before(cutoff) {
			delete(w.sessions, id)
			n++
		}
		e.mu.Unlock()
	}
	return n
}

func (w *Wizard) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sessions)
}

func (w *Wizard) entry(id string) (*entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.sessions[id]
	if !ok {
		return nil, sessionNotFound(id)
	}
	return e, nil
}

// update runs fn with the session locked and stamps it on success.
func (w *Wizard) update(id string, fn func(s *Session) error) (Session, error) {
	e, err := w.entry(id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.s.clone()
	if err := fn(&next); err != nil {
		return e.s.clone(), err
	}
	next.UpdatedAt = w.now()
	e.s = next
	return next.clone(), nil
}

func wrongStep(s *Session, want string) error {
	return fmt.Errorf("%w: wizard is at step %d (%s), %s", domain.ErrConflict, s.Step, s.Step, want)
}

// SetSource validates the URL and creates the Draft run, or updates it when
// the user came back to step 1.
func (w *Wizard) SetSource(ctx context.Context, id, raw string) (Session, error) {
	src, err := CanonicalSourceURL(raw)
	if err != nil {
		return Session{}, err
	}
	return w.update(id, func(s *Session) error {
		if s.Step == StepDone {
			return wrongStep(s, "already saved")
		}
		if s.RunID == 0 {
			run, err := w.runs.Create(ctx, domain.Run{SourceURL: src, CreatedBy: w.opts.CreatedBy})
			if err != nil {
				return fmt.Errorf("create draft run: %w", err)
			}
			s.RunID = run.ID
		} else if _, err := w.runs.Update(ctx, s.RunID, domain.RunPatch{SourceURL: &src}); err != nil {
			return fmt.Errorf("update draft run: %w", err)
		}
		s.SourceURL = src
		s.Step = StepCriteria
		return nil
	})
}

func (w *Wizard) SetCriteria(ctx context.Context, id, text string) (Session, error) {
	text = domain.CleanText(text)
	if text == "" {
		return Session{}, domain.Invalidf("Please enter your criteria first")
	}
	return w.update(id, func(s *Session) error {
		if s.Step < StepCriteria || s.Step == StepDone {
			return wrongStep(s, "criteria need a source first")
		}
		if _, err := w.runs.Update(ctx, s.RunID, domain.RunPatch{CriteriaText: &text}); err != nil {
			return fmt.Errorf("save criteria: %w", err)
		}
		s.Criteria = text
		return nil
	})
}

// Preview samples leads, scores them against the criteria and moves to
// step 3. The run is Running meanwhile and Failed if the preview fails.
func (w *Wizard) Preview(ctx context.Context, id string) (Session, error) {
	return w.update(id, func(s *Session) error {
		if s.Step < StepCriteria || s.Step == StepDone {
			return wrongStep(s, "preview needs criteria")
		}
		if s.Criteria == "" {
			return domain.Invalidf("Please enter your criteria first")
		}

		running := domain.RunRunning
		if _, err := w.runs.Update(ctx, s.RunID, domain.RunPatch{Status: &running}); err != nil {
			return fmt.Errorf("start preview: %w", err)
		}

		preview, err := w.sample(ctx, s.Criteria)
		if err != nil {
			failed := domain.RunFailed
			// the preview error is what the caller needs; a failed status write only gets logged
			if _, uerr := w.runs.Update(context.WithoutCancel(ctx), s.RunID, domain.RunPatch{Status: &failed}); uerr != nil {
				w.log.Warn("mark run failed", zap.Int64("run_id", s.RunID), zap.Error(uerr))
			}
			return fmt.Errorf("generate preview: %w", err)
		}

		draft := domain.RunDraft
		found := len(preview)
		if _, err := w.runs.Update(ctx, s.RunID, domain.RunPatch{Status: &draft, FoundCount: &found}); err != nil {
			return fmt.Errorf("finish preview: %w", err)
		}
		s.Preview = preview
		s.Selected = []int64{}
		s.Step = StepPreview
		w.log.Info("preview ready", zap.String("session", s.ID), zap.Int64("run_id", s.RunID), zap.Int("found", found))
		return nil
	})
}

func (w *Wizard) sample(ctx context.Context, criteria string) ([]domain.Lead, error) {
	if err := sleep(ctx, w.opts.PreviewDelay); err != nil {
		return nil, err
	}
	all, err := w.leads.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	w.rngMu.Lock()
	w.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	w.rngMu.Unlock()

	all = all[:min(len(all), w.opts.PreviewSize)]
	for i, l := range all {
		r := w.scorer.Score(l, criteria)
		l.MatchScore = r.Score
		l.MatchReason = r.Reason
		l.Tags = domain.NormalizeTags(append(l.Tags, r.Tags...))
		all[i] = l
	}
	return all, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (w *Wizard) inPreview(s *Session) error {
	if s.Step != StepPreview {
		return wrongStep(s, "selection happens on the preview step")
	}
	return nil
}

func previewIDs(s *Session) []int64 {
	out := make([]int64, 0, len(s.Preview))
	for _, l := range s.Preview {
		out = append(out, l.ID)
	}
	return out
}

// Select replaces the selection. Every id must be in the preview.
func (w *Wizard) Select(id string, leadIDs []int64) (Session, error) {
	return w.update(id, func(s *Session) error {
		if err := w.inPreview(s); err != nil {
			return err
		}
		valid := previewIDs(s)
		sel := []int64{}
		for _, lid := range leadIDs {
			if !slices.Contains(valid, lid) {
				return domain.Invalidf("lead %d is not in the preview", lid)
			}
			if !slices.Contains(sel, lid) {
				sel = append(sel, lid)
			}
		}
		s.Selected = sel
		return nil
	})
}

func (w *Wizard) Toggle(id string, leadID int64) (Session, error) {
	return w.update(id, func(s *Session) error {
		if err := w.inPreview(s); err != nil {
			return err
		}
		if i := slices.Index(s.Selected, leadID); i >= 0 {
			s.Selected = slices.Delete(s.Selected, i, i+1)
			return nil
		}
		if !slices.Contains(previewIDs(s), leadID) {
			return domain.Invalidf("lead %d is not in the preview", leadID)
		}
		s.Selected = append(s.Selected, leadID)
		return nil
	})
}

func (w *Wizard) SelectAll(id string) (Session, error) {
	return w.update(id, func(s *Session) error {
		if err := w.inPreview(s); err != nil {
			return err
		}
		s.Selected = previewIDs(s)
		return nil
	})
}

func (w *Wizard) DeselectAll(id string) (Session, error) {
	return w.update(id, func(s *Session) error {
		if err := w.inPreview(s); err != nil {
			return err
		}
		s.Selected = []int64{}
		return nil
	})
}

// ConfirmSelection needs at least one selected lead and proposes a default label.
func (w *Wizard) ConfirmSelection(id string) (Session, error) {
	return w.update(id, func(s *Session) error {
		if err := w.inPreview(s); err != nil {
			return err
		}
		if len(s.Selected) == 0 {
			return domain.Invalidf("Please select at least one lead")
		}
		if s.Label == "" {
			s.Label = "Run – " + w.now().Format("1/2/2006 3:04:05 PM")
		}
		s.Step = StepSave
		return nil
	})
}

type SaveRequest struct {
	Label       string              `json:"label"`
	Tags        []string            `json:"tags"`
	Destination *domain.Destination `json:"destination,omitempty"`
	MappingName string              `json:"mapping_name,omitempty"`
}

// Save tags the selected leads, optionally queues an export of them and
// completes the run. On error the run stays a Draft, the session stays on the
// save step, and an export queued by this call is withdrawn.
func (w *Wizard) Save(ctx context.Context, id string, req SaveRequest) (Session, error) {
	label := domain.CleanText(req.Label)
	if label == "" {
		return Session{}, domain.Invalidf("Please enter a run label")
	}
	if req.Destination != nil && !req.Destination.Valid() {
		return Session{}, domain.Invalidf("destination %q is not supported", *req.Destination)
	}
	return w.update(id, func(s *Session) error {
		if s.Step != StepSave {
			return wrongStep(s, "save needs a confirmed selection")
		}
		found, selected := len(s.Preview), len(s.Selected)
		if tags := domain.NormalizeTags(req.Tags); len(tags) > 0 {
			if _, err := w.leads.BulkUpdate(ctx, s.Selected, domain.LeadPatch{AddTags: tags}); err != nil {
				return fmt.Errorf("tag selected leads: %w", err)
			}
		}
		var exportID int64
		if req.Destination != nil && w.exports != nil {
			e, err := w.exports.Create(ctx, domain.Export{
				Destination: *req.Destination,
				RecordCount: selected,
				MappingName: req.MappingName,
			})
			if err != nil {
				return fmt.Errorf("queue export: %w", err)
			}
			exportID = e.ID
		}
		done := domain.RunCompleted
		if _, err := w.runs.Update(ctx, s.RunID, domain.RunPatch{
			Label: &label, Status: &done, FoundCount: &found, SelectedCount: &selected,
		}); err != nil {
			if exportID != 0 {
				if _, derr := w.exports.Delete(context.WithoutCancel(ctx), exportID); derr != nil {
					w.log.Warn("withdraw export", zap.Int64("export_id", exportID), zap.Error(derr))
				}
			}
			return fmt.Errorf("save run: %w", err)
		}
		s.ExportID = exportID
		s.Label = label
		s.Step = StepDone
		w.log.Info("run saved", zap.String("session", s.ID), zap.Int64("run_id", s.RunID), zap.Int("selected", selected))
		return nil
	})
}

// GoTo moves back to an earlier step, or stays on the current one.
func (w *Wizard) GoTo(id string, step Step) (Session, error) {
	return w.update(id, func(s *Session) error {
		if s.Step == StepDone {
			return wrongStep(s, "already saved")
		}
		if step < StepSource || step > s.Step {
			return domain.Invalidf("cannot jump to step %d from step %d", step, s.Step)
		}
		s.Step = step
		return nil
	})
}

type sessionError struct{ id string }

func (e sessionError) Error() string        { return "capture session " + e.id + " not found" }
func (e sessionError) Is(target error) bool { return target == domain.ErrNotFound }

func sessionNotFound(id string) error { return sessionError{id: id} }
