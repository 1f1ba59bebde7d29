package store

import (
	"context"

	"siftin-engine/internal/domain"
)

var RunKind = Kind[domain.Run]{
	Name: "Run",
	ID:   func(r domain.Run) int64 { return r.ID },
}

type Runs struct {
	base
	t Table[domain.Run]
}

func NewRuns(t Table[domain.Run], opts ...Option) *Runs {
	return &Runs{base: newBase(opts), t: t}
}

func (s *Runs) GetAll(ctx context.Context) ([]domain.Run, error) {
	if err := wait(ctx, s.lat.GetAll); err != nil {
		return nil, err
	}
	return s.t.List(ctx)
}

func (s *Runs) GetByID(ctx context.Context, id int64) (domain.Run, error) {
	if err := wait(ctx, s.lat.GetByID); err != nil {
		return domain.Run{}, err
	}
	return s.t.Get(ctx, id)
}

// Create always starts a run as an empty Draft, whatever status or counts r carries.
func (s *Runs) Create(ctx context.Context, r domain.Run) (domain.Run, error) {
	if err := wait(ctx, s.lat.Create); err != nil {
		return domain.Run{}, err
	}
	r.Status = domain.RunDraft
	r.FoundCount = 0
	r.SelectedCount = 0
	r.Label = domain.CleanText(r.Label)
	return s.t.Insert(ctx, func(id int64) (domain.Run, error) {
		r.ID = id
		r.CreatedAt = s.now()
		return r, nil
	})
}

func (s *Runs) Update(ctx context.Context, id int64, p domain.RunPatch) (domain.Run, error) {
	if err := wait(ctx, s.lat.Update); err != nil {
		return domain.Run{}, err
	}
	return s.t.Update(ctx, id, func(cur domain.Run) (domain.Run, error) {
		next := p.Apply(cur)
		if err := next.Validate(); err != nil {
			return domain.Run{}, err
		}
		return next, nil
	})
}

func (s *Runs) Delete(ctx context.Context, id int64) (domain.Run, error) {
	if err := wait(ctx, s.lat.Delete); err != nil {
		return domain.Run{}, err
	}
	return s.t.Delete(ctx, id)
}

func (s *Runs) Duplicate(ctx context.Context, id int64) (domain.Run, error) {
	if err := wait(ctx, s.lat.Duplicate); err != nil {
		return domain.Run{}, err
	}
	orig, err := s.t.Get(ctx, id)
	if err != nil {
		return domain.Run{}, err
	}
	dup := orig.Duplicate()
	return s.t.Insert(ctx, func(id int64) (domain.Run, error) {
		dup.ID = id
		dup.CreatedAt = s.now()
		return dup, nil
	})
}

func (s *Runs) Seed(ctx context.Context, runs []domain.Run) error {
	return s.t.Reset(ctx, runs)
}
