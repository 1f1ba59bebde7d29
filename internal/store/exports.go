package store

import (
	"context"

	"siftin-engine/internal/domain"
)

var ExportKind = Kind[domain.Export]{
	Name: "Export",
	ID:   func(e domain.Export) int64 { return e.ID },
}

type Exports struct {
	base
	t Table[domain.Export]
}

func NewExports(t Table[domain.Export], opts ...Option) *Exports {
	return &Exports{base: newBase(opts), t: t}
}

func (s *Exports) GetAll(ctx context.Context) ([]domain.Export, error) {
	if err := wait(ctx, s.lat.GetAll); err != nil {
		return nil, err
	}
	return s.t.List(ctx)
}

func (s *Exports) GetByID(ctx context.Context, id int64) (domain.Export, error) {
	if err := wait(ctx, s.lat.GetByID); err != nil {
		return domain.Export{}, err
	}
	return s.t.Get(ctx, id)
}

// Create stores e as Queued with a fresh timestamp.
func (s *Exports) Create(ctx context.Context, e domain.Export) (domain.Export, error) {
	if err := wait(ctx, s.lat.ExportCreate); err != nil {
		return domain.Export{}, err
	}
	e.Status = domain.ExportQueued
	if err := e.Validate(); err != nil {
		return domain.Export{}, err
	}
	return s.t.Insert(ctx, func(id int64) (domain.Export, error) {
		e.ID = id
		e.CreatedAt = s.now()
		return e, nil
	})
}

func (s *Exports) Update(ctx context.Context, id int64, p domain.ExportPatch) (domain.Export, error) {
	if err := wait(ctx, s.lat.Update); err != nil {
		return domain.Export{}, err
	}
	return s.update(ctx, id, p)
}

// SetStatus is the settle path. It skips the simulated latency.
func (s *Exports) SetStatus(ctx context.Context, id int64, st domain.ExportStatus) (domain.Export, error) {
	return s.update(ctx, id, domain.ExportPatch{Status: &st})
}

// Requeue puts an export back to Queued and restamps it.
func (s *Exports) Requeue(ctx context.Context, id int64) (domain.Export, error) {
	if err := wait(ctx, s.lat.Retry); err != nil {
		return domain.Export{}, err
	}
	st := domain.ExportQueued
	now := s.now()
	return s.update(ctx, id, domain.ExportPatch{Status: &st, CreatedAt: &now})
}

func (s *Exports) update(ctx context.Context, id int64, p domain.ExportPatch) (domain.Export, error) {
	return s.t.Update(ctx, id, func(cur domain.Export) (domain.Export, error) {
		next := p.Apply(cur)
		if err := next.Validate(); err != nil {
			return domain.Export{}, err
		}
		return next, nil
	})
}

func (s *Exports) Delete(ctx context.Context, id int64) (domain.Export, error) {
	if err := wait(ctx, s.lat.Delete); err != nil {
		return domain.Export{}, err
	}
	return s.t.Delete(ctx, id)
}

func (s *Exports) Seed(ctx context.Context, exports []domain.Export) error {
	return s.t.Reset(ctx, exports)
}
