package store

import (
	"context"
	"slices"
	"sync"

	"siftin-engine/internal/domain"
)

// Kind describes how a record type is keyed and copied.
type Kind[T any] struct {
	Name  string
	ID    func(T) int64
	Clone func(T) T
}

func (k Kind[T]) notFound(id int64) error {
	return domain.NotFoundError{Kind: k.Name, ID: id}
}

func (k Kind[T]) clone(v T) T {
	if k.Clone == nil {
		return v
	}
	return k.Clone(v)
}

// Table is the id-keyed collection behind every repository. Ids are
// assigned as max(existing)+1, and List returns insertion order.
type Table[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Insert(ctx context.Context, build func(id int64) (T, error)) (T, error)
	Update(ctx context.Context, id int64, fn func(T) (T, error)) (T, error)
	// UpdateMany skips unknown ids. If fn fails for any record nothing is written.
	UpdateMany(ctx context.Context, ids []int64, fn func(T) (T, error)) ([]T, error)
	Delete(ctx context.Context, id int64) (T, error)
	Reset(ctx context.Context, items []T) error
}

type memTable[T any] struct {
	kind Kind[T]

	mu    sync.RWMutex
	rows  map[int64]T
	order []int64
}

func NewMemTable[T any](kind Kind[T]) Table[T] {
	return &memTable[T]{kind: kind, rows: make(map[int64]T)}
}

func (m *memTable[T]) List(ctx context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.kind.clone(m.rows[id]))
	}
	return out, nil
}

func (m *memTable[T]) Get(ctx context.Context, id int64) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.rows[id]
	if !ok {
		var zero T
		return zero, m.kind.notFound(id)
	}
	return m.kind.clone(v), nil
}

func (m *memTable[T]) Insert(ctx context.Context, build func(id int64) (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var max int64
	for id := range m.rows {
		if id > max {
			max = id
		}
	}
	v, err := build(max + 1)
	if err != nil {
		var zero T
		return zero, err
	}
	id := m.kind.ID(v)
	m.rows[id] = m.kind.clone(v)
	m.order = append(m.order, id)
	return m.kind.clone(v), nil
}

func (m *memTable[T]) Update(ctx context.Context, id int64, fn func(T) (T, error)) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	cur, ok := m.rows[id]
	if !ok {
		return zero, m.kind.notFound(id)
	}
	next, err := fn(m.kind.clone(cur))
	if err != nil {
		return zero, err
	}
	m.rows[id] = m.kind.clone(next)
	return m.kind.clone(next), nil
}

func (m *memTable[T]) UpdateMany(ctx context.Context, ids []int64, fn func(T) (T, error)) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[int64]T, len(ids))
	var touched []int64
	for _, id := range ids {
		cur, ok := staged[id]
		if !ok {
			if cur, ok = m.rows[id]; !ok {
				continue
			}
			touched = append(touched, id)
		}
		next, err := fn(m.kind.clone(cur))
		if err != nil {
			return nil, err
		}
		staged[id] = next
	}

	out := make([]T, 0, len(touched))
	for _, id := range touched {
		m.rows[id] = m.kind.clone(staged[id])
		out = append(out, m.kind.clone(staged[id]))
	}
	return out, nil
}

func (m *memTable[T]) Delete(ctx context.Context, id int64) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.rows[id]
	if !ok {
		var zero T
		return zero, m.kind.notFound(id)
	}
	delete(m.rows, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return v, nil
}

func (m *memTable[T]) Reset(ctx context.Context, items []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = make(map[int64]T, len(items))
	m.order = m.order[:0]
	for _, v := range items {
		id := m.kind.ID(v)
		if _, dup := m.rows[id]; dup {
			return domain.Invalidf("duplicate %s id %d", m.kind.Name, id)
		}
		m.rows[id] = m.kind.clone(v)
		m.order = append(m.order, id)
	}
	return nil
}
