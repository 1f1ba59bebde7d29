package store

import (
	"context"
	"fmt"

	"siftin-engine/internal/fixtures"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Stores bundles the three fixture collections over one backend.
type Stores struct {
	Leads   *Leads
	Runs    *Runs
	Exports *Exports

	db *DB
}

func NewMemory(opts ...Option) *Stores {
	return &Stores{
		Leads:   NewLeads(NewMemTable(LeadKind), opts...),
		Runs:    NewRuns(NewMemTable(RunKind), opts...),
		Exports: NewExports(NewMemTable(ExportKind), opts...),
	}
}

func NewSQLite(dsn string, opts ...Option) (*Stores, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Stores{
		Leads:   NewLeads(NewSQLiteTable(db, LeadKind), opts...),
		Runs:    NewRuns(NewSQLiteTable(db, RunKind), opts...),
		Exports: NewExports(NewSQLiteTable(db, ExportKind), opts...),
		db:      db,
	}, nil
}

// New picks the backend by name.
func New(backend, dsn string, opts ...Option) (*Stores, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(opts...), nil
	case BackendSQLite:
		return NewSQLite(dsn, opts...)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func (s *Stores) Seed(ctx context.Context, set fixtures.Set) error {
	if err := s.Leads.Seed(ctx, set.Leads); err != nil {
		return fmt.Errorf("seed leads: %w", err)
	}
	if err := s.Runs.Seed(ctx, set.Runs); err != nil {
		return fmt.Errorf("seed runs: %w", err)
	}
	if err := s.Exports.Seed(ctx, set.Exports); err != nil {
		return fmt.Errorf("seed exports: %w", err)
	}
	return nil
}

func (s *Stores) Close() error {
	return s.db.Close()
}
