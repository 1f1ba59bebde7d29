package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"siftin-engine/internal/domain"
)

// sqliteTable keeps each record as a JSON body in the shared records table.
type sqliteTable[T any] struct {
	db   *sql.DB
	kind Kind[T]
}

func NewSQLiteTable[T any](db *DB, kind Kind[T]) Table[T] {
	return &sqliteTable[T]{db: db.Pool, kind: kind}
}

func (s *sqliteTable[T]) List(ctx context.Context) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT body FROM records
WHERE kind = ?
ORDER BY seq ASC;`, s.kind.Name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.Name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		v, err := s.decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (s *sqliteTable[T]) Get(ctx context.Context, id int64) (T, error) {
	return s.get(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *sqliteTable[T]) get(ctx context.Context, q queryRower, id int64) (T, error) {
	var zero T
	var body string
	err := q.QueryRowContext(ctx,
		`SELECT body FROM records WHERE kind = ? AND id = ? LIMIT 1;`, s.kind.Name, id,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, s.kind.notFound(id)
	}
	if err != nil {
		return zero, err
	}
	return s.decode(body)
}

func (s *sqliteTable[T]) Insert(ctx context.Context, build func(id int64) (T, error)) (T, error) {
	var zero T
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer func() { _ = tx.Rollback() }()

	var next, seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM records WHERE kind = ?;`, s.kind.Name,
	).Scan(&next); err != nil {
		return zero, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM records;`).Scan(&seq); err != nil {
		return zero, err
	}

	v, err := build(next)
	if err != nil {
		return zero, err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return zero, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO records(kind, id, seq, body) VALUES(?,?,?,?);`,
		s.kind.Name, s.kind.ID(v), seq, string(body),
	); err != nil {
		return zero, fmt.Errorf("insert %s: %w", s.kind.Name, err)
	}
	return v, tx.Commit()
}

func (s *sqliteTable[T]) Update(ctx context.Context, id int64, fn func(T) (T, error)) (T, error) {
	var zero T
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer func() { _ = tx.Rollback() }()

	next, err := s.updateTx(ctx, tx, id, fn)
	if err != nil {
		return zero, err
	}
	return next, tx.Commit()
}

func (s *sqliteTable[T]) updateTx(ctx context.Context, tx *sql.Tx, id int64, fn func(T) (T, error)) (T, error) {
	var zero T
	cur, err := s.get(ctx, tx, id)
	if err != nil {
		return zero, err
	}
	next, err := fn(cur)
	if err != nil {
		return zero, err
	}
	body, err := json.Marshal(next)
	if err != nil {
		return zero, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET body = ? WHERE kind = ? AND id = ?;`, string(body), s.kind.Name, id,
	); err != nil {
		return zero, fmt.Errorf("update %s %d: %w", s.kind.Name, id, err)
	}
	return next, nil
}

func (s *sqliteTable[T]) UpdateMany(ctx context.Context, ids []int64, fn func(T) (T, error)) ([]T, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	pos := map[int64]int{}
	var out []T
	for _, id := range ids {
		next, err := s.updateTx(ctx, tx, id, fn)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if i, seen := pos[id]; seen {
			out[i] = next
			continue
		}
		pos[id] = len(out)
		out = append(out, next)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (s *sqliteTable[T]) Delete(ctx context.Context, id int64) (T, error) {
	var zero T
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := s.get(ctx, tx, id)
	if err != nil {
		return zero, err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE kind = ? AND id = ?;`, s.kind.Name, id,
	); err != nil {
		return zero, fmt.Errorf("delete %s %d: %w", s.kind.Name, id, err)
	}
	return cur, tx.Commit()
}

func (s *sqliteTable[T]) Reset(ctx context.Context, items []T) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE kind = ?;`, s.kind.Name); err != nil {
		return err
	}
	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM records;`).Scan(&seq); err != nil {
		return err
	}
	for _, v := range items {
		seq++
		body, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records(kind, id, seq, body) VALUES(?,?,?,?);`,
			s.kind.Name, s.kind.ID(v), seq, string(body),
		); err != nil {
			return fmt.Errorf("seed %s %d: %w", s.kind.Name, s.kind.ID(v), err)
		}
	}
	return tx.Commit()
}

func (s *sqliteTable[T]) decode(body string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", s.kind.Name, err)
	}
	return s.kind.clone(v), nil
}
