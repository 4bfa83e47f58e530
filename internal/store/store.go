// Package store keeps save slots in SQLite. A slot holds the theory's
// internal state string verbatim next to the host registry snapshot.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/xtding233/binomial-theory/internal/host"
)

var ErrNotFound = errors.New("save not found")

// --------- Data models ---------

type Save struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Variant   string        `json:"variant"`
	State     string        `json:"state"`
	Registry  host.Snapshot `json:"registry"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// --------- Store ---------

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens/creates a SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes
	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// --------- Migrations ---------

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			variant TEXT NOT NULL DEFAULT '',
			theory_state TEXT NOT NULL,
			registry TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_saves_updated ON saves(updated_at DESC);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// --------- Saves ---------

// Put inserts sv, or overwrites the slot with the same id. A nil id gets a
// fresh one. The stored record is returned.
func (s *Store) Put(ctx context.Context, sv Save) (Save, error) {
	registry, err := json.Marshal(sv.Registry)
	if err != nil {
		return Save{}, fmt.Errorf("encode registry: %w", err)
	}
	now := s.now()
	if sv.ID == uuid.Nil {
		sv.ID = uuid.New()
	}
	sv.UpdatedAt = now
	if sv.CreatedAt.IsZero() {
		sv.CreatedAt = now
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saves(id, name, variant, theory_state, registry, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			variant=excluded.variant,
			theory_state=excluded.theory_state,
			registry=excluded.registry,
			updated_at=excluded.updated_at`,
		sv.ID.String(), sv.Name, sv.Variant, sv.State, string(registry), sv.CreatedAt, sv.UpdatedAt)
	if err != nil {
		return Save{}, fmt.Errorf("put save %s: %w", sv.ID, err)
	}
	return s.Get(ctx, sv.ID)
}

// Get loads one slot.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Save, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, variant, theory_state, registry, created_at, updated_at
		FROM saves WHERE id=?`, id.String())
	sv, err := scanSave(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Save{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sv, err
}

// List returns slots, most recently updated first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Save, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, variant, theory_state, registry, created_at, updated_at
		FROM saves ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Save
	for rows.Next() {
		sv, err := scanSave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// Delete removes a slot.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE id=?`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSave(r scanner) (Save, error) {
	var (
		sv       Save
		registry string
	)
	if err := r.Scan(&sv.ID, &sv.Name, &sv.Variant, &sv.State, &registry, &sv.CreatedAt, &sv.UpdatedAt); err != nil {
		return Save{}, err
	}
	if err := json.Unmarshal([]byte(registry), &sv.Registry); err != nil {
		return Save{}, fmt.Errorf("decode registry of %s: %w", sv.ID, err)
	}
	return sv, nil
}
