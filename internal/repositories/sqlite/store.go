// Package sqlite keeps each knowledge-base collection as one JSON snapshot
// row, rewritten whole on every mutation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	keyTemplates = "sms_templates"
	keyTriggers  = "sms_triggers"
	keyCallLogs  = "call_logs"
	keyTasks     = "agent_tasks"
)

type Store struct {
	DB *sql.DB

	mu sync.Mutex
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; snapshots are read-modify-write
	db.SetMaxOpenConns(1)

	s := &Store{DB: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *Store) migrate() error {
	_, err := s.DB.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`)
	return err
}

func (s *Store) load(ctx context.Context, key string, dst any) (bool, error) {
	var raw string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM snapshots WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(raw), dst)
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO snapshots(key, value, updated_at) VALUES(?,?,?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(b), time.Now().Unix())
	return err
}

func list[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	out := []T{}
	if _, err := s.load(ctx, key, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// mutate loads the snapshot under key, applies fn and writes the result back.
func mutate[T any](ctx context.Context, s *Store, key string, fn func([]T) ([]T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := []T{}
	if _, err := s.load(ctx, key, &cur); err != nil {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return s.save(ctx, key, next)
}

func seed[T any](ctx context.Context, s *Store, key string, defaults []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur []T
	found, err := s.load(ctx, key, &cur)
	if err != nil || found {
		return err
	}
	if defaults == nil {
		defaults = []T{}
	}
	return s.save(ctx, key, defaults)
}
