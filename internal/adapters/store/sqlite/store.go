// Package sqlite implements ports.Store on a local SQLite database. It holds
// the last successfully persisted snapshot per profile so linkdeck can render
// links while the service is unreachable.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"linkdeck/internal/core/domain"
	"linkdeck/internal/platform/errors"
)

// Store is the SQLite-backed snapshot cache.
type Store struct {
	db *sqlx.DB
}

// New opens (and migrates) the snapshot database at path. ":memory:" is
// accepted for tests.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create db directory")
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = path + "?_pragma=journal_mode(DELETE)&_pragma=synchronous(NORMAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			profile_id TEXT PRIMARY KEY,
			version    INTEGER NOT NULL,
			saved_at   TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_links (
			profile_id  TEXT NOT NULL,
			position    INTEGER NOT NULL,
			link_json   TEXT NOT NULL,
			PRIMARY KEY (profile_id, position)
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot replaces the profile's cached snapshot atomically.
func (s *Store) SaveSnapshot(ctx context.Context, profileID string, links []domain.Link, version int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin snapshot tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM snapshot_links WHERE profile_id = ?", profileID); err != nil {
		return errors.Wrap(err, "clear snapshot links")
	}

	for i := range links {
		raw, err := json.Marshal(&links[i])
		if err != nil {
			return errors.Wrap(err, "encode snapshot link")
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO snapshot_links (profile_id, position, link_json) VALUES (?, ?, ?)",
			profileID, i, string(raw)); err != nil {
			return errors.Wrap(err, "insert snapshot link")
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (profile_id, version, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET version = excluded.version, saved_at = excluded.saved_at`,
		profileID, version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return errors.Wrap(err, "upsert snapshot meta")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit snapshot")
	}
	return nil
}

// LoadSnapshot returns the cached links and version for a profile.
// errors.ErrNotFound when no snapshot was ever saved.
func (s *Store) LoadSnapshot(ctx context.Context, profileID string) ([]domain.Link, int, error) {
	var version int
	err := s.db.GetContext(ctx, &version,
		"SELECT version FROM snapshots WHERE profile_id = ?", profileID)
	if err == sql.ErrNoRows {
		return nil, 0, errors.ErrNotFound
	}
	if err != nil {
		return nil, 0, errors.Wrap(err, "load snapshot meta")
	}

	var rows []string
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT link_json FROM snapshot_links WHERE profile_id = ? ORDER BY position", profileID); err != nil {
		return nil, 0, errors.Wrap(err, "load snapshot links")
	}

	links := make([]domain.Link, 0, len(rows))
	for _, raw := range rows {
		var l domain.Link
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			return nil, 0, errors.Wrap(err, "decode snapshot link")
		}
		links = append(links, l)
	}
	return links, version, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
