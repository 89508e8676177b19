package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"muckraker/internal/core"

	_ "modernc.org/sqlite"
)

const (
	collectionCandidates   = "candidates"
	collectionExpenditures = "expenditures"
)

// SQLiteStore keeps both collections in one SQLite database inside the cache
// directory. A collection counts as present once a save has been recorded in
// snapshot_collections.
type SQLiteStore struct {
	dir string

	mu sync.Mutex
	db *sql.DB
}

var _ SnapshotStore = (*SQLiteStore)(nil)

func NewSQLiteStore(dir string) *SQLiteStore {
	return &SQLiteStore{dir: dir}
}

func (s *SQLiteStore) path() string {
	return filepath.Join(s.dir, SQLiteFilename)
}

// open lazily creates the directory, the database and its schema.
func (s *SQLiteStore) open() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}

	if err := ensureDir(s.dir); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", s.path())
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(s.path()); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s.db = db
	return db, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Available is false when the database file does not exist yet. When it
// exists but cannot be queried, Available reports true so that Load surfaces
// the corruption instead of silently refetching.
func (s *SQLiteStore) Available(ctx context.Context) bool {
	if !fileExists(s.path()) {
		return false
	}
	db, err := s.open()
	if err != nil {
		slog.WarnContext(ctx, "Cache database unreadable", "path", s.path(), "error", err)
		return true
	}

	var n int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshot_collections WHERE name IN (?, ?)`,
		collectionCandidates, collectionExpenditures).Scan(&n)
	if err != nil {
		slog.WarnContext(ctx, "Cache database unreadable", "path", s.path(), "error", err)
		return true
	}
	return n == 2
}

func (s *SQLiteStore) Load(ctx context.Context) ([]core.Candidate, []core.Expenditure, error) {
	if !fileExists(s.path()) {
		return nil, nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, s.path())
	}
	db, err := s.open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	candidates, err := s.loadCandidates(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: candidates: %v", ErrCorruptSnapshot, err)
	}
	expenditures, err := s.loadExpenditures(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: expenditures: %v", ErrCorruptSnapshot, err)
	}

	slog.InfoContext(ctx, "Snapshot loaded from SQLite cache",
		"path", s.path(),
		"candidates", len(candidates),
		"expenditures", len(expenditures))
	return candidates, expenditures, nil
}

func (s *SQLiteStore) loadCandidates(ctx context.Context, db *sql.DB) ([]core.Candidate, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, party, state, chamber FROM candidates ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []core.Candidate{}
	for rows.Next() {
		var c core.Candidate
		var party, state, chamber string
		if err := rows.Scan(&c.ID, &c.Name, &party, &state, &chamber); err != nil {
			return nil, err
		}
		c.Party, c.State, c.Chamber = core.Party(party), core.State(state), core.Chamber(chamber)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *SQLiteStore) loadExpenditures(ctx context.Context, db *sql.DB) ([]core.Expenditure, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT candidate_id, payee, amount_cents, stance, year, committee, purpose, spent_on
		 FROM expenditures ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenditures := []core.Expenditure{}
	for rows.Next() {
		var e core.Expenditure
		var stance, spentOn string
		if err := rows.Scan(&e.CandidateID, &e.Payee, &e.Amount.Cents, &stance, &e.Year,
			&e.Committee, &e.Purpose, &spentOn); err != nil {
			return nil, err
		}
		e.Stance = core.Stance(stance)
		if spentOn != "" {
			t, err := time.Parse(time.RFC3339Nano, spentOn)
			if err != nil {
				return nil, fmt.Errorf("expenditure date %q: %w", spentOn, err)
			}
			e.Date = t
		}
		expenditures = append(expenditures, e)
	}
	return expenditures, rows.Err()
}

func (s *SQLiteStore) SaveCandidates(ctx context.Context, candidates []core.Candidate) error {
	err := s.replace(ctx, collectionCandidates, len(candidates), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO candidates (position, id, name, party, state, chamber) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, c := range candidates {
			if _, err := stmt.ExecContext(ctx, i, c.ID, c.Name, string(c.Party), string(c.State), string(c.Chamber)); err != nil {
				return fmt.Errorf("insert candidate %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Candidates saved to SQLite cache", "path", s.path(), "count", len(candidates))
	return nil
}

func (s *SQLiteStore) SaveExpenditures(ctx context.Context, expenditures []core.Expenditure) error {
	err := s.replace(ctx, collectionExpenditures, len(expenditures), func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO expenditures (position, candidate_id, payee, amount_cents, stance, year, committee, purpose, spent_on)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, e := range expenditures {
			spentOn := ""
			if !e.Date.IsZero() {
				spentOn = e.Date.UTC().Format(time.RFC3339Nano)
			}
			if _, err := stmt.ExecContext(ctx, i, e.CandidateID, e.Payee, e.Amount.Cents, string(e.Stance), e.Year,
				e.Committee, e.Purpose, spentOn); err != nil {
				return fmt.Errorf("insert expenditure %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expenditures saved to SQLite cache", "path", s.path(), "count", len(expenditures))
	return nil
}

// replace overwrites one collection and records it in snapshot_collections in a single transaction.
func (s *SQLiteStore) replace(ctx context.Context, collection string, count int, insert func(*sql.Tx) error) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// collection is one of two constants, never user input
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+collection); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	if err := insert(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_collections (name, item_count, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET item_count = excluded.item_count, saved_at = excluded.saved_at`,
		collection, count, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("record %s save: %w", collection, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", collection, err)
	}
	return nil
}
