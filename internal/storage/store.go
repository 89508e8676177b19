// Package storage persists the candidate and expenditure collections of a
// snapshot inside a single cache directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"muckraker/internal/core"
)

const (
	CandidatesFilename   = "candidates.yaml"
	ExpendituresFilename = "expenditures.yaml"
	SQLiteFilename       = "snapshot.db"

	dirPerm = 0o755
)

var (
	// ErrCorruptSnapshot is returned when a cached collection exists but cannot be read back.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
	// ErrSnapshotNotFound is returned by Load when a collection was never saved.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// SnapshotStore is the durable cache for a loaded snapshot.
type SnapshotStore interface {
	// Available reports whether both collections are present.
	Available(ctx context.Context) bool
	Load(ctx context.Context) ([]core.Candidate, []core.Expenditure, error)
	SaveCandidates(ctx context.Context, candidates []core.Candidate) error
	SaveExpenditures(ctx context.Context, expenditures []core.Expenditure) error
}

// Backend selects the on-disk format.
type Backend string

const (
	YAMLBackend   Backend = "yaml"
	SQLiteBackend Backend = "sqlite"
)

// Open returns the store for the given backend rooted at dir. Nothing is
// created on disk until the first save.
func Open(backend Backend, dir string) (SnapshotStore, error) {
	switch backend {
	case YAMLBackend, "":
		return NewFileStore(dir), nil
	case SQLiteBackend:
		return NewSQLiteStore(dir), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
