package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"muckraker/internal/core"
)

// FileStore keeps each collection in its own YAML file.
type FileStore struct {
	dir string
}

var _ SnapshotStore = (*FileStore)(nil)

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) candidatesPath() string {
	return filepath.Join(s.dir, CandidatesFilename)
}

func (s *FileStore) expendituresPath() string {
	return filepath.Join(s.dir, ExpendituresFilename)
}

// Available is true only when both files exist. A lone file counts as no snapshot.
func (s *FileStore) Available(_ context.Context) bool {
	return fileExists(s.candidatesPath()) && fileExists(s.expendituresPath())
}

func (s *FileStore) Load(ctx context.Context) ([]core.Candidate, []core.Expenditure, error) {
	var candidates []core.Candidate
	if err := readYAML(s.candidatesPath(), &candidates); err != nil {
		return nil, nil, err
	}
	for i, c := range candidates {
		if c.ID == "" {
			return nil, nil, fmt.Errorf("%w: %s: candidate %d has no id", ErrCorruptSnapshot, s.candidatesPath(), i)
		}
	}

	var expenditures []core.Expenditure
	if err := readYAML(s.expendituresPath(), &expenditures); err != nil {
		return nil, nil, err
	}
	for i, e := range expenditures {
		if e.CandidateID == "" {
			return nil, nil, fmt.Errorf("%w: %s: expenditure %d has no candidate id", ErrCorruptSnapshot, s.expendituresPath(), i)
		}
	}

	slog.InfoContext(ctx, "Snapshot loaded from cache",
		"dir", s.dir,
		"candidates", len(candidates),
		"expenditures", len(expenditures))
	return candidates, expenditures, nil
}

func (s *FileStore) SaveCandidates(ctx context.Context, candidates []core.Candidate) error {
	if candidates == nil {
		candidates = []core.Candidate{}
	}
	if err := s.write(s.candidatesPath(), candidates); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Candidates saved to cache", "path", s.candidatesPath(), "count", len(candidates))
	return nil
}

func (s *FileStore) SaveExpenditures(ctx context.Context, expenditures []core.Expenditure) error {
	if expenditures == nil {
		expenditures = []core.Expenditure{}
	}
	if err := s.write(s.expendituresPath(), expenditures); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expenditures saved to cache", "path", s.expendituresPath(), "count", len(expenditures))
	return nil
}

// write replaces path atomically so a crash never leaves a half-written collection.
func (s *FileStore) write(path string, v any) error {
	if err := ensureDir(s.dir); err != nil {
		return err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
		}
		return fmt.Errorf("%w: read %s: %v", ErrCorruptSnapshot, path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s is empty", ErrCorruptSnapshot, path)
		}
		return fmt.Errorf("%w: parse %s: %v", ErrCorruptSnapshot, path, err)
	}
	return nil
}
