package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muckraker/internal/core"
)

func sampleCandidates() []core.Candidate {
	return []core.Candidate{
		{ID: "c1", Name: "Jane Roe", Party: core.Democrat, State: "CA", Chamber: core.House},
		{ID: "c2", Name: "John Doe", Party: core.Republican, State: "TX", Chamber: core.Senate},
	}
}

func sampleExpenditures() []core.Expenditure {
	return []core.Expenditure{
		{CandidateID: "c1", Payee: "Acme, LLC", Amount: core.Money{Cents: 10000}, Stance: core.Support, Year: 2012,
			Committee: "Friends of Jane", Purpose: "TV ads", Date: time.Date(2012, 10, 1, 0, 0, 0, 0, time.UTC)},
		{CandidateID: "c1", Payee: "Acme LLC", Amount: core.Money{Cents: 5000}, Stance: core.Support, Year: 2012},
		{CandidateID: "c2", Payee: "Beta Corp", Amount: core.Money{Cents: 3001}, Stance: core.Oppose, Year: 2012},
	}
}

func stores(t *testing.T) map[string]func(dir string) SnapshotStore {
	return map[string]func(dir string) SnapshotStore{
		"yaml": func(dir string) SnapshotStore { return NewFileStore(dir) },
		"sqlite": func(dir string) SnapshotStore {
			s := NewSQLiteStore(dir)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			dir := filepath.Join(t.TempDir(), "nested", "cache")
			s := newStore(dir)

			assert.False(t, s.Available(ctx))

			require.NoError(t, s.SaveCandidates(ctx, sampleCandidates()))
			require.NoError(t, s.SaveExpenditures(ctx, sampleExpenditures()))
			assert.True(t, s.Available(ctx))

			candidates, expenditures, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, sampleCandidates(), candidates)
			assert.Equal(t, sampleExpenditures(), expenditures)
		})
	}
}

func TestSnapshotSaveOverwrites(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t.TempDir())

			require.NoError(t, s.SaveCandidates(ctx, sampleCandidates()))
			require.NoError(t, s.SaveCandidates(ctx, sampleCandidates()[:1]))
			require.NoError(t, s.SaveExpenditures(ctx, sampleExpenditures()))

			candidates, _, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Len(t, candidates, 1)
		})
	}
}

func TestSnapshotPartialIsUnavailable(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t.TempDir())

			require.NoError(t, s.SaveCandidates(ctx, sampleCandidates()))
			assert.False(t, s.Available(ctx))
		})
	}
}

func TestSnapshotSaveFailsWhenDirectoryUnusable(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			blocker := filepath.Join(t.TempDir(), "blocker")
			require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

			s := newStore(filepath.Join(blocker, "cache"))
			assert.Error(t, s.SaveCandidates(context.Background(), sampleCandidates()))
		})
	}
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	cases := map[string]string{
		"not yaml":      "[unclosed",
		"wrong shape":   "id: c1\n",
		"unknown field": "- id: c1\n  nickname: x\n",
		"empty":         "",
		"missing id":    "- name: Nobody\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			s := NewFileStore(dir)
			require.NoError(t, s.SaveExpenditures(ctx, sampleExpenditures()))
			require.NoError(t, os.WriteFile(filepath.Join(dir, CandidatesFilename), []byte(content), 0o644))

			require.True(t, s.Available(ctx))
			_, _, err := s.Load(ctx)
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}

func TestFileStoreCorruptAmount(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, s.SaveCandidates(ctx, sampleCandidates()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ExpendituresFilename),
		[]byte("- candidate_id: c1\n  payee: Acme\n  amount: lots\n  stance: SUPPORT\n  year: 2012\n"), 0o644))

	_, _, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestFileStoreLoadMissing(t *testing.T) {
	_, _, err := NewFileStore(t.TempDir()).Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSQLiteStoreCorruptDatabase(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SQLiteFilename), []byte("definitely not a database file, just text"), 0o644))

	s := NewSQLiteStore(dir)
	t.Cleanup(func() { s.Close() })

	assert.True(t, s.Available(ctx))
	_, _, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestOpen(t *testing.T) {
	s, err := Open(YAMLBackend, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(SQLiteBackend, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)

	_, err = Open("redis", t.TempDir())
	assert.Error(t, err)
}
