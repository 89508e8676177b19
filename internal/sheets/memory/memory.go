// Package memory is an in-process DataSetExporter used for dry runs and tests.
package memory

import (
	"context"
	"sync"

	"muckraker/internal/core"
	ports "muckraker/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	tabs  map[string][][]any
	order []string
}

var _ ports.DataSetExporter = (*Store)(nil)

func New() *Store {
	return &Store{tabs: make(map[string][][]any)}
}

// Export replaces the contents of one tab per dataset.
func (s *Store) Export(ctx context.Context, sets []core.DataSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	names := ports.TabNames(sets)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ds := range sets {
		if _, ok := s.tabs[names[i]]; !ok {
			s.order = append(s.order, names[i])
		}
		s.tabs[names[i]] = ports.Values(ds)
	}
	return nil
}

// Tabs returns tab names in creation order.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Tab returns the rows written to a tab.
func (s *Store) Tab(name string) ([][]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tabs[name]
	return rows, ok
}
