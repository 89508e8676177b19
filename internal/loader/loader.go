// Package loader assembles the snapshot every query runs against, either from
// the local cache or by walking the provider's rosters.
package loader

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"muckraker/internal/core"
	"muckraker/internal/log"
	"muckraker/internal/metrics"
	"muckraker/internal/storage"
)

// Provider is the remote source of candidate rosters and expenditures.
type Provider interface {
	CandidatesByRace(ctx context.Context, year int, state core.State, chamber core.Chamber) ([]core.Candidate, error)
	IndependentExpenditures(ctx context.Context, candidateID string, year int) ([]core.Expenditure, error)
}

const DefaultYear = 2012

type Options struct {
	Year int
	// Concurrency bounds the parallel expenditure fetches. 1 fetches sequentially.
	Concurrency int
	Logger      *log.Logger
}

type Loader struct {
	provider    Provider
	store       storage.SnapshotStore
	year        int
	concurrency int
	logger      *log.Logger
	structured  *log.StructuredLogger

	group singleflight.Group
}

// New returns a loader. store may be nil when caching is never enabled.
func New(provider Provider, store storage.SnapshotStore, opts Options) *Loader {
	if opts.Year == 0 {
		opts.Year = DefaultYear
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(log.ComponentLoader)
	return &Loader{
		provider:    provider,
		store:       store,
		year:        opts.Year,
		concurrency: opts.Concurrency,
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
	}
}

func (l *Loader) Year() int {
	return l.year
}

// Load returns the cached snapshot when caching is enabled and both collections
// are present. Otherwise it fetches everything from the provider and, with
// caching enabled, writes the result back. Concurrent calls share one load.
func (l *Loader) Load(ctx context.Context, cachingEnabled bool) (*core.Snapshot, error) {
	v, err, _ := l.group.Do("load:"+strconv.FormatBool(cachingEnabled), func() (any, error) {
		caching := cachingEnabled && l.store != nil
		if caching && l.store.Available(ctx) {
			return l.loadCached(ctx)
		}
		return l.loadFresh(ctx, caching)
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.Snapshot), nil
}

// Refresh ignores the cache, fetches from the provider and overwrites the cache.
func (l *Loader) Refresh(ctx context.Context) (*core.Snapshot, error) {
	v, err, _ := l.group.Do("refresh", func() (any, error) {
		return l.loadFresh(ctx, l.store != nil)
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.Snapshot), nil
}

func (l *Loader) loadCached(ctx context.Context) (*core.Snapshot, error) {
	candidates, expenditures, err := l.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cached snapshot: %w", err)
	}
	return l.build(ctx, core.SourceCache, candidates, expenditures), nil
}

func (l *Loader) loadFresh(ctx context.Context, save bool) (*core.Snapshot, error) {
	candidates, err := l.fetchCandidates(ctx)
	if err != nil {
		return nil, err
	}
	expenditures, err := l.fetchExpenditures(ctx, candidates)
	if err != nil {
		return nil, err
	}

	if save {
		if err := l.store.SaveCandidates(ctx, candidates); err != nil {
			return nil, fmt.Errorf("cache candidates: %w", err)
		}
		if err := l.store.SaveExpenditures(ctx, expenditures); err != nil {
			return nil, fmt.Errorf("cache expenditures: %w", err)
		}
	}
	return l.build(ctx, core.SourceProvider, candidates, expenditures), nil
}

// fetchCandidates walks every state in order, senate before house.
func (l *Loader) fetchCandidates(ctx context.Context) ([]core.Candidate, error) {
	var all []core.Candidate
	for _, state := range core.States {
		for _, chamber := range core.Chambers {
			if chamber == core.Senate && !state.HasSenate() {
				continue
			}
			got, err := l.provider.CandidatesByRace(ctx, l.year, state, chamber)
			if err != nil {
				return nil, fmt.Errorf("fetch %s %s roster: %w", state, chamber, err)
			}
			l.logger.DebugContext(ctx, "Roster fetched",
				log.FieldState, state,
				log.FieldChamber, chamber,
				log.FieldCandidates, len(got))
			all = append(all, got...)
		}
	}
	return all, nil
}

// fetchExpenditures fetches per candidate with bounded parallelism. The result
// is concatenated in candidate order regardless of completion order.
func (l *Loader) fetchExpenditures(ctx context.Context, candidates []core.Candidate) ([]core.Expenditure, error) {
	perCandidate := make([][]core.Expenditure, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			got, err := l.provider.IndependentExpenditures(gctx, c.ID, l.year)
			if err != nil {
				return fmt.Errorf("fetch expenditures for candidate %s: %w", c.ID, err)
			}
			perCandidate[i] = got
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, e := range perCandidate {
		total += len(e)
	}
	all := make([]core.Expenditure, 0, total)
	for _, e := range perCandidate {
		all = append(all, e...)
	}
	return all, nil
}

func (l *Loader) build(ctx context.Context, source core.Source, candidates []core.Candidate, expenditures []core.Expenditure) *core.Snapshot {
	snap, dups := core.NewSnapshot(l.year, source, candidates, expenditures)
	if len(dups) > 0 {
		l.logger.WarnContext(ctx, "Duplicate candidate ids, keeping the last occurrence",
			"count", len(dups),
			"ids", dups)
	}

	metrics.SnapshotLoads.WithLabelValues(string(source)).Inc()
	metrics.SnapshotRecords.WithLabelValues("candidates").Set(float64(len(candidates)))
	metrics.SnapshotRecords.WithLabelValues("expenditures").Set(float64(len(expenditures)))
	l.structured.LogSnapshotLoaded(ctx, l.year, string(source), len(candidates), len(expenditures))
	return snap
}
