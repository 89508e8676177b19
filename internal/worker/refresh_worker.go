// Package worker rebuilds the snapshot cache on request and optionally
// republishes the report to Google Sheets.
package worker

import (
	"context"
	"fmt"
	"time"

	"muckraker/internal/amqp"
	"muckraker/internal/core"
	"muckraker/internal/log"
	"muckraker/internal/query"
	"muckraker/internal/sheets"
)

// Loader is the part of loader.Loader the worker drives.
type Loader interface {
	Year() int
	Load(ctx context.Context, cachingEnabled bool) (*core.Snapshot, error)
	Refresh(ctx context.Context) (*core.Snapshot, error)
}

// RefreshWorker handles refresh requests from AMQP, startup and a timer.
type RefreshWorker struct {
	loader   Loader
	exporter sheets.DataSetExporter
	limit    int
	logger   *log.Logger
}

// NewRefreshWorker returns a worker. exporter may be nil to skip the Sheets export.
func NewRefreshWorker(loader Loader, exporter sheets.DataSetExporter, limit int, logger *log.Logger) *RefreshWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	return &RefreshWorker{
		loader:   loader,
		exporter: exporter,
		limit:    limit,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRefreshMessage processes a single refresh request from AMQP.
// Requests for another year are acknowledged and dropped: a loader serves one year.
func (w *RefreshWorker) HandleRefreshMessage(ctx context.Context, req *amqp.RefreshRequest) error {
	if req.Year != w.loader.Year() {
		w.logger.WarnContext(ctx, "Ignoring refresh for another year",
			log.FieldMessageID, req.ID,
			log.FieldYear, req.Year,
			"configured_year", w.loader.Year())
		return nil
	}

	w.logger.InfoContext(ctx, "Processing refresh message",
		log.FieldMessageID, req.ID,
		"requested_by", req.RequestedBy)
	return w.refresh(ctx, "message:"+req.ID)
}

// PeriodicRefresh rebuilds the cache on a timer, covering lost messages.
func (w *RefreshWorker) PeriodicRefresh(ctx context.Context) error {
	return w.refresh(ctx, "periodic")
}

// StartupCacheCheck makes sure a cached snapshot exists before the worker
// starts consuming. A missing cache is filled from the provider.
func (w *RefreshWorker) StartupCacheCheck(ctx context.Context) error {
	snap, err := w.loader.Load(ctx, true)
	if err != nil {
		return fmt.Errorf("startup cache check: %w", err)
	}

	if snap.Source == core.SourceCache {
		w.logger.InfoContext(ctx, "Snapshot cache present on startup",
			log.FieldCandidates, len(snap.Candidates),
			log.FieldExpenditure, len(snap.Expenditures))
		return nil
	}

	w.logger.InfoContext(ctx, "Snapshot cache filled on startup",
		log.FieldCandidates, len(snap.Candidates),
		log.FieldExpenditure, len(snap.Expenditures))
	return w.export(ctx, snap)
}

func (w *RefreshWorker) refresh(ctx context.Context, trigger string) error {
	start := time.Now()
	snap, err := w.loader.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh snapshot (%s): %w", trigger, err)
	}

	w.logger.InfoContext(ctx, "Refresh completed",
		log.FieldOperation, log.OpRefresh,
		"trigger", trigger,
		log.FieldYear, snap.Year,
		log.FieldCandidates, len(snap.Candidates),
		log.FieldExpenditure, len(snap.Expenditures),
		log.FieldDuration, time.Since(start).Milliseconds())

	return w.export(ctx, snap)
}

func (w *RefreshWorker) export(ctx context.Context, snap *core.Snapshot) error {
	if w.exporter == nil {
		return nil
	}

	sets := query.New(snap, query.WithLogger(w.logger)).Report(w.limit)
	if err := w.exporter.Export(ctx, sets); err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	w.logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldDataSet, len(sets))
	return nil
}
