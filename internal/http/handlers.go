package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"muckraker/internal/amqp"
	"muckraker/internal/chart"
	"muckraker/internal/core"
	"muckraker/internal/log"
	"muckraker/internal/query"
)

// Dataset kinds served under /api/datasets/{kind}.
const (
	KindPayees     = "payees"
	KindCandidates = "candidates"
	KindSupported  = "supported"
	KindOpposed    = "opposed"
)

// DatasetsResponse is the body of every dataset endpoint.
type DatasetsResponse struct {
	Year     int            `json:"year"`
	Datasets []core.DataSet `json:"datasets"`
}

// SnapshotResponse summarizes the snapshot currently served.
type SnapshotResponse struct {
	Year         int         `json:"year"`
	Source       core.Source `json:"source"`
	Candidates   int         `json:"candidates"`
	Expenditures int         `json:"expenditures"`
}

// RefreshResponse acknowledges a queued refresh.
type RefreshResponse struct {
	ID   string `json:"id"`
	Year int    `json:"year"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports the snapshot being served. A server without a renderer
// cannot produce its index page and is not ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.renderer == nil {
		ServiceUnavailableError("chart renderer not configured").Write(w)
		return
	}
	NewJSONResponse().Body(snapshotSummary(s.Engine().Snapshot())).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.renderer == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chart renderer not configured")
		http.Error(w, "chart renderer not configured", http.StatusInternalServerError)
		return
	}

	st := s.state()
	page, err := s.pages.GetOrCompute("index|"+strconv.FormatUint(st.gen, 10), func() ([]byte, error) {
		engine := st.engine
		sets := engine.PayeeOverview(s.limit)
		sets = append(sets, engine.SupportedOverview(s.limit)...)
		sets = append(sets, engine.OpposedOverview(s.limit)...)

		year := engine.Snapshot().Year
		var buf bytes.Buffer
		if err := s.renderer.Render(&buf, chart.NewPage(fmt.Sprintf("Independent Expenditures %d", year), year, sets)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Index render failed", err, log.OpRender, nil)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	switch kind {
	case KindPayees, KindCandidates, KindSupported, KindOpposed:
	default:
		NotFoundError(fmt.Sprintf("unknown dataset kind %q", kind)).Write(w)
		return
	}

	params, err := ParseDatasetParams(r.URL.Query(), s.limit)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	st := s.state()
	engine := st.engine
	sets, _ := s.datasets.GetOrCompute(params.CacheKey(st.gen, kind), func() ([]core.DataSet, error) {
		f := params.Filter
		switch kind {
		case KindPayees:
			return []core.DataSet{engine.TopPayees(f)}, nil
		case KindCandidates:
			return engine.CandidatePayees(f.Stance, f.Limit), nil
		case KindSupported:
			return []core.DataSet{engine.TopSupportedCandidates(f.Party, f.Limit)}, nil
		default:
			return []core.DataSet{engine.TopOpposedCandidates(f.Party, f.Limit)}, nil
		}
	})

	NewJSONResponse().
		Body(DatasetsResponse{Year: engine.Snapshot().Year, Datasets: nonNil(sets)}).
		Write(w)
}

func (s *Server) handleCandidatePayees(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	params, err := ParseDatasetParams(r.URL.Query(), s.limit)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	engine := s.Engine()
	ds, err := engine.TopPayeesForCandidate(id, params.Filter.Stance, params.Filter.Limit)
	if errors.Is(err, query.ErrCandidateNotFound) {
		NotFoundError(err.Error()).Write(w)
		return
	}
	if err != nil {
		InternalServerError("query failed").Write(w)
		return
	}

	NewJSONResponse().
		Body(DatasetsResponse{Year: engine.Snapshot().Year, Datasets: []core.DataSet{ds}}).
		Write(w)
}

// handleRefresh queues a provider refresh for the worker. The served snapshot
// changes only after the worker has rewritten the cache and /api/reload is called.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.publisher == nil {
		ServiceUnavailableError("refresh queue not configured").Write(w)
		return
	}

	body, err := ParseRefreshBody(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if body.RequestedBy == "" {
		body.RequestedBy = extractClientIP(r)
	}

	req := amqp.NewRefreshRequest(s.Engine().Snapshot().Year, body.RequestedBy)
	if err := s.publisher.PublishRefresh(ctx, req); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Refresh publish failed", err, log.OpPublish, nil)
		if errors.Is(err, amqp.ErrCircuitOpen) {
			ServiceUnavailableError("refresh queue unavailable").Header("Retry-After", "30").Write(w)
			return
		}
		ErrorResponse(http.StatusBadGateway, "refresh queue unavailable").Write(w)
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Refresh queued", log.FieldMessageID, req.ID, log.FieldYear, req.Year)
	NewJSONResponse().
		Status(http.StatusAccepted).
		Body(RefreshResponse{ID: req.ID, Year: req.Year}).
		Write(w)
}

// handleReload swaps in the snapshot currently held by the cache store.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.reloader == nil {
		ServiceUnavailableError("reload not configured").Write(w)
		return
	}

	start := time.Now()
	snap, err := s.reloader.Load(ctx, true)
	if err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Snapshot reload failed", err, log.OpLoad, nil)
		InternalServerError("reload failed").Write(w)
		return
	}
	s.swap(snap)

	log.FromContext(ctx).InfoContext(ctx, "Snapshot reloaded",
		log.FieldSource, string(snap.Source),
		log.FieldDuration, time.Since(start).Milliseconds())
	NewJSONResponse().Body(snapshotSummary(snap)).Write(w)
}

func snapshotSummary(snap *core.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		Year:         snap.Year,
		Source:       snap.Source,
		Candidates:   len(snap.Candidates),
		Expenditures: len(snap.Expenditures),
	}
}

func nonNil(sets []core.DataSet) []core.DataSet {
	if sets == nil {
		return []core.DataSet{}
	}
	return sets
}
