package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"muckraker/internal/amqp"
	"muckraker/internal/cache"
	"muckraker/internal/chart"
	"muckraker/internal/core"
	"muckraker/internal/log"
	"muckraker/internal/metrics"
	"muckraker/internal/middleware/ratelimit"
	"muckraker/internal/middleware/security"
	"muckraker/internal/middleware/trace"
	"muckraker/internal/query"
)

// Publisher queues a provider refresh for the worker.
type Publisher interface {
	PublishRefresh(ctx context.Context, req *amqp.RefreshRequest) error
}

// Reloader produces a new snapshot, typically from the local cache.
type Reloader interface {
	Load(ctx context.Context, cachingEnabled bool) (*core.Snapshot, error)
}

// Options wires the server's collaborators. Snapshot and Renderer are required.
type Options struct {
	Addr      string
	Snapshot  *core.Snapshot
	Renderer  *chart.Renderer
	Logger    *log.Logger
	Limit     int
	CacheTTL  time.Duration
	CacheSize int
	RateLimit ratelimit.Config

	// Optional. Without them the refresh and reload endpoints answer 503.
	Publisher Publisher
	Reloader  Reloader
}

type Server struct {
	http.Server
	current   atomic.Pointer[served]
	gen       atomic.Uint64
	renderer  *chart.Renderer
	logger    *log.Logger
	limit     int
	publisher Publisher
	reloader  Reloader

	// Query results are memoized per snapshot and purged on reload.
	datasets     *cache.LRUCache[[]core.DataSet]
	pages        *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// served pairs a query engine with the generation of its snapshot. Memoized
// results are keyed by generation so a request still holding an old engine
// can never fill the cache for a newer one.
type served struct {
	engine *query.Engine
	gen    uint64
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Limit <= 0 {
		opts.Limit = query.DefaultLimit
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		renderer:     opts.Renderer,
		logger:       logger,
		limit:        opts.Limit,
		publisher:    opts.Publisher,
		reloader:     opts.Reloader,
		datasets:     cache.NewLRUCache[[]core.DataSet](opts.CacheSize, opts.CacheTTL),
		pages:        cache.NewLRUCache[[]byte](8, opts.CacheTTL),
		cacheManager: cache.NewManager(opts.Logger),
		rateLimiter:  ratelimit.NewLimiter(opts.RateLimit),
	}
	s.current.Store(&served{engine: query.New(opts.Snapshot, query.WithLogger(opts.Logger))})

	s.cacheManager.Register(s.datasets)
	s.cacheManager.Register(s.pages)
	s.cacheManager.StartCleanup(opts.CacheTTL)

	limited := s.rateLimiter.Middleware(extractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /api/datasets/{kind}", limited(http.HandlerFunc(s.handleDatasets)))
	mux.Handle("GET /api/candidates/{id}/payees", limited(http.HandlerFunc(s.handleCandidatePayees)))
	mux.Handle("POST /api/refresh", limited(http.HandlerFunc(s.handleRefresh)))
	mux.Handle("POST /api/reload", limited(http.HandlerFunc(s.handleReload)))
	mux.Handle("GET /healthz", security.NoStore(http.HandlerFunc(handleHealth)))
	mux.Handle("GET /readyz", security.NoStore(http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", security.NoStore(metrics.Handler()))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(opts.Logger, extractClientIP, routeLabel(mux))

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           log.Middleware(logger)(tracer.Middleware(headers.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Engine returns the query engine of the current snapshot.
func (s *Server) Engine() *query.Engine {
	return s.current.Load().engine
}

func (s *Server) state() *served {
	return s.current.Load()
}

// swap installs a new snapshot and drops every memoized result of the old one.
func (s *Server) swap(snap *core.Snapshot) {
	s.current.Store(&served{engine: query.New(snap, query.WithLogger(s.logger)), gen: s.gen.Add(1)})
	s.datasets.Purge()
	s.pages.Purge()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// routeLabel keeps the metrics label set bounded to registered patterns.
func routeLabel(mux *http.ServeMux) func(*http.Request) string {
	return func(r *http.Request) string {
		if _, pattern := mux.Handler(r); pattern != "" {
			return pattern
		}
		return "unmatched"
	}
}
