package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"carteira/internal/cache"
	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/middleware/ratelimit"
	"carteira/internal/middleware/security"
	"carteira/internal/middleware/trace"
	"carteira/internal/services"
)

// ProfileService is the part of the profile store the API drives.
type ProfileService interface {
	CreateProfile(ctx context.Context, name string) error
	SwitchProfile(ctx context.Context, name string) error
	DeleteProfile(ctx context.Context, name string) error
	SelectPeriod(p core.Period) error
	Add(ctx context.Context, kind core.Kind, amount float64, description string) (core.Entry, error)
	AddInstallment(ctx context.Context, total float64, description string, months int) ([]core.Entry, error)
	Edit(ctx context.Context, kind core.Kind, id int64, amount float64, description string) (core.Entry, error)
	Remove(ctx context.Context, kind core.Kind, id int64) error

	Profiles() []string
	Active() string
	Period() core.Period
	Entries(kind core.Kind) []core.Entry
	Summary() core.Summary
	View() services.View
}

var _ ProfileService = (*services.ProfileStore)(nil)

// Metrics receives request, cache and exposition hooks.
type Metrics interface {
	trace.Observer
	IncCacheHit(cache string)
	IncCacheMiss(cache string)
	Handler() http.Handler
}

// Options configures optional server collaborators.
type Options struct {
	Logger             *applog.Logger
	Metrics            Metrics
	RateLimitPerMinute int
	SummaryCacheSize   int
	SummaryCacheTTL    time.Duration
	// Ready reports backend readiness for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

const summaryCacheName = "summary"

type Server struct {
	http.Server

	store   ProfileService
	logger  *applog.Logger
	metrics Metrics
	ready   func(ctx context.Context) error

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	summaryCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, store ProfileService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	if opts.SummaryCacheSize < 1 {
		opts.SummaryCacheSize = 256
	}
	if opts.SummaryCacheTTL <= 0 {
		opts.SummaryCacheTTL = 5 * time.Minute
	}

	s := &Server{
		store:        store,
		logger:       opts.Logger.WithComponent(applog.ComponentHTTP),
		metrics:      opts.Metrics,
		ready:        opts.Ready,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:     security.NewDetector(),
		summaryCache: cache.NewLRUCache[core.Summary](opts.SummaryCacheSize, opts.SummaryCacheTTL),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.OnClean(func(removed int) {
		s.logger.Debug("Cache cleanup completed", "entries_removed", removed)
	})
	s.cacheManager.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("GET /profiles", s.handleListProfiles)
	mux.HandleFunc("POST /profiles", s.handleCreateProfile)
	mux.HandleFunc("POST /profiles/{name}/activate", s.handleActivateProfile)
	mux.HandleFunc("DELETE /profiles/{name}", s.handleDeleteProfile)

	mux.HandleFunc("GET /period", s.handleGetPeriod)
	mux.HandleFunc("PUT /period", s.handleSetPeriod)

	mux.HandleFunc("GET /entries/{kind}", s.handleListEntries)
	mux.HandleFunc("POST /entries/{kind}", s.handleAddEntry)
	mux.HandleFunc("PUT /entries/{kind}/{id}", s.handleEditEntry)
	mux.HandleFunc("DELETE /entries/{kind}/{id}", s.handleRemoveEntry)

	mux.HandleFunc("GET /summary", s.handleSummary)

	var observer trace.Observer
	if s.metrics != nil {
		observer = s.metrics
	}
	tracer := trace.NewMiddleware(s.logger, s.detector.ExtractClientIP, observer)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP,
		func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
		},
		http.MethodPost, http.MethodPut, http.MethodDelete)

	// outermost first: trace sees every response, including rejections
	var h http.Handler = mux
	h = limit(h)
	h = s.detector.Middleware(s.logger)(h)
	h = headers.Middleware(h)
	h = tracer.Middleware(h)
	return h
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs until Shutdown; a clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
