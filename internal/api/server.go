// Package api serves the expenses REST backend.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
)

const listCacheKey = "expenses"

// Options tunes a Server. Zero values pick defaults.
type Options struct {
	Logger *log.Logger
	// CacheTTL bounds how long a list response may be served from memory.
	CacheTTL time.Duration
	// WritesPerMinute limits POST, PUT and DELETE per client address.
	WritesPerMinute int
	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string
	Now            func() time.Time
}

type Server struct {
	http.Server
	svc       *services.ExpenseService
	logger    *log.Logger
	listCache cache.Cache[[]core.Expense]
	caches    *cache.Manager
	// listMu orders cache fills against invalidations; listGen counts
	// invalidations so a list read before a write is never cached after it.
	listMu   sync.Mutex
	listGen  uint64
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	origin   string
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware; call ListenAndServe to run it.
func NewServer(addr string, svc *services.ExpenseService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentAPI)

	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	listCache := cache.NewLRUCache[[]core.Expense](1, opts.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(listCache)
	caches.StartCleanup(5 * time.Minute)

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	s := &Server{
		svc:       svc,
		logger:    logger,
		listCache: listCache,
		caches:    caches,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.WritesPerMinute,
			WritesOnly:        true,
		}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		origin:   opts.AllowedOrigin,
		now:      opts.Now,
	}
	svc.OnChange(s.invalidateList)
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
	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})(h)
	h = s.withCORS(h)
	h = security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)
	return h
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops background work and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Ping(ctx); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Storage not ready", log.FieldError, err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
