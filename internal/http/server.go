package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/tracker"
	appweb "expenses/web"
)

// Options tunes a Server. Zero values pick defaults.
type Options struct {
	Logger *log.Logger
	Now    func() time.Time
	// PostsPerMinute limits form submissions per client address.
	PostsPerMinute int
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string
}

type Server struct {
	http.Server
	tracker   *tracker.Tracker
	templates *template.Template
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	now       func() time.Time
	started   time.Time

	// loaded flips once the tracker holds the backend's list.
	loaded       atomic.Bool
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, t *tracker.Tracker, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tmpl, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	s := &Server{
		tracker:   t,
		templates: tmpl,
		logger:    logger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.PostsPerMinute,
			WritesOnly:        true,
		}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		now:      opts.Now,
		started:  opts.Now(),
	}

	handler, err := s.routes()
	if err != nil {
		s.limiter.Stop()
		return nil, err
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() (http.Handler, error) {
	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("POST /expenses/{index}/edit", s.handleEditExpense)
	mux.HandleFunc("POST /expenses/{index}/delete", s.handleDeleteExpense)
	mux.HandleFunc("POST /budget", s.handleSetBudget)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").Write(w)
	})(h)
	h = security.NewHeadersMiddleware(security.PageHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)
	return h, nil
}

// Load fetches the list into the tracker. GET / retries it until it
// succeeds once.
func (s *Server) Load(ctx context.Context) error {
	if err := s.tracker.Load(ctx); err != nil {
		return err
	}
	s.loaded.Store(true)
	return nil
}

// ensureLoaded retries Load until it has succeeded once and reports whether
// the tracker holds the backend's list.
func (s *Server) ensureLoaded(ctx context.Context) bool {
	if s.loaded.Load() {
		return true
	}
	if err := s.Load(ctx); err != nil {
		s.logger.WarnContext(ctx, "Expense list not loaded yet", log.FieldError, err)
		return false
	}
	return true
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
