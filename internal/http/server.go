package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"myexpense/internal/core"
	"myexpense/internal/export"
	"myexpense/internal/ledger"
	"myexpense/internal/log"
	"myexpense/internal/middleware/ratelimit"
	"myexpense/internal/middleware/security"
	"myexpense/internal/middleware/trace"
	"myexpense/internal/session"
	"myexpense/internal/views"
)

// Editor drives the edit session.
type Editor interface {
	State() session.State
	BeginEdit(id string) (core.Fields, error)
	Cancel()
	Submit(ctx context.Context, f core.Fields) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
}

type Dashboards interface {
	Dashboard(f core.Filter) views.Dashboard
}

type Themes interface {
	Get(ctx context.Context) (ledger.Theme, error)
	Set(ctx context.Context, t ledger.Theme) error
	Toggle(ctx context.Context) (ledger.Theme, error)
}

// Loader reloads the store from its backing medium.
type Loader interface {
	Load(ctx context.Context) ([]core.Transaction, error)
	Revision() int64
}

// Deps are the collaborators the API serves. Sheets may be nil when no
// spreadsheet is configured.
type Deps struct {
	Editor     Editor
	Dashboards Dashboards
	Themes     Themes
	Loader     Loader
	Sheets     export.SheetWriter
}

type Options struct {
	Logger         *log.Logger
	RateLimit      ratelimit.Config
	TrustedProxies []string
	ExportPrefix   string
	// Now stamps export file names.
	Now func() time.Time
}

type Server struct {
	http.Server
	deps    Deps
	logger  *log.Logger
	events  *log.StructuredLogger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	prefix  string
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	trusted := opts.TrustedProxies
	if trusted == nil {
		trusted = security.DefaultTrustedProxies
	}
	detector, err := security.NewDetector(trusted...)
	if err != nil {
		return nil, fmt.Errorf("create security detector: %w", err)
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		deps:    deps,
		logger:  logger,
		events:  log.NewStructuredLogger(logger),
		limiter: ratelimit.NewLimiter(opts.RateLimit),
		tracer:  trace.NewMiddleware(opts.Logger, detector.ExtractClientIP),
		prefix:  opts.ExportPrefix,
		now:     opts.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleSubmit)
	mux.HandleFunc("POST /api/transactions/{id}/edit", s.handleBeginEdit)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/edit", s.handleEditState)
	mux.HandleFunc("POST /api/edit/cancel", s.handleCancelEdit)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/export.csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/export.xlsx", s.handleExportXLSX)
	mux.HandleFunc("POST /api/export/sheet", s.handleExportSheet)
	mux.HandleFunc("GET /api/charts/category.png", s.handleCategoryChart)
	mux.HandleFunc("GET /api/charts/monthly.png", s.handleMonthlyChart)

	mux.HandleFunc("GET /api/theme", s.handleGetTheme)
	mux.HandleFunc("PUT /api/theme", s.handleSetTheme)
	mux.HandleFunc("POST /api/theme/toggle", s.handleToggleTheme)

	mux.HandleFunc("POST /api/reload", s.handleReload)

	limited := s.limiter.Middleware(detector.ExtractClientIP, ratelimit.Mutating, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
		)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = limited(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Metrics returns the request counters recorded so far.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown gracefully shuts down the server and its limiter
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
