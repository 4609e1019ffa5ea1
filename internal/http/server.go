package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/cors"

	"github.com/iamdivyeshtailor/finance-management/internal/cache"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
	"github.com/iamdivyeshtailor/finance-management/internal/middleware/ratelimit"
	"github.com/iamdivyeshtailor/finance-management/internal/middleware/security"
	"github.com/iamdivyeshtailor/finance-management/internal/middleware/trace"
	"github.com/iamdivyeshtailor/finance-management/internal/services"
	"github.com/iamdivyeshtailor/finance-management/internal/sheets"
	"github.com/iamdivyeshtailor/finance-management/internal/statement"
)

// Deps are the services behind the API. ReportSheet and Ready are optional.
type Deps struct {
	Expenses *services.ExpenseService
	Budget   *services.BudgetService
	Imports  *services.ImportService

	// ReportSheet receives reports exported with POST /reports/monthly/sheet.
	ReportSheet sheets.ReportWriter
	// Ready reports whether the data store is usable.
	Ready func(ctx context.Context) error
}

type Option func(*Server)

// WithMaxUploadBytes caps statement uploads. The default is statement.DefaultMaxBytes.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.rateCfg = cfg }
}

// WithCORS lets browsers on origins call the API. "*" allows any origin.
func WithCORS(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock fixes the time used for month defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

type appMetrics struct {
	uptime           time.Time
	expensesCreated  int64
	importsCommitted int64
}

type Server struct {
	http.Server
	deps      Deps
	logger    *log.Logger
	maxUpload int64
	now       func() time.Time

	rateCfg         ratelimit.Config
	corsOrigins     []string
	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	traceMiddleware *trace.Middleware
	cacheManager    *cache.Manager
	appMetrics      appMetrics

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. Import batch expiry starts with the server.
func NewServer(addr string, deps Deps, opts ...Option) *Server {
	s := &Server{
		deps:      deps,
		logger:    log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP),
		maxUpload: statement.DefaultMaxBytes,
		now:       time.Now,
		rateCfg:   ratelimit.DefaultConfig(),
		detector:  security.NewDetector(),
		appMetrics: appMetrics{
			uptime: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rateLimiter = ratelimit.NewLimiter(s.rateCfg)
	s.traceMiddleware = trace.NewMiddleware(s.detector.ExtractClientIP)
	s.cacheManager = cache.NewManager()
	if deps.Imports != nil {
		s.cacheManager.Register("import_batches", deps.Imports.Sessions())
	}
	s.cacheManager.StartCleanup(time.Minute)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = log.Middleware(s.logger, trace.GetRequestID)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	if len(s.corsOrigins) > 0 {
		h = newCORS(s.corsOrigins).Handler(h)
	}
	h = s.detector.Middleware(h)
	h = s.traceMiddleware.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// newCORS answers preflight requests itself; they never reach the rate limiter.
func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Location", "X-Request-ID", "Retry-After", "Content-Disposition"},
		MaxAge:         600,
	})
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("PUT /settings", s.handlePutSettings)

	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses/export.csv", s.handleExportExpenses)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /reports/current", s.handleCurrentReport)
	mux.HandleFunc("GET /reports/monthly", s.handleMonthlyReport)
	mux.HandleFunc("GET /reports/monthly.csv", s.handleMonthlyReportCSV)
	mux.HandleFunc("GET /reports/monthly.pdf", s.handleMonthlyReportPDF)
	mux.HandleFunc("POST /reports/monthly/sheet", s.handleMonthlyReportSheet)
	mux.HandleFunc("GET /reports/history", s.handleReportHistory)

	mux.HandleFunc("POST /expenses/import/parse", s.handleImportParse)
	mux.HandleFunc("POST /expenses/import/save", s.handleImportSave)
	mux.HandleFunc("GET /expenses/import/batches/{id}", s.handleBatchView)
	mux.HandleFunc("POST /expenses/import/batches/{id}/toggle", s.handleBatchToggle)
	mux.HandleFunc("POST /expenses/import/batches/{id}/filter", s.handleBatchFilter)
	mux.HandleFunc("POST /expenses/import/batches/{id}/select-all", s.handleBatchSelectAll)
	mux.HandleFunc("POST /expenses/import/batches/{id}/deselect-all", s.handleBatchDeselectAll)
	mux.HandleFunc("POST /expenses/import/batches/{id}/category", s.handleBatchCategory)
	mux.HandleFunc("POST /expenses/import/batches/{id}/tags", s.handleBatchTags)
	mux.HandleFunc("POST /expenses/import/batches/{id}/commit", s.handleBatchCommit)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").
		Header("Retry-After", "60").
		Write(w)
}

// fail logs err and writes the matching error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, errBadBody) {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	resp := ErrorFor(err)
	fields := log.NewFields().WithOperation(op).WithError(err).WithErrorType(errorType(err)).ToSlice()
	l := log.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "Request failed", fields...)
	} else {
		l.WarnContext(r.Context(), "Request rejected", fields...)
	}
	resp.Write(w)
}

// Shutdown stops the background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
		s.logger.InfoContext(ctx, "HTTP server stopped",
			log.FieldOperation, log.OpShutdown,
			"expenses_created", atomic.LoadInt64(&s.appMetrics.expensesCreated),
			"imports_committed", atomic.LoadInt64(&s.appMetrics.importsCommitted))
	})
	return err
}
