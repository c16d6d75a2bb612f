package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"

	"razhodi/internal/cache"
	"razhodi/internal/ledger"
	applog "razhodi/internal/log"
	"razhodi/internal/middleware/ratelimit"
	"razhodi/internal/middleware/security"
	"razhodi/internal/middleware/trace"
	"razhodi/internal/services"
)

// Deps is what the server needs from the outside. Publisher and Sheets are
// optional.
type Deps struct {
	Store     ledger.Store
	Publisher services.GridPublisher
	Sheets    services.SheetReader
	Logger    *applog.Logger

	MaxUploadBytes    int64
	RequestsPerMinute int
	// StoreTimeout bounds the store calls of one request.
	StoreTimeout time.Duration
	// TrustedProxies lists the CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string
}

type Server struct {
	http.Server

	store      ledger.Store
	apartments *services.ApartmentService
	expenses   *services.ExpenseService
	rent       *services.RentService
	yearly     *services.YearlyService
	imports    *services.ImportService
	exports    *services.ExportService

	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	headers  *security.HeadersMiddleware
	tracer   *trace.Middleware

	dashboards *cache.LRUCache[services.Dashboard]
	cacheMgr   *cache.Manager

	maxUploadBytes int64
	storeTimeout   time.Duration
	sheetsEnabled  bool

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	started     time.Time
	imported    atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// NewServer wires the services over deps.Store and registers the routes.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("http server needs a store")
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 5 << 20
	}
	if deps.StoreTimeout <= 0 {
		deps.StoreTimeout = 10 * time.Second
	}

	detector, err := security.NewDetector(deps.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:          deps.Store,
		logger:         logger,
		detector:       detector,
		headers:        security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		limiter:        ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RequestsPerMinute}),
		dashboards:     cache.NewLRUCache[services.Dashboard](100, 5*time.Minute),
		cacheMgr:       cache.NewManager(),
		maxUploadBytes: deps.MaxUploadBytes,
		storeTimeout:   deps.StoreTimeout,
		sheetsEnabled:  deps.Sheets != nil,
	}
	s.appMetrics.started = time.Now()
	s.tracer = trace.NewMiddleware(logger, detector.ExtractClientIP)

	// every grid write passes through the cache before reaching the broker
	publisher := &invalidatingPublisher{server: s, next: deps.Publisher}
	s.apartments = services.NewApartmentService(deps.Store, publisher)
	s.expenses = services.NewExpenseService(deps.Store, publisher)
	s.rent = services.NewRentService(deps.Store)
	s.yearly = services.NewYearlyService(deps.Store)
	s.imports = services.NewImportService(deps.Store, publisher, deps.Sheets)
	s.exports = services.NewExportService(deps.Store)

	s.cacheMgr.Register(s.dashboards)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.wrap(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/apartments", s.handleListApartments)
	mux.HandleFunc("POST /api/apartments", s.handleCreateApartment)
	mux.HandleFunc("GET /api/apartments/{id}/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/apartments/{id}/categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /api/categories/{categoryID}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/apartments/{id}/years", s.handleYears)
	mux.HandleFunc("GET /api/apartments/{id}/grid", s.handleGrid)
	mux.HandleFunc("GET /api/apartments/{id}/trends", s.handleTrends)
	mux.HandleFunc("PUT /api/apartments/{id}/expenses", s.handleUpsertExpense)
	mux.HandleFunc("PUT /api/apartments/{id}/months/{month}", s.handleSaveMonth)
	mux.HandleFunc("DELETE /api/apartments/{id}/months/{month}", s.handleDeleteMonth)
	mux.HandleFunc("PATCH /api/expenses/{expenseID}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{expenseID}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/apartments/{id}/rent", s.handleRent)
	mux.HandleFunc("POST /api/apartments/{id}/rent/{month}/toggle", s.handleToggleRent)

	mux.HandleFunc("GET /api/apartments/{id}/yearly", s.handleListYearly)
	mux.HandleFunc("PUT /api/apartments/{id}/yearly", s.handleUpsertYearly)
	mux.HandleFunc("PATCH /api/yearly/{yearlyID}", s.handleUpdateYearly)
	mux.HandleFunc("DELETE /api/yearly/{yearlyID}", s.handleDeleteYearly)

	mux.HandleFunc("POST /api/import/preview", s.handleImportPreview)
	mux.HandleFunc("POST /api/apartments/{id}/import", s.handleImport)
	mux.HandleFunc("POST /api/apartments/{id}/import/sheet", s.handleImportSheet)
	mux.HandleFunc("GET /api/apartments/{id}/export", s.handleExport)
}

// wrap applies, outermost first: the Sentry hub (panics are reported, then
// re-raised), request tracing, security headers, scan detection and the
// write rate limit.
func (s *Server) wrap(h http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.Mutating, s.onRateLimit)(h)
	inspected := s.inspect(limited)
	secured := s.headers.Middleware(inspected)
	traced := s.tracer.Middleware(secured)
	return sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(traced)
}

func (s *Server) inspect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := s.detector.Inspect(r); reason != "" {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldPath, r.URL.Path,
				"reason", reason)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	clientIP := s.detector.ExtractClientIP(r)
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, clientIP,
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError(s.limiter.RetryAfter(clientIP)).Write(w)
}

// Shutdown stops the background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateApartment drops every cached dashboard of an apartment.
func (s *Server) invalidateApartment(apartmentID string) {
	prefix := apartmentID + "/"
	s.dashboards.DeleteFunc(func(key string) bool { return strings.HasPrefix(key, prefix) })
}

// invalidatingPublisher evicts the dashboards showing a changed year, which
// is the year itself and the next one (its previous-year comparison), then
// forwards to next.
type invalidatingPublisher struct {
	server *Server
	next   services.GridPublisher
}

func (p *invalidatingPublisher) PublishGridChanged(ctx context.Context, apartmentID string, year int) error {
	p.server.dashboards.Delete(dashboardKey(apartmentID, year))
	p.server.dashboards.Delete(dashboardKey(apartmentID, year+1))
	if p.next == nil {
		return nil
	}
	return p.next.PublishGridChanged(ctx, apartmentID, year)
}
