package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

const (
	defaultMaxUpload   = 10 << 20
	readHeaderTimeout  = 10 * time.Second
	writeTimeout       = 60 * time.Second
	idleTimeout        = 120 * time.Second
	readinessTimeout   = 5 * time.Second
	defaultRecentLimit = 50
)

// Services are the application services the API exposes.
type Services struct {
	Ledger    *services.LedgerService
	Dashboard *services.DashboardService
	Recurring *services.RecurringProcessor
	Import    *services.ImportService
}

type Config struct {
	Addr               string
	RateLimitPerMinute int
	// MaxUploadBytes bounds import files; defaults to 10 MiB.
	MaxUploadBytes int64
	// TrustedProxies are extra CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server
	svc            Services
	logger         *log.Logger
	maxUpload      int64
	rateLimiter    *ratelimit.Limiter
	detector       *security.Detector
	tracer         *trace.Middleware
	started        time.Time
	today          func() core.Date
	shutdownOnce   sync.Once
	transactionsIn int64
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}

	s := &Server{
		svc:       svc,
		logger:    logger,
		maxUpload: cfg.MaxUploadBytes,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
		detector: security.NewDetector(),
		started:  time.Now(),
		today:    svc.Ledger.Today,
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/budgets", s.handleBudgets)
	mux.HandleFunc("GET /api/analytics/trend", s.handleTrend)
	mux.HandleFunc("GET /api/analytics/year", s.handleYearOverYear)
	mux.HandleFunc("GET /api/analytics/categories", s.handleCategoryRanking)
	mux.HandleFunc("GET /api/analytics/category-trends", s.handleCategoryTrends)
	mux.HandleFunc("GET /api/analytics/merchants", s.handleMerchantRanking)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/recurring/pending", s.handlePending)
	mux.HandleFunc("POST /api/recurring/{id}/generate", s.handleGenerate)

	mux.HandleFunc("POST /api/import/preview", s.handleImportPreview)
	mux.HandleFunc("POST /api/import/commit", s.handleImportCommit)

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(h)
	h = s.detector.Middleware(s.onSuspicious)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, retry later")
}

func (s *Server) onSuspicious(r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		log.FieldUserAgent, r.UserAgent())
}

// Shutdown stops background goroutines and drains the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}
