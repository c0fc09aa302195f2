package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	applog "footprint/internal/log"
	"footprint/internal/middleware/ratelimit"
	"footprint/internal/middleware/security"
	"footprint/internal/middleware/trace"
	"footprint/internal/services"
	"footprint/internal/store"
)

const defaultRequestTimeout = 10 * time.Second

// Deps are the collaborators the API serves from.
type Deps struct {
	Factors    store.FactorReader
	Activities *services.ActivityService
	Summaries  *services.SummaryService

	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error

	Logger             *applog.Logger
	RateLimitPerMinute int
	RequestTimeout     time.Duration
}

type Server struct {
	http.Server
	deps Deps

	logger      *applog.Logger
	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = defaultRequestTimeout
	}

	s := &Server{
		deps:     deps,
		logger:   deps.Logger.WithComponent(applog.ComponentHTTP),
		detector: security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
		}),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)

	api := http.NewServeMux()
	api.HandleFunc("GET /categories", s.handleListCategories)
	api.HandleFunc("GET /emission-factors", s.handleListFactors)

	api.HandleFunc("POST /users/{userID}/activities", s.handleCreateActivity)
	api.HandleFunc("GET /users/{userID}/activities", s.handleListActivities)
	api.HandleFunc("PUT /users/{userID}/activities/{activityID}", s.handleUpdateActivity)
	api.HandleFunc("DELETE /users/{userID}/activities/{activityID}", s.handleDeleteActivity)

	api.HandleFunc("GET /users/{userID}/summary/by-category", s.handleCategorySummary)
	api.HandleFunc("GET /users/{userID}/summary/physical", s.handlePhysicalSummary)
	api.HandleFunc("GET /users/{userID}/summary/economic", s.handleEconomicSummary)
	api.HandleFunc("GET /users/{userID}/summary/biggest-impactors", s.handleBiggestImpactors)
	api.HandleFunc("GET /users/{userID}/summary/daily", s.handleTimeSummary)
	api.HandleFunc("GET /users/{userID}/summary/weekly", s.handleTimeSummary)
	api.HandleFunc("GET /users/{userID}/summary/monthly", s.handleTimeSummary)
	api.HandleFunc("GET /users/{userID}/dashboard", s.handleDashboard)

	var apiHandler http.Handler = api
	apiHandler = s.withTimeout(apiHandler)
	apiHandler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
	})(apiHandler)
	apiHandler = s.withDetection(apiHandler)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/", apiHandler)

	var handler http.Handler = root
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      deps.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

// withTimeout bounds every API request; engine calls never block past it.
func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.deps.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) withDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request rejected",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.detector.ExtractClientIP(r))
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request rejected"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// Metrics exposes request counters for periodic logging.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// IsServerClosed reports whether err is the normal result of Shutdown.
func IsServerClosed(err error) bool {
	return errors.Is(err, http.ErrServerClosed)
}
