package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds everything the server routes to.
type Deps struct {
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Savings      *services.SavingsService
	Dashboard    *services.DashboardService
	Insights     *services.InsightsService

	// Storage is pinged by /readyz. Nil means always ready.
	Storage   Pinger
	Location  *time.Location
	Logger    *applog.Logger
	RateLimit ratelimit.Config
}

// Server is the JSON API server.
type Server struct {
	http.Server

	deps     Deps
	loc      *time.Location
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      90 * time.Second, // AI generation can be slow
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		deps:     deps,
		loc:      loc,
		limiter:  ratelimit.NewLimiter(deps.RateLimit),
		detector: security.NewDetector(),
	}

	api := http.NewServeMux()
	api.Handle("/api/transactions", methods{
		http.MethodGet:  s.handleListTransactions,
		http.MethodPost: s.handleCreateTransaction,
	})
	api.Handle("/api/transactions/import", methods{http.MethodPost: s.handleImportTransactions})
	api.Handle("/api/transactions/export", methods{http.MethodGet: s.handleExportTransactions})
	api.Handle("/api/transactions/{id}", methods{
		http.MethodPut:    s.handleUpdateTransaction,
		http.MethodDelete: s.handleDeleteTransaction,
	})
	api.Handle("/api/budgets", methods{
		http.MethodGet:  s.handleListBudgets,
		http.MethodPost: s.handleCreateBudget,
	})
	api.Handle("/api/budgets/{id}", methods{
		http.MethodPut:    s.handleUpdateBudget,
		http.MethodDelete: s.handleDeleteBudget,
	})
	api.Handle("/api/savings-goals", methods{
		http.MethodGet:  s.handleListSavingsGoals,
		http.MethodPost: s.handleCreateSavingsGoal,
	})
	api.Handle("/api/savings-goals/{id}", methods{
		http.MethodPut:    s.handleUpdateSavingsGoal,
		http.MethodDelete: s.handleDeleteSavingsGoal,
	})
	api.Handle("/api/savings-goals/{id}/tips", methods{http.MethodPost: s.handleSavingsTips})
	api.Handle("/api/dashboard", methods{http.MethodGet: s.handleDashboard})
	api.Handle("/api/dashboard/categories.png", methods{http.MethodGet: s.handleCategoryChart})
	api.Handle("/api/insights", methods{http.MethodPost: s.handleInsights})
	api.Handle("/api/insights/query", methods{http.MethodPost: s.handleQuery})
	api.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, http.StatusNotFound, "no such endpoint")
	})

	mux := http.NewServeMux()
	mux.Handle("/healthz", methods{http.MethodGet: handleHealth})
	mux.Handle("/readyz", methods{http.MethodGet: s.handleReady})
	mux.Handle("/api/", s.limiter.Middleware(s.detector.ExtractClientIP, onRateLimit)(requireUser(api)))

	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, deps.Logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.tracer.Middleware(headers.Middleware(s.detector.Middleware(mux)))
	return s
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)

		requests := s.tracer.GetMetrics()
		limits := s.limiter.GetMetrics()
		probes := s.detector.GetMetrics()
		slog.InfoContext(ctx, "HTTP server stopped",
			applog.FieldComponent, applog.ComponentHTTP,
			"total_requests", requests.TotalRequests,
			"last_response_us", requests.LastResponseTime,
			"rate_limited", limits.Rejected,
			"tracked_clients", limits.ClientCount,
			"suspicious_requests", probes.SuspiciousRequests,
			"invalid_ip_attempts", probes.InvalidIPAttempts)
	})
	return err
}

// methods dispatches on the request method and answers 405 otherwise.
type methods map[string]http.HandlerFunc

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}
	if r.Method == http.MethodHead {
		if h, ok := m[http.MethodGet]; ok {
			h(w, r)
			return
		}
	}
	allow := make([]string, 0, len(m))
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		if _, ok := m[method]; ok {
			allow = append(allow, method)
		}
	}
	NewResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", strings.Join(allow, ", ")).
		JSON(errorBody{Error: "method not allowed"}).
		Write(w)
}

func onRateLimit(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		"method", r.Method,
		"path", r.URL.Path)
	ErrorResponse(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Bytes("text/plain; charset=utf-8", []byte("ok")).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Storage.Ping(ctx); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", applog.FieldComponent, applog.ComponentHTTP, applog.FieldError, err)
			ErrorResponse(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	NewResponse().Bytes("text/plain; charset=utf-8", []byte("ready")).Write(w)
}
