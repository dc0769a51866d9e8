// Package http serves the dashboard, plan pages, section fragments and the
// plan/expense APIs.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/darkha03/MyCount/internal/cache"
	applog "github.com/darkha03/MyCount/internal/log"
	"github.com/darkha03/MyCount/internal/storage"
	appweb "github.com/darkha03/MyCount/web"
)

// ActivityPublisher notifies the export pipeline about expense changes.
// A nil publisher disables notifications.
type ActivityPublisher interface {
	PublishPlanActivity(ctx context.Context, planID, expenseID int64, action string) error
}

type Server struct {
	http.Server
	templates   *template.Template
	store       storage.Store
	publisher   ActivityPublisher
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	logs        *applog.StructuredLogger

	// Rendered section fragments, keyed plan:<hash>:<section>. Any
	// mutation of a plan drops every fragment under its prefix.
	fragmentCache *cache.LRUCache[string]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, store storage.Store, publisher ActivityPublisher) *Server {
	mux := http.NewServeMux()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentHTTP,
	})

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(logger)(mux),
		},
		store:         store,
		publisher:     publisher,
		rateLimiter:   newRateLimiter(),
		metrics:       &securityMetrics{},
		logs:          applog.NewStructuredLogger(logger),
		fragmentCache: cache.NewLRUCache[string](200, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}
	s.cacheManager.Register(s.fragmentCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /{$}", s.withMiddleware(s.handleRoot))
	mux.HandleFunc("GET /plans/{$}", s.withMiddleware(s.handleDashboardPage))
	mux.HandleFunc("GET /plans/{hashID}", s.withMiddleware(s.handlePlanPage))

	// Section fragments and expense CRUD consumed by the section controllers.
	mux.HandleFunc("GET /plans/{hashID}/section/{name}", s.withMiddleware(s.handleSection))
	mux.HandleFunc("GET /plans/{hashID}/section/expenses/{expenseID}", s.withMiddleware(s.handleExpenseDetail))
	mux.HandleFunc("POST /plans/{hashID}/section/expenses", s.withMiddleware(s.handleCreateExpense))
	mux.HandleFunc("PUT /plans/{hashID}/section/expenses/{expenseID}", s.withMiddleware(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /plans/{hashID}/section/expenses/{expenseID}", s.withMiddleware(s.handleDeleteExpense))

	// Plan CRUD and join API.
	mux.HandleFunc("GET /plans/api/plans", s.withMiddleware(s.handleListPlans))
	mux.HandleFunc("POST /plans/api/plans", s.withMiddleware(s.handleCreatePlan))
	mux.HandleFunc("GET /plans/api/plans/{hashID}", s.withMiddleware(s.handleGetPlan))
	mux.HandleFunc("PUT /plans/api/plans/{hashID}", s.withMiddleware(s.handleUpdatePlan))
	mux.HandleFunc("DELETE /plans/api/plans/{hashID}", s.withMiddleware(s.handleDeletePlan))
	mux.HandleFunc("GET /plans/api/plans/{hashID}/join", s.withMiddleware(s.handleJoinInfo))
	mux.HandleFunc("POST /plans/api/plans/{hashID}/join", s.withMiddleware(s.handleJoinPlan))

	return s
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request",
				"request_id", requestID,
				"method", r.Method,
				"url", r.URL.Path,
				"client_ip", clientIP)
		}

		// Rate limit mutating requests only; fragment polling stays cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logs.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/plans/", http.StatusSeeOther)
}

func (s *Server) fragmentCacheKey(hashID, section string) string {
	return "plan:" + hashID + ":" + section
}

// invalidatePlanFragments drops every cached fragment of the plan.
func (s *Server) invalidatePlanFragments(hashID string) {
	s.fragmentCache.DeletePrefix("plan:" + hashID + ":")
}

// publishActivity fires the export notification without ever failing the
// request; the HTTP path must not depend on the broker being up.
func (s *Server) publishActivity(ctx context.Context, planID, expenseID int64, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPlanActivity(ctx, planID, expenseID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish plan activity",
			"error", err,
			"plan_id", planID,
			"expense_id", expenseID,
			"action", action)
	}
}
