// Package http wires the JSON API and the templated HTML pages.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/web"
)

const (
	reportCacheSize = 128
	reportCacheTTL  = 5 * time.Minute
)

// Options configures the HTTP server.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	RateLimit      ratelimit.Config
}

// Server serves the API under /api and the HTML pages at the root.
type Server struct {
	httpServer *http.Server

	repo         *storage.Repository
	transactions *services.TransactionService
	budgets      *services.BudgetService
	sessions     *auth.Manager

	maxUploadBytes int64
	limiter        *ratelimit.Limiter
	clientIP       *security.ClientIPExtractor

	// Report aggregations are cached and dropped wholesale on any write
	// that can change them.
	spendingCache *cache.LRUCache[*core.SpendingReport]
	trendCache    *cache.LRUCache[[]core.MonthPoint]
	cacheManager  *cache.Manager

	templates *template.Template
	logger    *log.Logger

	shutdownOnce sync.Once
}

func NewServer(opts Options, repo *storage.Repository, transactions *services.TransactionService, budgets *services.BudgetService, sessions *auth.Manager) (*Server, error) {
	templates, err := template.ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		repo:           repo,
		transactions:   transactions,
		budgets:        budgets,
		sessions:       sessions,
		maxUploadBytes: opts.MaxUploadBytes,
		limiter:        ratelimit.NewLimiter(opts.RateLimit),
		clientIP:       security.NewClientIPExtractor(),
		spendingCache:  cache.NewLRUCache[*core.SpendingReport](reportCacheSize, reportCacheTTL),
		trendCache:     cache.NewLRUCache[[]core.MonthPoint](reportCacheSize, reportCacheTTL),
		cacheManager:   cache.NewManager(),
		templates:      templates,
		logger:         log.NewComponent(log.ComponentHTTP),
	}

	s.cacheManager.Register(s.spendingCache)
	s.cacheManager.Register(s.trendCache)
	s.cacheManager.StartCleanup(reportCacheTTL)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	traceMW := trace.NewMiddleware(s.logger, s.clientIP.ExtractClientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	r.Use(log.Middleware(s.logger))
	r.Use(traceMW.Middleware)
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	}))
	r.Use(headersMW.Middleware)
	r.Use(s.limiter.Middleware(s.clientIP.ExtractClientIP))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	static, _ := fs.Sub(web.StaticFS, "static")
	r.With(security.StaticAssetMiddleware(86400)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// Pages. The session gate lives on the API; pages render for everyone
	// and redirect to /login client-side when API calls come back 401.
	r.Get("/", s.page("dashboard.html", "Dashboard"))
	r.Get("/transactions", s.page("transactions.html", "Transactions"))
	r.Get("/transactions/new", s.page("transaction_form.html", "New Transaction"))
	r.Get("/categories", s.page("categories.html", "Categories"))
	r.Get("/budgets", s.page("budgets.html", "Budgets"))
	r.Get("/reports", s.page("reports.html", "Reports"))
	r.Get("/import", s.page("import.html", "Import"))
	r.Get("/login", s.page("login.html", "Sign In"))

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", s.handleRegister)
		api.Post("/auth/login", s.handleLogin)
		api.Post("/auth/logout", s.handleLogout)

		api.Group(func(pr chi.Router) {
			pr.Use(s.sessions.Middleware)

			pr.Get("/auth/me", s.handleMe)

			pr.Route("/transactions", func(tr chi.Router) {
				tr.Get("/", s.handleListTransactions)
				tr.Post("/", s.handleCreateTransaction)
				tr.Get("/accounts", s.handleListAccounts)
				tr.Post("/bulk", s.handleBulkCategorize)
				tr.Post("/recategorize", s.handleRecategorize)
				tr.Get("/{id}", s.handleGetTransaction)
				tr.Put("/{id}", s.handleUpdateTransaction)
				tr.Delete("/{id}", s.handleDeleteTransaction)
			})

			pr.Route("/categories", func(cr chi.Router) {
				cr.Get("/", s.handleListCategories)
				cr.Post("/", s.handleCreateCategory)
				cr.Get("/hierarchy", s.handleCategoryHierarchy)
				cr.Get("/{id}", s.handleGetCategory)
				cr.Put("/{id}", s.handleUpdateCategory)
				cr.Delete("/{id}", s.handleDeleteCategory)
				cr.Get("/{id}/children", s.handleCategoryChildren)
			})

			pr.Route("/budgets", func(br chi.Router) {
				br.Get("/", s.handleListBudgets)
				br.Post("/", s.handleCreateBudget)
				br.Get("/summary", s.handleBudgetSummary)
				br.Get("/{id}", s.handleGetBudget)
				br.Put("/{id}", s.handleUpdateBudget)
				br.Delete("/{id}", s.handleDeleteBudget)
			})

			pr.Route("/rules", func(rr chi.Router) {
				rr.Get("/", s.handleListRules)
				rr.Post("/", s.handleCreateRule)
				rr.Delete("/{id}", s.handleDeleteRule)
			})

			pr.Post("/import", s.handleImport)

			pr.Get("/reports/spending-by-category", s.handleSpendingByCategory)
			pr.Get("/reports/spending-over-time", s.handleSpendingOverTime)
			pr.Get("/reports/category-trend", s.handleCategoryTrend)
			pr.Get("/reports/spending-histogram", s.handleSpendingHistogram)
			pr.Get("/reports/summary", s.handleReportSummary)
			pr.Get("/reports/trend", s.handleTrend)

			pr.Get("/ml/status", s.handleMLStatus)
			pr.Post("/ml/predict", s.handleMLPredict)
		})
	})

	return r
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown drains in-flight requests and stops background goroutines.
// Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("HTTP server shutting down")
		s.limiter.Stop()
		s.cacheManager.Stop()
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

// invalidateReports drops cached report aggregations after a write.
func (s *Server) invalidateReports() {
	s.spendingCache.Clear()
	s.trendCache.Clear()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database not reachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// page returns a handler rendering one embedded template.
func (s *Server) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := map[string]any{"Title": title}
		if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
				"template", name, "error", err)
		}
	}
}
