package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/sitequote/internal/contact"
	"github.com/wolfman30/sitequote/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/sitequote/internal/http/middleware"
	"github.com/wolfman30/sitequote/internal/leads"
	"github.com/wolfman30/sitequote/internal/pricing"
	"github.com/wolfman30/sitequote/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	PricingHandler     *pricing.Handler
	QuoteHandler       *handlers.QuoteHandler
	ContactHandler     *contact.Handler
	LeadsHandler       *leads.Handler
	HealthHandler      http.Handler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// SubmitLimiter throttles quote submission and contact relay per client IP.
	SubmitLimiter *httpmiddleware.RateLimiter
	// SessionLimiter throttles quote session creation per client IP.
	SessionLimiter *httpmiddleware.RateLimiter
}

// maxAPIBodyBytes bounds request bodies under /api.
const maxAPIBodyBytes = 64 << 10

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	limit := func(r chi.Router, limiter *httpmiddleware.RateLimiter) chi.Router {
		if limiter == nil {
			return r
		}
		return r.With(httpmiddleware.RateLimit(limiter))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		if cfg.HealthHandler != nil {
			public.Method(http.MethodGet, "/health", cfg.HealthHandler)
		} else {
			public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.AllowContentType("application/json"))
		api.Use(middleware.RequestSize(maxAPIBodyBytes))

		if cfg.PricingHandler != nil {
			api.Get("/catalog", cfg.PricingHandler.GetCatalog)
			api.Post("/estimate", cfg.PricingHandler.PostEstimate)
		}

		if cfg.QuoteHandler != nil {
			q := cfg.QuoteHandler
			limit(api, cfg.SessionLimiter).Post("/quotes", q.Create)
			api.Route("/quotes/{id}", func(r chi.Router) {
				r.Get("/", q.Get)
				r.Delete("/", q.Delete)
				r.Put("/type", q.SelectType)
				r.Put("/description", q.SetDescription)
				r.Put("/pages", q.SetPages)
				r.Post("/pages/increment", q.IncrementPages)
				r.Post("/pages/decrement", q.DecrementPages)
				r.Post("/reset", q.Reset)
				limit(r, cfg.SubmitLimiter).Post("/submit", q.Submit)
			})
		}

		if cfg.ContactHandler != nil {
			limit(api, cfg.SubmitLimiter).Post("/contact", cfg.ContactHandler.Submit)
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" && cfg.LeadsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret, cfg.Logger))
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
			admin.Get("/leads/{leadID}", cfg.LeadsHandler.GetLead)
		})
	}

	return r
}
