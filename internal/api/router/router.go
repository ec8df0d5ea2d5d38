package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kaizendigital/leadflow/internal/chat"
	"github.com/kaizendigital/leadflow/internal/followup"
	httpmiddleware "github.com/kaizendigital/leadflow/internal/http/middleware"
	"github.com/kaizendigital/leadflow/internal/leads"
	"github.com/kaizendigital/leadflow/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	LeadsHandler    *leads.Handler
	ChatHandler     *chat.Handler
	FollowupHandler *followup.Handler
	MetricsHandler  http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Requests/sec and burst for the public endpoints; 0 disables limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		if cfg.RateLimitPerSecond > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}

		public.Get("/health", healthCheck)

		if cfg.LeadsHandler != nil {
			public.Post("/leads", cfg.LeadsHandler.Upsert)
			public.Get("/leads", cfg.LeadsHandler.Get)
		}
		if cfg.FollowupHandler != nil {
			public.Route("/messaging", func(r chi.Router) {
				r.Post("/schedule", cfg.FollowupHandler.Schedule)
				r.Get("/schedule", cfg.FollowupHandler.GetStats)
			})
		}
		if cfg.ChatHandler != nil {
			public.Route("/chat", func(r chi.Router) {
				r.Post("/message", cfg.ChatHandler.HandleMessage)
				r.Get("/ws", cfg.ChatHandler.HandleWebSocket)
			})
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin routes, protected by an HMAC JWT. Responses here carry unmasked
	// contact details.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		if cfg.LeadsHandler != nil {
			admin.Get("/leads", cfg.LeadsHandler.List)
		}
		if cfg.FollowupHandler != nil {
			admin.Get("/messages", cfg.FollowupHandler.ListByLead)
			admin.Post("/messages/{id}/retry", cfg.FollowupHandler.Retry)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
