// Package router wires HTTP handlers into the chi mux.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carewave/hospital-concierge/internal/admin"
	"github.com/carewave/hospital-concierge/internal/concierge"
	httpmiddleware "github.com/carewave/hospital-concierge/internal/http/middleware"
	"github.com/carewave/hospital-concierge/internal/marketing"
	"github.com/carewave/hospital-concierge/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	ConciergeHandler   *concierge.Handler
	MarketingHandler   *marketing.Handler
	AdminHandler       *admin.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

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

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		// Consultation endpoints. /api/chat keeps the legacy path alive
		// and serves the medical persona.
		if cfg.ConciergeHandler != nil {
			api.Post("/chat", cfg.ConciergeHandler.Chat(concierge.ModeMedical))
			api.Post("/medical/chat", cfg.ConciergeHandler.Chat(concierge.ModeMedical))
			api.Post("/healthcare/chat", cfg.ConciergeHandler.Chat(concierge.ModeHealthcare))
		}

		if cfg.MarketingHandler != nil {
			api.Route("/marketing", func(m chi.Router) {
				m.Post("/track", cfg.MarketingHandler.Track)
				m.Post("/attach", cfg.MarketingHandler.Attach)
			})
		}

		api.Route("/admin", func(adm chi.Router) {
			if cfg.AdminHandler != nil {
				adm.Post("/login", cfg.AdminHandler.Login)
			}

			adm.Group(func(protected chi.Router) {
				protected.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

				if cfg.AdminHandler != nil {
					protected.Post("/create", cfg.AdminHandler.CreateUser)
					protected.Delete("/delete", cfg.AdminHandler.DeleteUser)
					protected.Get("/list", cfg.AdminHandler.ListUsers)
				}
				if cfg.MarketingHandler != nil {
					protected.Route("/marketing", func(m chi.Router) {
						m.Get("/daily", cfg.MarketingHandler.Daily)
						m.Get("/conversions", cfg.MarketingHandler.Conversions)
						m.Get("/utm-links", cfg.MarketingHandler.ListUTMLinks)
						m.Post("/utm-links", cfg.MarketingHandler.CreateUTMLink)
					})
				}
			})
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
