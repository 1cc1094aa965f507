package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	appMiddleware "github.com/FACorreiaa/go-poi-walks/app/middleware"
	"github.com/FACorreiaa/go-poi-walks/internal/api/places"
	"github.com/FACorreiaa/go-poi-walks/internal/api/recents"
	"github.com/FACorreiaa/go-poi-walks/internal/api/walk"
)

// Config contains dependencies needed for the router setup
type Config struct {
	WalkHandler            *walk.Handler
	PlacesHandler          *places.Handler
	RecentsHandler         *recents.Handler
	// Nil leaves the admin routes unmounted.
	AuthenticateMiddleware func(http.Handler) http.Handler

	// Requests per Window allowed from one client IP on the walk endpoint.
	// Zero disables the limit.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	AllowedOrigins    []string
}

// SetupRouter initializes and configures the application router.
// Server-wide middleware (logger, requestID, recoverer) are applied
// before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.RateLimitRequests > 0 {
				r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
			}
			r.Post("/walks", cfg.WalkHandler.PlanWalk)
		})

		if cfg.AuthenticateMiddleware == nil {
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Use(appMiddleware.RequireRole(appMiddleware.RoleAdmin))
			r.Post("/admin/places", cfg.PlacesHandler.IngestPlaces)
			r.Get("/admin/walks/recent", cfg.RecentsHandler.GetRecentWalks)
		})
	})

	return r
}
