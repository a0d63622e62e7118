package router

import (
	"net/http"

	"rental-storefront/internal/handler"
	"rental-storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(facade *handler.Facade, apiKey string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// RequestID -> Recovery -> Logging -> CORS -> APIKeyAuth
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.APIKeyAuth(apiKey, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok": true, "status": "healthy"}`))
	})

	r.Post("/api/exec", facade.Exec)

	return r
}
