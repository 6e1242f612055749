package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/itchan-dev/userhub/internal/middleware"
	"github.com/itchan-dev/userhub/internal/middleware/metrics"
	"github.com/itchan-dev/userhub/internal/setup"
)

// New creates and configures the chi router with all routes.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(mw.RequestId)
	r.Use(mw.Logging)
	r.Use(metrics.Middleware)

	// CORS for the SPA client
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.Public.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", deps.Handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMw.RequireAuth())

			// The account-status re-check covers mutations only: a blocked
			// account keeps read access for the remaining token lifetime.
			r.Get("/", h.ListUsers)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireActiveAccount(deps.Storage))
				r.Post("/block", h.BlockUsers)
				r.Post("/unblock", h.UnblockUsers)
				r.Delete("/delete", h.DeleteUsers)
			})
		})
	})

	return r
}
