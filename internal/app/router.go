package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/venuedesk/venuedesk/internal/access"
	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/profiles"
	"github.com/venuedesk/venuedesk/internal/roles"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config          *Config
	RolesHandler    *roles.Handler
	ProfilesHandler *profiles.Handler
	AccessHandler   *access.Handler
	Metrics         *observability.Metrics
	Middleware      []func(http.Handler) http.Handler
}

// NewRouter constructs the chi.Router with venuedesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	for _, mw := range params.Middleware {
		r.Use(mw)
	}
	if params.Config != nil && params.Config.AppRequestTimeout > 0 {
		r.Use(chimw.Timeout(params.Config.AppRequestTimeout))
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	// Mutations share a per-IP budget; reads stay unthrottled.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(120, time.Minute))
		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/profiles", params.ProfilesHandler.MountRoutes)
	})
	r.Route("/access", params.AccessHandler.MountRoutes)

	return r
}
