package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/unrolled/secure"

	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/profiles"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// ProfileSource loads profiles for actor resolution.
type ProfileSource interface {
	Get(ctx context.Context, tenantID, profileID uuid.UUID) (profiles.Profile, error)
}

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger   *slog.Logger
	Config   *Config
	Profiles ProfileSource
	Metrics  *observability.Metrics
}

// MiddlewareStack installs the base middleware chain: security headers, metrics and
// actor resolution.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	return []func(http.Handler) http.Handler{
		secureMiddleware.Handler,
		cfg.Metrics.Middleware,
		ActorMiddleware(cfg),
	}
}

// ActorMiddleware resolves the authenticated actor from the identity headers set by
// the upstream auth proxy. The coarse class is always re-read from the profile row
// itself; a caller-supplied admin flag is never trusted. Requests without identity
// headers pass through with no actor in context, so mutating handlers reject them.
func ActorMiddleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	profileHeader := "X-Auth-Profile"
	tenantHeader := "X-Auth-Tenant"
	if cfg.Config != nil {
		if cfg.Config.ProfileHeader != "" {
			profileHeader = cfg.Config.ProfileHeader
		}
		if cfg.Config.TenantHeader != "" {
			tenantHeader = cfg.Config.TenantHeader
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profileID, perr := uuid.Parse(r.Header.Get(profileHeader))
			tenantID, terr := uuid.Parse(r.Header.Get(tenantHeader))
			if perr != nil || terr != nil {
				next.ServeHTTP(w, r)
				return
			}
			profile, err := cfg.Profiles.Get(r.Context(), tenantID, profileID)
			if err != nil {
				// Unknown identity is treated as anonymous, not as an error page.
				next.ServeHTTP(w, r)
				return
			}
			ctx := shared.ContextWithActor(r.Context(), profile.Actor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
