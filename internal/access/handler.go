package access

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/permissions"
	"github.com/venuedesk/venuedesk/internal/platform/httpx"
	"github.com/venuedesk/venuedesk/internal/profiles"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// ProfileSource loads the caller's full profile record.
type ProfileSource interface {
	Get(ctx context.Context, tenantID, profileID uuid.UUID) (profiles.Profile, error)
}

// Handler serves the access resolution endpoints consumed by navigation and page
// renderers.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	profiles ProfileSource
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, profileSource ProfileSource) *Handler {
	return &Handler{logger: logger, service: service, profiles: profileSource}
}

// MountRoutes registers access routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/pages", h.listPages)
	r.Get("/pages/{page}", h.resolvePage)
}

type pageAccessResponse struct {
	Page      permissions.PageKey `json:"page"`
	Level     permissions.Level   `json:"level"`
	HasAccess bool                `json:"has_access"`
	CanEdit   bool                `json:"can_edit"`
}

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	profile, err := h.profiles.Get(r.Context(), actor.TenantID, actor.ProfileID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pages, err := h.service.ListVisiblePages(r.Context(), actor.TenantID, profile)
	if err != nil {
		h.logger.Error("list visible pages", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if pages == nil {
		pages = []permissions.PageKey{}
	}
	httpx.JSON(w, http.StatusOK, pages)
}

func (h *Handler) resolvePage(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	page := permissions.PageKey(chi.URLParam(r, "page"))
	if !permissions.IsValidPage(page) {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	profile, err := h.profiles.Get(r.Context(), actor.TenantID, actor.ProfileID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	level, err := h.service.ResolveAccess(r.Context(), actor.TenantID, profile, page)
	if err != nil {
		h.logger.Error("resolve access", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pageAccessResponse{
		Page:      page,
		Level:     level,
		HasAccess: permissions.HasAccess(level),
		CanEdit:   permissions.CanEdit(level),
	})
}
