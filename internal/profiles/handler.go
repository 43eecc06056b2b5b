package profiles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/platform/httpx"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// Handler manages role-assignment and admin-designation endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers profile assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/{profileID}/role", h.assignRole)
	r.Put("/{profileID}/admin", h.setAdmin)
}

type assignRoleRequest struct {
	RoleID *uuid.UUID `json:"role_id"`
}

type setAdminRequest struct {
	Admin bool `json:"admin"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	profileID, err := uuid.Parse(chi.URLParam(r, "profileID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.AssignRole(r.Context(), actor, profileID, req.RoleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) setAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	profileID, err := uuid.Parse(chi.URLParam(r, "profileID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req setAdminRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.SetAdminDesignation(r.Context(), actor, profileID, req.Admin); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
