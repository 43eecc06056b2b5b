package roles

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/permissions"
	"github.com/venuedesk/venuedesk/internal/platform/httpx"
	"github.com/venuedesk/venuedesk/internal/shared"
)

type openSessionRequest struct {
	ForUserClass UserClass `json:"for_user_class" validate:"required,oneof=staff cast"`
}

type setNameRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type setLevelRequest struct {
	Page  permissions.PageKey `json:"page"`
	Level permissions.Level   `json:"level"`
}

type setCategoryRequest struct {
	Category permissions.Category `json:"category"`
	Level    permissions.Level    `json:"level"`
}

type categoryStateResponse struct {
	AllNone bool `json:"all_none"`
	AllView bool `json:"all_view"`
	AllEdit bool `json:"all_edit"`
}

type sessionResponse struct {
	SessionID    uuid.UUID                                      `json:"session_id"`
	RoleID       *uuid.UUID                                     `json:"role_id,omitempty"`
	Name         string                                         `json:"name"`
	ForUserClass UserClass                                      `json:"for_user_class"`
	Permissions  permissions.Map                                `json:"permissions"`
	Categories   map[permissions.Category]categoryStateResponse `json:"categories"`
	Dirty        bool                                           `json:"dirty"`
}

func toSessionResponse(sessionID uuid.UUID, session *Session) sessionResponse {
	draft := session.Draft()
	categories := make(map[permissions.Category]categoryStateResponse)
	for category, state := range session.CategoryStates() {
		categories[category] = categoryStateResponse{
			AllNone: state.AllNone,
			AllView: state.AllView,
			AllEdit: state.AllEdit,
		}
	}
	resp := sessionResponse{
		SessionID:    sessionID,
		Name:         draft.Name,
		ForUserClass: draft.ForUserClass,
		Permissions:  draft.Permissions,
		Categories:   categories,
		Dirty:        session.Dirty(),
	}
	if roleID, bound := session.RoleID(); bound {
		resp.RoleID = &roleID
	}
	return resp
}

func (h *Handler) mountEditorRoutes(r chi.Router) {
	r.Post("/", h.openSession)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Delete("/", h.closeSession)
		r.Post("/commit", h.commitSession)
		r.Put("/name", h.sessionSetName)
		r.Put("/level", h.sessionSetLevel)
		r.Put("/category", h.sessionSetCategory)
	})
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	var req openSessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sessionID, session, err := h.sessions.Open(r.Context(), actor, req.ForUserClass)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSessionResponse(sessionID, session))
}

func (h *Handler) openSessionForRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	roleID, err := uuid.Parse(chi.URLParam(r, "roleID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	role, err := h.store.GetByID(r.Context(), actor.TenantID, roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if role.IsSystemRole {
		httpx.RespondError(w, shared.ErrImmutableRole)
		return
	}
	sessionID, session, err := h.sessions.OpenForRole(r.Context(), actor, role)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSessionResponse(sessionID, session))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID, session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, toSessionResponse(sessionID, session))
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.sessions.Close(sessionID, actor); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) commitSession(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	role, err := session.Create(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(role))
}

func (h *Handler) sessionSetName(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	var req setNameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	session.SetName(req.Name)
	httpx.NoContent(w)
}

func (h *Handler) sessionSetLevel(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	var req setLevelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if !permissions.IsValidPage(req.Page) || !req.Level.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown page or level")
		return
	}
	session.SetLevel(req.Page, req.Level)
	httpx.NoContent(w)
}

func (h *Handler) sessionSetCategory(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	var req setCategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if !validCategory(req.Category) || !req.Level.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown category or level")
		return
	}
	session.SetCategory(req.Category, req.Level)
	httpx.NoContent(w)
}

func (h *Handler) resolveSession(w http.ResponseWriter, r *http.Request) (uuid.UUID, *Session, bool) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return uuid.Nil, nil, false
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return uuid.Nil, nil, false
	}
	session, err := h.sessions.Get(sessionID, actor)
	if err != nil {
		httpx.RespondError(w, err)
		return uuid.Nil, nil, false
	}
	return sessionID, session, true
}

func validCategory(c permissions.Category) bool {
	for _, known := range permissions.Categories() {
		if c == known {
			return true
		}
	}
	return false
}
