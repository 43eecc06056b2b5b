package httpx

import (
	"errors"
	"net/http"

	"github.com/venuedesk/venuedesk/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Every guard
// violation gets a short, specific message; transient storage failures fall through
// to a generic 500 with no detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusForbidden, "Permission Denied", "admin access is required for this operation")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "the requested record does not exist")
	case errors.Is(err, shared.ErrImmutableRole):
		Problem(w, http.StatusConflict, "System Role", "system roles cannot be modified or deleted")
	case errors.Is(err, shared.ErrInvalidAssignment):
		Problem(w, http.StatusUnprocessableEntity, "Invalid Assignment", "the role cannot be assigned to this profile")
	case errors.Is(err, shared.ErrSelfDemotion):
		Problem(w, http.StatusConflict, "Self Demotion", "you cannot remove your own admin designation")
	case errors.Is(err, shared.ErrIneligibleClass):
		Problem(w, http.StatusUnprocessableEntity, "Ineligible Profile", "only staff profiles can be promoted to admin")
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
