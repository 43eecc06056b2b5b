// Package profiles manages tenant membership records and the binding between
// profiles and roles, including the elevated admin designation for staff.
package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/shared"
)

// Profile is a user's membership record within one tenant. The coarse Class gates
// admin-only operations; the optional RoleID binds a fine-grained custom role.
type Profile struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	DisplayName string
	Class       shared.Class
	RoleID      *uuid.UUID
	CreatedAt   time.Time
}

// Actor converts the profile into an actor context for downstream services.
func (p Profile) Actor() shared.Actor {
	return shared.Actor{ProfileID: p.ID, TenantID: p.TenantID, Class: p.Class}
}
