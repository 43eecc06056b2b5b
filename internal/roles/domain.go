// Package roles manages the lifecycle of tenant-scoped custom roles and the
// interactive editing session that persists them.
package roles

import (
	"time"

	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/permissions"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// UserClass partitions roles by the class of user they apply to. A staff role can
// never be assigned to a cast profile and vice versa.
type UserClass string

const (
	UserClassStaff UserClass = "staff"
	UserClassCast  UserClass = "cast"
)

// Valid reports whether c is a known user class.
func (c UserClass) Valid() bool {
	return c == UserClassStaff || c == UserClassCast
}

// UserClassFor maps a profile's coarse class to the role partition it draws roles
// from. Guests have no partition and the second return is false.
func UserClassFor(class shared.Class) (UserClass, bool) {
	switch class {
	case shared.ClassAdmin, shared.ClassStaff:
		return UserClassStaff, true
	case shared.ClassCast:
		return UserClassCast, true
	}
	return "", false
}

// Role is a named, tenant-scoped authorization unit. System roles ship with the
// product: their name and permissions never change and they cannot be deleted.
type Role struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	ForUserClass UserClass
	Permissions  permissions.Map
	IsSystemRole bool
	CreatedAt    time.Time
}

// Input carries the caller-supplied fields for create and update. Permissions is the
// full map; updates overwrite the stored map wholesale, never merge per field.
type Input struct {
	Name         string          `json:"name" validate:"required,max=120"`
	ForUserClass UserClass       `json:"for_user_class" validate:"required,oneof=staff cast"`
	Permissions  permissions.Map `json:"permissions"`
}
