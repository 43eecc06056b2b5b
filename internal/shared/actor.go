package shared

import (
	"context"

	"github.com/google/uuid"
)

// Class is the coarse membership class of a profile within a tenant.
type Class string

const (
	ClassAdmin Class = "admin"
	ClassStaff Class = "staff"
	ClassCast  Class = "cast"
	ClassGuest Class = "guest"
)

// Valid reports whether c is one of the known classes.
func (c Class) Valid() bool {
	switch c {
	case ClassAdmin, ClassStaff, ClassCast, ClassGuest:
		return true
	}
	return false
}

// Actor identifies the authenticated caller of a mutating operation. It is built by the
// actor middleware from the profile row itself, never from caller-supplied claims, and
// services re-verify the class against the store inside each mutation.
type Actor struct {
	ProfileID uuid.UUID
	TenantID  uuid.UUID
	Class     Class
}

// IsAdmin reports whether the actor carries the admin class.
func (a Actor) IsAdmin() bool {
	return a.Class == ClassAdmin
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
