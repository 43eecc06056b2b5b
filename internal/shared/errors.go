package shared

import "errors"

var (
	// ErrUnauthorized indicates the actor lacks the admin class required for a mutation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates a record absent or outside the actor's tenant. The two cases
	// are deliberately indistinguishable so callers cannot probe for other tenants.
	ErrNotFound = errors.New("not found")
	// ErrImmutableRole indicates a mutation or deletion attempt on a system role.
	ErrImmutableRole = errors.New("system role is immutable")
	// ErrInvalidAssignment indicates a role/profile tenant or user-class mismatch.
	ErrInvalidAssignment = errors.New("invalid role assignment")
	// ErrSelfDemotion indicates an admin tried to remove their own admin designation.
	ErrSelfDemotion = errors.New("cannot remove own admin designation")
	// ErrIneligibleClass indicates a promotion attempt on a cast or guest profile.
	ErrIneligibleClass = errors.New("profile class not eligible for admin")
	// ErrValidation indicates malformed input detected before any write.
	ErrValidation = errors.New("validation failed")
)
