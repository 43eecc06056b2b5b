package roles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk/internal/permissions"
	"github.com/venuedesk/venuedesk/internal/shared"
)

type staticFlags struct {
	flags permissions.Flags
}

func (f *staticFlags) FlagsFor(ctx context.Context, tenantID uuid.UUID) (permissions.Flags, error) {
	return f.flags, nil
}

func TestSessionManagerOpenAndClose(t *testing.T) {
	store := &countingStore{}
	mgr := NewSessionManager(store, &staticFlags{}, testDelay, testLogger())
	actor := sessionActor()
	ctx := context.Background()

	id, session, err := mgr.Open(ctx, actor, UserClassStaff)
	require.NoError(t, err)
	require.NotNil(t, session)

	got, err := mgr.Get(id, actor)
	require.NoError(t, err)
	require.Same(t, session, got)

	require.NoError(t, mgr.Close(id, actor))
	_, err = mgr.Get(id, actor)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSessionManagerRejectsUnknownClass(t *testing.T) {
	mgr := NewSessionManager(&countingStore{}, &staticFlags{}, testDelay, testLogger())

	_, _, err := mgr.Open(context.Background(), sessionActor(), "manager")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSessionManagerIsolatesOwners(t *testing.T) {
	mgr := NewSessionManager(&countingStore{}, &staticFlags{}, testDelay, testLogger())
	owner := sessionActor()
	other := sessionActor()
	ctx := context.Background()

	id, _, err := mgr.Open(ctx, owner, UserClassStaff)
	require.NoError(t, err)

	// Another profile's session is indistinguishable from an absent one.
	_, err = mgr.Get(id, other)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, mgr.Close(id, other), shared.ErrNotFound)
}

func TestSessionManagerCapsSessionsPerOwner(t *testing.T) {
	mgr := NewSessionManager(&countingStore{}, &staticFlags{}, testDelay, testLogger())
	owner := sessionActor()
	other := sessionActor()
	ctx := context.Background()

	otherID, _, err := mgr.Open(ctx, other, UserClassStaff)
	require.NoError(t, err)

	first, _, err := mgr.Open(ctx, owner, UserClassStaff)
	require.NoError(t, err)
	var last uuid.UUID
	for i := 0; i < maxSessionsPerOwner; i++ {
		last, _, err = mgr.Open(ctx, owner, UserClassStaff)
		require.NoError(t, err)
	}

	// The owner's oldest session was closed to make room; newer ones survive.
	_, err = mgr.Get(first, owner)
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = mgr.Get(last, owner)
	require.NoError(t, err)

	// Other owners' sessions are untouched by the eviction.
	_, err = mgr.Get(otherID, other)
	require.NoError(t, err)
}

func TestSessionManagerResumesExistingRole(t *testing.T) {
	mgr := NewSessionManager(&countingStore{}, &staticFlags{}, testDelay, testLogger())
	actor := sessionActor()
	role := Role{
		ID:           uuid.New(),
		TenantID:     actor.TenantID,
		Name:         "Host",
		ForUserClass: UserClassStaff,
		Permissions:  permissions.Map{permissions.PageMenus: permissions.LevelView},
	}

	_, session, err := mgr.OpenForRole(context.Background(), actor, role)
	require.NoError(t, err)

	id, bound := session.RoleID()
	require.True(t, bound)
	require.Equal(t, role.ID, id)
	require.Equal(t, permissions.LevelView, session.Draft().Permissions.Level(permissions.PageMenus))
}
