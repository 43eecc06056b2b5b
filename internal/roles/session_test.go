package roles

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk/internal/permissions"
	"github.com/venuedesk/venuedesk/internal/shared"
)

type countingStore struct {
	mu      sync.Mutex
	creates int
	updates []Input
	fail    bool
}

func (s *countingStore) Create(ctx context.Context, actor shared.Actor, input Input) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	return Role{
		ID:           uuid.New(),
		TenantID:     actor.TenantID,
		Name:         input.Name,
		ForUserClass: input.ForUserClass,
		Permissions:  input.Permissions.Clone(),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (s *countingStore) Update(ctx context.Context, actor shared.Actor, roleID uuid.UUID, input Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store unavailable")
	}
	s.updates = append(s.updates, input)
	return nil
}

func (s *countingStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func (s *countingStore) lastUpdate() Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates[len(s.updates)-1]
}

func sessionActor() shared.Actor {
	return shared.Actor{ProfileID: uuid.New(), TenantID: uuid.New(), Class: shared.ClassAdmin}
}

const testDelay = 25 * time.Millisecond

func TestDraftDefaults(t *testing.T) {
	store := &countingStore{}

	cast := NewSession(store, sessionActor(), UserClassCast, nil, testDelay, testLogger())
	draft := cast.Draft()
	require.Len(t, draft.Permissions, len(permissions.CastPages()))
	for _, page := range permissions.CastPages() {
		require.Equal(t, permissions.LevelEdit, draft.Permissions.Level(page))
	}

	staff := NewSession(store, sessionActor(), UserClassStaff, nil, testDelay, testLogger())
	require.Empty(t, staff.Draft().Permissions)
}

func TestCreateBindsOnce(t *testing.T) {
	store := &countingStore{}
	sess := NewSession(store, sessionActor(), UserClassStaff, nil, testDelay, testLogger())
	sess.SetName("Bartender")

	_, bound := sess.RoleID()
	require.False(t, bound)

	role, err := sess.Create(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bartender", role.Name)

	id, bound := sess.RoleID()
	require.True(t, bound)
	require.Equal(t, role.ID, id)
	require.Equal(t, 1, store.creates)

	_, err = sess.Create(context.Background())
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, 1, store.creates)
}

func TestUnboundSessionNeverWrites(t *testing.T) {
	store := &countingStore{}
	sess := NewSession(store, sessionActor(), UserClassStaff, nil, testDelay, testLogger())
	sess.SetName("Draft Only")
	sess.SetLevel(permissions.PageMenus, permissions.LevelEdit)

	time.Sleep(6 * testDelay)
	require.Zero(t, store.updateCount())
}

func TestDebounceCoalescesBurst(t *testing.T) {
	store := &countingStore{}
	sess := NewSession(store, sessionActor(), UserClassStaff, nil, testDelay, testLogger())
	_, err := sess.Create(context.Background())
	require.NoError(t, err)

	sess.SetName("Floor Lead")
	sess.SetLevel(permissions.PageAttendance, permissions.LevelView)
	sess.SetLevel(permissions.PageAttendance, permissions.LevelEdit)
	sess.SetLevel(permissions.PageMenus, permissions.LevelView)
	sess.SetCategory(permissions.CategoryCommunity, permissions.LevelEdit)

	time.Sleep(6 * testDelay)

	// Five rapid mutations, exactly one write, carrying the accumulated state.
	require.Equal(t, 1, store.updateCount())
	got := store.lastUpdate()
	require.Equal(t, "Floor Lead", got.Name)
	require.Equal(t, permissions.LevelEdit, got.Permissions.Level(permissions.PageAttendance))
	require.Equal(t, permissions.LevelView, got.Permissions.Level(permissions.PageMenus))
	require.Equal(t, permissions.LevelEdit, got.Permissions.Level(permissions.PageBoard))
	require.False(t, sess.Dirty())
}

func TestSeparateWindowsProduceSeparateWrites(t *testing.T) {
	store := &countingStore{}
	sess := NewSession(store, sessionActor(), UserClassStaff, nil, testDelay, testLogger())
	_, err := sess.Create(context.Background())
	require.NoError(t, err)

	sess.SetLevel(permissions.PageAttendance, permissions.LevelView)
	time.Sleep(6 * testDelay)
	sess.SetLevel(permissions.PageMenus, permissions.LevelEdit)
	time.Sleep(6 * testDelay)

	require.Equal(t, 2, store.updateCount())
	got := store.lastUpdate()
	require.Equal(t, permissions.LevelView, got.Permissions.Level(permissions.PageAttendance))
	require.Equal(t, permissions.LevelEdit, got.Permissions.Level(permissions.PageMenus))
}

func TestCloseCancelsPendingWrite(t *testing.T) {
	store := &countingStore{}
	sess := NewSession(store, sessionActor(), UserClassStaff, nil, testDelay, testLogger())
	_, err := sess.Create(context.Background())
	require.NoError(t, err)

	sess.SetName("Abandoned")
	sess.Close()

	time.Sleep(6 * testDelay)
	require.Zero(t, store.updateCount())
}

func TestFailedPersistKeepsOptimisticState(t *testing.T) {
	store := &countingStore{fail: true}
	sess := NewSession(store, sessionActor(), UserClassStaff, nil, testDelay, testLogger())
	_, err := sess.Create(context.Background())
	require.NoError(t, err)

	sess.SetLevel(permissions.PageReports, permissions.LevelEdit)
	time.Sleep(6 * testDelay)

	// Local state is not rolled back; the discrepancy is flagged for the next write.
	require.True(t, sess.Dirty())
	require.Error(t, sess.LastErr())
	require.Equal(t, permissions.LevelEdit, sess.Draft().Permissions.Level(permissions.PageReports))
}

func TestCategoryBulkSetRespectsFlagsAndVocabulary(t *testing.T) {
	store := &countingStore{}
	flags := permissions.Flags{permissions.PageAttendance: false}
	sess := NewSession(store, sessionActor(), UserClassStaff, flags, testDelay, testLogger())
	_, err := sess.Create(context.Background())
	require.NoError(t, err)

	sess.SetCategory(permissions.CategoryShift, permissions.LevelEdit)

	draft := sess.Draft()
	// Hidden page untouched, everything else in the category set.
	require.NotContains(t, draft.Permissions, permissions.PageAttendance)
	require.Equal(t, permissions.LevelEdit, draft.Permissions.Level(permissions.PageShiftRequests))
	require.Equal(t, permissions.LevelEdit, draft.Permissions.Level(permissions.PageTimecard))
	require.Equal(t, permissions.LevelEdit, draft.Permissions.Level(permissions.PageMyShifts))
	// Pages outside the category untouched.
	require.NotContains(t, draft.Permissions, permissions.PageMenus)

	// Cast sessions skip pages outside the cast vocabulary.
	castSess := NewSession(store, sessionActor(), UserClassCast, nil, testDelay, testLogger())
	castSess.SetCategory(permissions.CategoryUser, permissions.LevelEdit)
	require.Empty(t, castSess.Draft().Permissions[permissions.PageRoles])
}

func TestSessionCategoryStates(t *testing.T) {
	store := &countingStore{}
	sess := NewSession(store, sessionActor(), UserClassStaff, nil, testDelay, testLogger())
	sess.SetCategory(permissions.CategoryShift, permissions.LevelEdit)

	states := sess.CategoryStates()
	require.True(t, states[permissions.CategoryShift].AllEdit)
	require.False(t, states[permissions.CategoryShift].AllNone)
	require.True(t, states[permissions.CategoryUser].AllNone)
	require.False(t, states[permissions.CategoryUser].AllEdit)
}

func TestResumeSessionEditsExistingRole(t *testing.T) {
	store := &countingStore{}
	role := Role{
		ID:           uuid.New(),
		Name:         "Host",
		ForUserClass: UserClassStaff,
		Permissions:  permissions.Map{permissions.PageMenus: permissions.LevelView},
	}
	sess := ResumeSession(store, sessionActor(), role, nil, testDelay, testLogger())

	id, bound := sess.RoleID()
	require.True(t, bound)
	require.Equal(t, role.ID, id)

	sess.SetLevel(permissions.PageMenus, permissions.LevelNone)
	time.Sleep(6 * testDelay)

	require.Equal(t, 1, store.updateCount())
	require.NotContains(t, store.lastUpdate().Permissions, permissions.PageMenus)
}
