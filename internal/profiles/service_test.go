package profiles

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/venuedesk/internal/roles"
	"github.com/venuedesk/venuedesk/internal/shared"
)

type memRepo struct {
	profiles map[uuid.UUID]Profile
	roles    map[uuid.UUID]roleRow
}

type roleRow struct {
	tenantID uuid.UUID
	class    roles.UserClass
}

func newMemRepo() *memRepo {
	return &memRepo{
		profiles: make(map[uuid.UUID]Profile),
		roles:    make(map[uuid.UUID]roleRow),
	}
}

func (r *memRepo) addProfile(tenantID uuid.UUID, class shared.Class) Profile {
	p := Profile{ID: uuid.New(), TenantID: tenantID, Class: class}
	r.profiles[p.ID] = p
	return p
}

func (r *memRepo) addRole(tenantID uuid.UUID, class roles.UserClass) uuid.UUID {
	id := uuid.New()
	r.roles[id] = roleRow{tenantID: tenantID, class: class}
	return id
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memTx{repo: r})
}

func (r *memRepo) Get(ctx context.Context, tenantID, profileID uuid.UUID) (Profile, error) {
	p, ok := r.profiles[profileID]
	if !ok || p.TenantID != tenantID {
		return Profile{}, shared.ErrNotFound
	}
	return p, nil
}

type memTx struct {
	repo *memRepo
}

func (t *memTx) ActorClass(ctx context.Context, tenantID, profileID uuid.UUID) (shared.Class, error) {
	p, ok := t.repo.profiles[profileID]
	if !ok || p.TenantID != tenantID {
		return "", shared.ErrUnauthorized
	}
	return p.Class, nil
}

func (t *memTx) GetForUpdate(ctx context.Context, tenantID, profileID uuid.UUID) (Profile, error) {
	return t.repo.Get(ctx, tenantID, profileID)
}

func (t *memTx) RoleClass(ctx context.Context, tenantID, roleID uuid.UUID) (roles.UserClass, error) {
	row, ok := t.repo.roles[roleID]
	if !ok || row.tenantID != tenantID {
		return "", shared.ErrNotFound
	}
	return row.class, nil
}

func (t *memTx) SetRoleID(ctx context.Context, tenantID, profileID uuid.UUID, roleID *uuid.UUID) error {
	p := t.repo.profiles[profileID]
	p.RoleID = roleID
	t.repo.profiles[profileID] = p
	return nil
}

func (t *memTx) SetClass(ctx context.Context, tenantID, profileID uuid.UUID, class shared.Class) error {
	p := t.repo.profiles[profileID]
	p.Class = class
	t.repo.profiles[profileID] = p
	return nil
}

func newTestService(repo *memRepo) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestAssignRole(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	tenant := uuid.New()
	admin := repo.addProfile(tenant, shared.ClassAdmin)
	staff := repo.addProfile(tenant, shared.ClassStaff)
	roleID := repo.addRole(tenant, roles.UserClassStaff)
	ctx := context.Background()

	require.NoError(t, svc.AssignRole(ctx, admin.Actor(), staff.ID, &roleID))
	got, err := svc.Get(ctx, tenant, staff.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RoleID)
	require.Equal(t, roleID, *got.RoleID)

	// Nil clears the binding.
	require.NoError(t, svc.AssignRole(ctx, admin.Actor(), staff.ID, nil))
	got, err = svc.Get(ctx, tenant, staff.ID)
	require.NoError(t, err)
	require.Nil(t, got.RoleID)
}

func TestAssignRoleRequiresAdmin(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	tenant := uuid.New()
	staff := repo.addProfile(tenant, shared.ClassStaff)
	other := repo.addProfile(tenant, shared.ClassStaff)
	roleID := repo.addRole(tenant, roles.UserClassStaff)

	err := svc.AssignRole(context.Background(), staff.Actor(), other.ID, &roleID)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestAssignRoleCrossTenant(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	tenantA := uuid.New()
	tenantB := uuid.New()
	adminA := repo.addProfile(tenantA, shared.ClassAdmin)
	staffA := repo.addProfile(tenantA, shared.ClassStaff)
	staffB := repo.addProfile(tenantB, shared.ClassStaff)
	roleB := repo.addRole(tenantB, roles.UserClassStaff)
	ctx := context.Background()

	// Role from another tenant: invalid assignment, indistinguishable from absent.
	err := svc.AssignRole(ctx, adminA.Actor(), staffA.ID, &roleB)
	require.ErrorIs(t, err, shared.ErrInvalidAssignment)

	// Target profile in another tenant fails the same way.
	roleA := repo.addRole(tenantA, roles.UserClassStaff)
	err = svc.AssignRole(ctx, adminA.Actor(), staffB.ID, &roleA)
	require.ErrorIs(t, err, shared.ErrInvalidAssignment)
}

func TestAssignRolePartition(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	tenant := uuid.New()
	admin := repo.addProfile(tenant, shared.ClassAdmin)
	staff := repo.addProfile(tenant, shared.ClassStaff)
	cast := repo.addProfile(tenant, shared.ClassCast)
	guest := repo.addProfile(tenant, shared.ClassGuest)
	staffRole := repo.addRole(tenant, roles.UserClassStaff)
	castRole := repo.addRole(tenant, roles.UserClassCast)
	ctx := context.Background()

	// Roles are partitioned by user class in both directions.
	require.ErrorIs(t, svc.AssignRole(ctx, admin.Actor(), cast.ID, &staffRole), shared.ErrInvalidAssignment)
	require.ErrorIs(t, svc.AssignRole(ctx, admin.Actor(), staff.ID, &castRole), shared.ErrInvalidAssignment)
	require.ErrorIs(t, svc.AssignRole(ctx, admin.Actor(), guest.ID, &staffRole), shared.ErrInvalidAssignment)

	require.NoError(t, svc.AssignRole(ctx, admin.Actor(), cast.ID, &castRole))
	// Admin-class profiles draw from the staff partition.
	require.NoError(t, svc.AssignRole(ctx, admin.Actor(), admin.ID, &staffRole))
}

func TestSelfDemotionBlocked(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	tenant := uuid.New()
	admin := repo.addProfile(tenant, shared.ClassAdmin)
	ctx := context.Background()

	err := svc.SetAdminDesignation(ctx, admin.Actor(), admin.ID, false)
	require.ErrorIs(t, err, shared.ErrSelfDemotion)

	got, err := svc.Get(ctx, tenant, admin.ID)
	require.NoError(t, err)
	require.Equal(t, shared.ClassAdmin, got.Class)
}

func TestAdminPromotionEligibility(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	tenant := uuid.New()
	admin := repo.addProfile(tenant, shared.ClassAdmin)
	staff := repo.addProfile(tenant, shared.ClassStaff)
	cast := repo.addProfile(tenant, shared.ClassCast)
	guest := repo.addProfile(tenant, shared.ClassGuest)
	ctx := context.Background()

	require.NoError(t, svc.SetAdminDesignation(ctx, admin.Actor(), staff.ID, true))
	got, _ := svc.Get(ctx, tenant, staff.ID)
	require.Equal(t, shared.ClassAdmin, got.Class)

	// Promoting an existing admin is an idempotent no-op.
	require.NoError(t, svc.SetAdminDesignation(ctx, admin.Actor(), staff.ID, true))

	require.ErrorIs(t, svc.SetAdminDesignation(ctx, admin.Actor(), cast.ID, true), shared.ErrIneligibleClass)
	require.ErrorIs(t, svc.SetAdminDesignation(ctx, admin.Actor(), guest.ID, true), shared.ErrIneligibleClass)
}

func TestDemoteOtherAdmin(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	tenant := uuid.New()
	admin := repo.addProfile(tenant, shared.ClassAdmin)
	other := repo.addProfile(tenant, shared.ClassAdmin)
	ctx := context.Background()

	require.NoError(t, svc.SetAdminDesignation(ctx, admin.Actor(), other.ID, false))
	got, _ := svc.Get(ctx, tenant, other.ID)
	require.Equal(t, shared.ClassStaff, got.Class)

	// Demoting a profile that is not an admin changes nothing.
	require.NoError(t, svc.SetAdminDesignation(ctx, admin.Actor(), other.ID, false))
	got, _ = svc.Get(ctx, tenant, other.ID)
	require.Equal(t, shared.ClassStaff, got.Class)
}
