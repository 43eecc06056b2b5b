package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeAssignments struct {
	counts map[uuid.UUID]int
	err    error
}

func (f *fakeAssignments) DanglingAssignments(ctx context.Context) (map[uuid.UUID]int, error) {
	return f.counts, f.err
}

type fakeTenants struct {
	tenants []uuid.UUID
}

func (f *fakeTenants) Tenants(ctx context.Context) ([]uuid.UUID, error) {
	return f.tenants, nil
}

type fakeWarmer struct {
	warmed [][]uuid.UUID
	err    error
}

func (f *fakeWarmer) Warm(ctx context.Context, tenantIDs []uuid.UUID) error {
	f.warmed = append(f.warmed, tenantIDs)
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAssignmentAuditHandle(t *testing.T) {
	tenant := uuid.New()
	job := NewAssignmentAuditJob(&fakeAssignments{counts: map[uuid.UUID]int{tenant: 3}}, testLogger(), nil)
	require.NoError(t, job.Handle(context.Background(), NewAssignmentAuditTask()))

	failing := NewAssignmentAuditJob(&fakeAssignments{err: errors.New("query timeout")}, testLogger(), nil)
	require.Error(t, failing.Handle(context.Background(), NewAssignmentAuditTask()))
}

func TestFlagsWarmupHandle(t *testing.T) {
	tenants := []uuid.UUID{uuid.New(), uuid.New()}
	warmer := &fakeWarmer{}
	job := NewFlagsWarmupJob(&fakeTenants{tenants: tenants}, warmer, testLogger())

	require.NoError(t, job.Handle(context.Background(), NewFlagsWarmupTask()))
	require.Len(t, warmer.warmed, 1)
	require.Equal(t, tenants, warmer.warmed[0])
}

func TestFlagsWarmupSkipsWhenNoTenants(t *testing.T) {
	warmer := &fakeWarmer{}
	job := NewFlagsWarmupJob(&fakeTenants{}, warmer, testLogger())

	require.NoError(t, job.Handle(context.Background(), NewFlagsWarmupTask()))
	require.Empty(t, warmer.warmed)
}
