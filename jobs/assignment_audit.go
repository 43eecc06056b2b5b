package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/venuedesk/venuedesk/internal/observability"
)

// AssignmentSource provides the dangling-assignment counts the audit reports on.
type AssignmentSource interface {
	DanglingAssignments(ctx context.Context) (map[uuid.UUID]int, error)
}

// AssignmentAuditJob surfaces profiles whose role binding points at a deleted role.
// It only reports; dangling references stay in place and resolve to no permissions.
type AssignmentAuditJob struct {
	Profiles AssignmentSource
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// NewAssignmentAuditJob wires dependencies for the audit handler.
func NewAssignmentAuditJob(profileSource AssignmentSource, logger *slog.Logger, metrics *observability.Metrics) *AssignmentAuditJob {
	return &AssignmentAuditJob{Profiles: profileSource, Logger: logger, Metrics: metrics}
}

// Handle processes assignment audit tasks.
func (j *AssignmentAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Profiles == nil {
		return errors.New("assignment audit: handler not configured")
	}
	counts, err := j.Profiles.DanglingAssignments(ctx)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Error("assignment audit", slog.Any("error", err))
		}
		return err
	}
	for tenantID, count := range counts {
		j.Metrics.SetDanglingAssignments(tenantID.String(), count)
		if j.Logger != nil && count > 0 {
			j.Logger.Warn("dangling role assignments",
				slog.String("tenant_id", tenantID.String()),
				slog.Int("count", count))
		}
	}
	return nil
}
