package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TenantSource lists the tenants whose caches should be primed.
type TenantSource interface {
	Tenants(ctx context.Context) ([]uuid.UUID, error)
}

// FlagWarmer refreshes the feature-flag cache for a set of tenants.
type FlagWarmer interface {
	Warm(ctx context.Context, tenantIDs []uuid.UUID) error
}

// FlagsWarmupJob pre-populates the feature-flag cache so the first resolution after
// a deploy does not pay the repository round trip.
type FlagsWarmupJob struct {
	Tenants TenantSource
	Flags   FlagWarmer
	Logger  *slog.Logger
}

// NewFlagsWarmupJob wires dependencies for the warmup handler.
func NewFlagsWarmupJob(tenantSource TenantSource, warmer FlagWarmer, logger *slog.Logger) *FlagsWarmupJob {
	return &FlagsWarmupJob{Tenants: tenantSource, Flags: warmer, Logger: logger}
}

// Handle processes flag warmup tasks.
func (j *FlagsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Tenants == nil || j.Flags == nil {
		return errors.New("flags warmup: handler not configured")
	}
	tenants, err := j.Tenants.Tenants(ctx)
	if err != nil {
		return err
	}
	if len(tenants) == 0 {
		return nil
	}
	if err := j.Flags.Warm(ctx, tenants); err != nil {
		if j.Logger != nil {
			j.Logger.Error("flags warmup", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("flag cache warmed", slog.Int("tenants", len(tenants)))
	}
	return nil
}
