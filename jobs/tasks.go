// Package jobs hosts the background worker and its task definitions.
package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAssignmentAudit counts dangling role references per tenant. Role deletion
	// does not cascade to profiles, so the audit observes the drift without ever
	// mutating assignments.
	TaskAssignmentAudit = "perm:audit"
	// TaskFlagsWarmup primes the feature-flag cache for every active tenant.
	TaskFlagsWarmup = "flags:warmup"
)

// NewAssignmentAuditTask constructs the audit task. It carries no payload.
func NewAssignmentAuditTask() *asynq.Task {
	return asynq.NewTask(TaskAssignmentAudit, nil)
}

// NewFlagsWarmupTask constructs the warmup task. It carries no payload.
func NewFlagsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskFlagsWarmup, nil)
}
