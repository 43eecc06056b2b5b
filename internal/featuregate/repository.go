// Package featuregate answers whether a page is enabled for a tenant. Flags are
// edited through a separate settings surface; this package is read-only over them.
package featuregate

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuedesk/venuedesk/internal/permissions"
)

// Repository defines data access for tenant feature flags.
type Repository interface {
	FlagsFor(ctx context.Context, tenantID uuid.UUID) (permissions.Flags, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FlagsFor(ctx context.Context, tenantID uuid.UUID) (permissions.Flags, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT page_key, visible FROM feature_flags WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := make(permissions.Flags)
	for rows.Next() {
		var page string
		var visible bool
		if err := rows.Scan(&page, &visible); err != nil {
			return nil, err
		}
		flags[permissions.PageKey(page)] = visible
	}
	return flags, rows.Err()
}
