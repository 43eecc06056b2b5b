package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuedesk/venuedesk/internal/platform/db"
	"github.com/venuedesk/venuedesk/internal/roles"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// Repository persists profiles in PostgreSQL, tenant-scoped on every query.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the assignment service.
type TxRepository interface {
	ActorClass(ctx context.Context, tenantID, profileID uuid.UUID) (shared.Class, error)
	GetForUpdate(ctx context.Context, tenantID, profileID uuid.UUID) (Profile, error)
	RoleClass(ctx context.Context, tenantID, roleID uuid.UUID) (roles.UserClass, error)
	SetRoleID(ctx context.Context, tenantID, profileID uuid.UUID, roleID *uuid.UUID) error
	SetClass(ctx context.Context, tenantID, profileID uuid.UUID, class shared.Class) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const profileColumns = `id, tenant_id, display_name, class, role_id, created_at`

// Get fetches one profile within the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, profileID uuid.UUID) (Profile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE tenant_id = $1 AND id = $2`,
		tenantID, profileID)
	return scanProfile(row)
}

// Tenants lists every tenant that has at least one profile. Used by background jobs.
func (r *Repository) Tenants(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT tenant_id FROM profiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DanglingAssignments counts, per tenant, profiles whose role_id references a role
// that no longer exists. Role deletion does not cascade, so these are expected to
// appear; resolution treats them as no role bound.
func (r *Repository) DanglingAssignments(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.tenant_id, COUNT(*)
		 FROM profiles p
		 WHERE p.role_id IS NOT NULL
		   AND NOT EXISTS (
		     SELECT 1 FROM roles r WHERE r.id = p.role_id AND r.tenant_id = p.tenant_id
		   )
		 GROUP BY p.tenant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		out[id] = count
	}
	return out, rows.Err()
}

func (t *txRepo) ActorClass(ctx context.Context, tenantID, profileID uuid.UUID) (shared.Class, error) {
	var class string
	err := t.tx.QueryRow(ctx,
		`SELECT class FROM profiles WHERE tenant_id = $1 AND id = $2 FOR SHARE`,
		tenantID, profileID).Scan(&class)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrUnauthorized
	}
	if err != nil {
		return "", err
	}
	return shared.Class(class), nil
}

func (t *txRepo) GetForUpdate(ctx context.Context, tenantID, profileID uuid.UUID) (Profile, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, profileID)
	return scanProfile(row)
}

func (t *txRepo) RoleClass(ctx context.Context, tenantID, roleID uuid.UUID) (roles.UserClass, error) {
	var class string
	err := t.tx.QueryRow(ctx,
		`SELECT for_user_class FROM roles WHERE tenant_id = $1 AND id = $2`,
		tenantID, roleID).Scan(&class)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return roles.UserClass(class), nil
}

func (t *txRepo) SetRoleID(ctx context.Context, tenantID, profileID uuid.UUID, roleID *uuid.UUID) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE profiles SET role_id = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, profileID, roleID)
	return err
}

func (t *txRepo) SetClass(ctx context.Context, tenantID, profileID uuid.UUID, class shared.Class) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE profiles SET class = $3 WHERE tenant_id = $1 AND id = $2`,
		tenantID, profileID, string(class))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var p Profile
	var class string
	if err := row.Scan(&p.ID, &p.TenantID, &p.DisplayName, &class, &p.RoleID, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		return Profile{}, err
	}
	p.Class = shared.Class(class)
	return p, nil
}
