package roles

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venuedesk/venuedesk/internal/permissions"
	"github.com/venuedesk/venuedesk/internal/platform/db"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// Repository persists roles in PostgreSQL. Every query filters by tenant so a role in
// another tenant is indistinguishable from one that does not exist.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the Store. The actor's
// class is re-read inside the same transaction as the mutation it gates.
type TxRepository interface {
	ActorClass(ctx context.Context, tenantID, profileID uuid.UUID) (shared.Class, error)
	GetForUpdate(ctx context.Context, tenantID, roleID uuid.UUID) (Role, error)
	Insert(ctx context.Context, role Role) error
	Update(ctx context.Context, role Role) error
	Delete(ctx context.Context, tenantID, roleID uuid.UUID) error
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

const roleColumns = `id, tenant_id, name, for_user_class, permissions, is_system_role, created_at`

// List returns the tenant's roles ordered by creation time ascending. The ordering is
// user-visible in role listings.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 ORDER BY created_at ASC, id ASC`,
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetByID fetches one role within the tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, roleID uuid.UUID) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 AND id = $2`,
		tenantID, roleID)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	return role, err
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

func (t *txRepo) GetForUpdate(ctx context.Context, tenantID, roleID uuid.UUID) (Role, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, roleID)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	return role, err
}

func (t *txRepo) Insert(ctx context.Context, role Role) error {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO roles (id, tenant_id, name, for_user_class, permissions, is_system_role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		role.ID, role.TenantID, role.Name, string(role.ForUserClass), perms, role.IsSystemRole, role.CreatedAt)
	return err
}

func (t *txRepo) Update(ctx context.Context, role Role) error {
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx,
		`UPDATE roles SET name = $3, for_user_class = $4, permissions = $5
		 WHERE tenant_id = $1 AND id = $2`,
		role.TenantID, role.ID, role.Name, string(role.ForUserClass), perms)
	return err
}

func (t *txRepo) Delete(ctx context.Context, tenantID, roleID uuid.UUID) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM roles WHERE tenant_id = $1 AND id = $2`, tenantID, roleID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (Role, error) {
	var role Role
	var class string
	var perms []byte
	if err := row.Scan(&role.ID, &role.TenantID, &role.Name, &class, &perms,
		&role.IsSystemRole, &role.CreatedAt); err != nil {
		return Role{}, err
	}
	role.ForUserClass = UserClass(class)
	role.Permissions = make(permissions.Map)
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &role.Permissions); err != nil {
			return Role{}, err
		}
	}
	return role, nil
}
