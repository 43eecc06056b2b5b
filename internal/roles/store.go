package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/permissions"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, tenantID uuid.UUID) ([]Role, error)
	GetByID(ctx context.Context, tenantID, roleID uuid.UUID) (Role, error)
}

// Store is the only writer of role records. Every mutation re-derives the actor's
// class from the profiles table inside the same transaction as the write, so there is
// no gap between the admin check and the mutation it gates.
type Store struct {
	repo    RepositoryPort
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStore builds a Store.
func NewStore(repo RepositoryPort, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{repo: repo, logger: logger, metrics: metrics}
}

// Create inserts a new role scoped to the actor's tenant and returns it with its
// generated id.
func (s *Store) Create(ctx context.Context, actor shared.Actor, input Input) (Role, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return Role{}, err
	}

	role := Role{
		ID:           uuid.New(),
		TenantID:     actor.TenantID,
		Name:         input.Name,
		ForUserClass: input.ForUserClass,
		Permissions:  input.Permissions,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.requireAdmin(ctx, tx, actor, "roles.create"); err != nil {
			return err
		}
		return tx.Insert(ctx, role)
	})
	if err != nil {
		return Role{}, err
	}

	s.metrics.RoleWrite("create")
	s.logger.Info("role created",
		slog.String("role_id", role.ID.String()),
		slog.String("tenant_id", role.TenantID.String()))
	return role, nil
}

// Update overwrites name, user class and the full permission map of an existing role.
// System roles are immutable and reject the call.
func (s *Store) Update(ctx context.Context, actor shared.Actor, roleID uuid.UUID, input Input) error {
	input, err := normalizeInput(input)
	if err != nil {
		return err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.requireAdmin(ctx, tx, actor, "roles.update"); err != nil {
			return err
		}
		role, err := tx.GetForUpdate(ctx, actor.TenantID, roleID)
		if err != nil {
			return err
		}
		if role.IsSystemRole {
			return shared.ErrImmutableRole
		}
		role.Name = input.Name
		role.ForUserClass = input.ForUserClass
		role.Permissions = input.Permissions
		return tx.Update(ctx, role)
	})
	if err != nil {
		return err
	}

	s.metrics.RoleWrite("update")
	return nil
}

// Delete removes a role. The delete does not cascade to profiles still holding the
// role id; resolution treats such dangling references as no role at all.
func (s *Store) Delete(ctx context.Context, actor shared.Actor, roleID uuid.UUID) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.requireAdmin(ctx, tx, actor, "roles.delete"); err != nil {
			return err
		}
		role, err := tx.GetForUpdate(ctx, actor.TenantID, roleID)
		if err != nil {
			return err
		}
		if role.IsSystemRole {
			return shared.ErrImmutableRole
		}
		return tx.Delete(ctx, actor.TenantID, roleID)
	})
	if err != nil {
		return err
	}

	s.metrics.RoleWrite("delete")
	return nil
}

// List returns the tenant's roles in creation order.
func (s *Store) List(ctx context.Context, tenantID uuid.UUID) ([]Role, error) {
	return s.repo.List(ctx, tenantID)
}

// GetByID fetches a role within the tenant.
func (s *Store) GetByID(ctx context.Context, tenantID, roleID uuid.UUID) (Role, error) {
	return s.repo.GetByID(ctx, tenantID, roleID)
}

func (s *Store) requireAdmin(ctx context.Context, tx TxRepository, actor shared.Actor, op string) error {
	class, err := tx.ActorClass(ctx, actor.TenantID, actor.ProfileID)
	if err != nil {
		return err
	}
	if class != shared.ClassAdmin {
		s.metrics.AuthzDenied(op)
		return shared.ErrUnauthorized
	}
	return nil
}

// normalizeInput validates the input and canonicalizes the permission map: unknown
// pages and levels are rejected, explicit none entries are dropped (absent means
// none), and cast roles are clamped to the binary cast vocabulary.
func normalizeInput(input Input) (Input, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Input{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	if !input.ForUserClass.Valid() {
		return Input{}, fmt.Errorf("%w: unknown user class %q", shared.ErrValidation, input.ForUserClass)
	}

	normalized := make(permissions.Map, len(input.Permissions))
	for page, level := range input.Permissions {
		if !permissions.IsValidPage(page) {
			return Input{}, fmt.Errorf("%w: unknown page %q", shared.ErrValidation, page)
		}
		if !level.Valid() {
			return Input{}, fmt.Errorf("%w: unknown level %q for page %q", shared.ErrValidation, level, page)
		}
		if input.ForUserClass == UserClassCast {
			if !permissions.IsCastAvailable(page) {
				continue
			}
			// Cast access is binary: anything granted becomes edit.
			if level == permissions.LevelView {
				level = permissions.LevelEdit
			}
		}
		if level == permissions.LevelNone {
			continue
		}
		normalized[page] = level
	}
	input.Permissions = normalized
	return input, nil
}
