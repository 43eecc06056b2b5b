package profiles

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/roles"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, tenantID, profileID uuid.UUID) (Profile, error)
}

// Service is the only writer of the profile→role binding and of the staff⇄admin class
// toggle. As with the role store, the actor's class is re-derived inside the mutation
// transaction rather than trusted from the caller.
type Service struct {
	repo    RepositoryPort
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService builds a Service.
func NewService(repo RepositoryPort, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, logger: logger, metrics: metrics}
}

// Get fetches a profile within the tenant.
func (s *Service) Get(ctx context.Context, tenantID, profileID uuid.UUID) (Profile, error) {
	return s.repo.Get(ctx, tenantID, profileID)
}

// AssignRole binds the target profile to roleID, or clears the binding when roleID is
// nil. Both the profile and the role must live in the actor's tenant and the role must
// match the target's user-class partition; every violation fails with
// ErrInvalidAssignment so cross-tenant probing learns nothing.
func (s *Service) AssignRole(ctx context.Context, actor shared.Actor, profileID uuid.UUID, roleID *uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.requireAdmin(ctx, tx, actor, "profiles.assign"); err != nil {
			return err
		}
		target, err := tx.GetForUpdate(ctx, actor.TenantID, profileID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.ErrInvalidAssignment
			}
			return err
		}
		if roleID != nil {
			partition, ok := roles.UserClassFor(target.Class)
			if !ok {
				return shared.ErrInvalidAssignment
			}
			roleClass, err := tx.RoleClass(ctx, actor.TenantID, *roleID)
			if err != nil {
				// Absent and wrong-tenant are indistinguishable here.
				if errors.Is(err, shared.ErrNotFound) {
					return shared.ErrInvalidAssignment
				}
				return err
			}
			if roleClass != partition {
				return shared.ErrInvalidAssignment
			}
		}
		return tx.SetRoleID(ctx, actor.TenantID, profileID, roleID)
	})
}

// SetAdminDesignation toggles the coarse class between staff and admin. An admin can
// never strip their own designation, and only staff profiles are eligible for
// promotion; promoting an existing admin is an idempotent no-op.
func (s *Service) SetAdminDesignation(ctx context.Context, actor shared.Actor, profileID uuid.UUID, makeAdmin bool) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.requireAdmin(ctx, tx, actor, "profiles.set_admin"); err != nil {
			return err
		}
		if profileID == actor.ProfileID && !makeAdmin {
			return shared.ErrSelfDemotion
		}
		target, err := tx.GetForUpdate(ctx, actor.TenantID, profileID)
		if err != nil {
			return err
		}
		if makeAdmin {
			switch target.Class {
			case shared.ClassAdmin:
				return nil
			case shared.ClassStaff:
				s.logger.Info("profile promoted to admin",
					slog.String("profile_id", profileID.String()),
					slog.String("tenant_id", actor.TenantID.String()))
				return tx.SetClass(ctx, actor.TenantID, profileID, shared.ClassAdmin)
			default:
				return shared.ErrIneligibleClass
			}
		}
		if target.Class != shared.ClassAdmin {
			return nil
		}
		s.logger.Info("profile demoted to staff",
			slog.String("profile_id", profileID.String()),
			slog.String("tenant_id", actor.TenantID.String()))
		return tx.SetClass(ctx, actor.TenantID, profileID, shared.ClassStaff)
	})
}

func (s *Service) requireAdmin(ctx context.Context, tx TxRepository, actor shared.Actor, op string) error {
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
