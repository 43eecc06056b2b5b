// Package access is the single entry point the rest of the application calls before
// rendering a page or enabling its edit controls.
package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/venuedesk/venuedesk/internal/observability"
	"github.com/venuedesk/venuedesk/internal/permissions"
	"github.com/venuedesk/venuedesk/internal/profiles"
	"github.com/venuedesk/venuedesk/internal/roles"
	"github.com/venuedesk/venuedesk/internal/shared"
)

// RoleSource provides read access to stored roles.
type RoleSource interface {
	GetByID(ctx context.Context, tenantID, roleID uuid.UUID) (roles.Role, error)
}

// FlagSource provides the tenant's feature-flag view.
type FlagSource interface {
	FlagsFor(ctx context.Context, tenantID uuid.UUID) (permissions.Flags, error)
}

// Service resolves effective page access for a profile. It is read-only: role and
// assignment records are never mutated here.
type Service struct {
	roles   RoleSource
	flags   FlagSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService builds a Service.
func NewService(roleSource RoleSource, flagSource FlagSource, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{roles: roleSource, flags: flagSource, logger: logger, metrics: metrics}
}

// ResolveAccess returns the effective permission level for the profile on one page.
// Admin-class profiles bypass role resolution entirely: every flag-visible page is
// edit. A hidden page is none for everyone, admins included.
func (s *Service) ResolveAccess(ctx context.Context, tenantID uuid.UUID, profile profiles.Profile, page permissions.PageKey) (permissions.Level, error) {
	s.metrics.AccessResolved()

	flags, err := s.flags.FlagsFor(ctx, tenantID)
	if err != nil {
		return permissions.LevelNone, err
	}
	if profile.Class == shared.ClassAdmin {
		if flags.Visible(page) {
			return permissions.LevelEdit, nil
		}
		return permissions.LevelNone, nil
	}

	perms, err := s.rolePermissions(ctx, tenantID, profile)
	if err != nil {
		return permissions.LevelNone, err
	}
	return permissions.EffectiveLevel(perms, flags, page), nil
}

// ListVisiblePages returns every page the profile may see, in the deterministic
// category-then-declaration order navigation menus render from.
func (s *Service) ListVisiblePages(ctx context.Context, tenantID uuid.UUID, profile profiles.Profile) ([]permissions.PageKey, error) {
	flags, err := s.flags.FlagsFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if profile.Class == shared.ClassAdmin {
		var out []permissions.PageKey
		for _, page := range permissions.AllPages() {
			if flags.Visible(page) {
				out = append(out, page)
			}
		}
		return out, nil
	}

	perms, err := s.rolePermissions(ctx, tenantID, profile)
	if err != nil {
		return nil, err
	}
	return permissions.VisiblePages(perms, flags), nil
}

// rolePermissions loads the permission map the profile's role grants. It returns nil
// (all none) for guests, unbound profiles, dangling role references, and roles whose
// user-class partition does not match the profile. A dangling reference is never an
// error at read time: role deletion does not cascade to assignments.
func (s *Service) rolePermissions(ctx context.Context, tenantID uuid.UUID, profile profiles.Profile) (permissions.Map, error) {
	partition, ok := roles.UserClassFor(profile.Class)
	if !ok || profile.RoleID == nil {
		return nil, nil
	}
	role, err := s.roles.GetByID(ctx, tenantID, *profile.RoleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Debug("dangling role reference",
				slog.String("profile_id", profile.ID.String()),
				slog.String("role_id", profile.RoleID.String()))
			return nil, nil
		}
		return nil, err
	}
	if role.ForUserClass != partition {
		return nil, nil
	}
	return role.Permissions, nil
}
