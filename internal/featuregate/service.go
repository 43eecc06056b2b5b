package featuregate

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/venuedesk/venuedesk/internal/permissions"
)

const cacheKeyPrefix = "venuedesk:flags:"

// Service serves tenant feature flags with a short-lived Redis cache in front of the
// repository. Concurrent loads for the same tenant are collapsed via singleflight.
type Service struct {
	repo   Repository
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewService builds a Service. cache may be nil, in which case every read hits the
// repository directly.
func NewService(repo Repository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// FlagsFor returns the tenant's flag map. Cache failures degrade to a repository read.
func (s *Service) FlagsFor(ctx context.Context, tenantID uuid.UUID) (permissions.Flags, error) {
	key := cacheKeyPrefix + tenantID.String()

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var flags permissions.Flags
			if err := json.Unmarshal(raw, &flags); err == nil {
				return flags, nil
			}
		} else if err != redis.Nil && s.logger != nil {
			s.logger.Warn("feature flag cache read", slog.Any("error", err))
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		flags, err := s.repo.FlagsFor(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if raw, err := json.Marshal(flags); err == nil {
				if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil && s.logger != nil {
					s.logger.Warn("feature flag cache write", slog.Any("error", err))
				}
			}
		}
		return flags, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(permissions.Flags), nil
}

// IsVisible reports whether page is enabled for the tenant, failing open when no flag
// row is stored.
func (s *Service) IsVisible(ctx context.Context, tenantID uuid.UUID, page permissions.PageKey) (bool, error) {
	flags, err := s.FlagsFor(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return flags.Visible(page), nil
}

// Warm preloads the cache for the given tenants. Used by the background warmup job.
func (s *Service) Warm(ctx context.Context, tenantIDs []uuid.UUID) error {
	for _, id := range tenantIDs {
		if s.cache != nil {
			if err := s.cache.Del(ctx, cacheKeyPrefix+id.String()).Err(); err != nil && err != redis.Nil {
				return err
			}
		}
		if _, err := s.FlagsFor(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
