package services

import (
	"context"

	"ktrek/internal/datastore"
	"ktrek/internal/models"
	"ktrek/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceReward is the read side of the reward ledger.
type ServiceReward struct {
	container          *do.Injector
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceReward(container *do.Injector) (*ServiceReward, error) {
	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceReward{container, readonlyPostgresDB, cache, readonlyCache}, nil
}

// GetUserRewards reads the writable cache directly so a grant's invalidation
// is visible on the very next read; a stale local replica is not acceptable
// right after "you earned a badge".
func (service *ServiceReward) GetUserRewards(ctx context.Context, userID int64) ([]models.UserReward, error) {
	callback := func() ([]models.UserReward, error) {
		return datastore.GetUserRewards(ctx, service.readonlyPostgresDB, userID)
	}

	return caching.UseCache(ctx, service.cache, DBKeyUserRewards(userID), CACHE_TTL_1_MIN, callback)
}

func (service *ServiceReward) GetDefinitions(ctx context.Context) ([]*models.RewardDefinition, error) {
	callback := func() ([]*models.RewardDefinition, error) {
		return datastore.GetEnabledRewardDefinitions(ctx, service.readonlyPostgresDB)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyRewardDefinitions(), CACHE_TTL_5_MINS, callback)
}
