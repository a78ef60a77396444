package services

import (
	"context"

	"ktrek/internal/datastore"
	"ktrek/internal/models"
	"ktrek/internal/pkg/caching"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceTask struct {
	container          *do.Injector
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceTask(container *do.Injector) (*ServiceTask, error) {
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

	return &ServiceTask{container, readonlyPostgresDB, cache, readonlyCache}, nil
}

func (service *ServiceTask) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	callback := func() (*models.Task, error) {
		return datastore.GetTask(ctx, service.readonlyPostgresDB, taskID)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyTask(taskID), CACHE_TTL_5_MINS, callback)
}

func (service *ServiceTask) GetEnabledTasks(ctx context.Context) ([]models.Task, error) {
	callback := func() ([]models.Task, error) {
		return datastore.GetEnabledTasks(ctx, service.readonlyPostgresDB)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyTasks(), CACHE_TTL_5_MINS, callback)
}
