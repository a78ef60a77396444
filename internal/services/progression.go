package services

import (
	"context"
	"database/sql"

	"ktrek/internal/datastore"
	"ktrek/internal/datastore/redis_store"
	"ktrek/internal/models"
	"ktrek/internal/pkg/caching"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// RecomputeLevel derives a level from total XP. The curve doubles: reaching
// level n+1 from n costs baseXP * 2^(n-1), so level 2 costs 100, level 3
// another 200, and so on. Levels start at 1 and cap at maxLevel.
func RecomputeLevel(totalXP, baseXP, maxLevel int) int {
	if baseXP <= 0 || maxLevel < 1 {
		return 1
	}

	level := 1
	next := baseXP
	for level < maxLevel && totalXP >= next {
		totalXP -= next
		level++
		next *= 2
	}

	return level
}

// ServiceProgression owns the derived state: user stats reads, category
// progress recomputation and the XP leaderboard.
type ServiceProgression struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	redisDBCache       redis.UniversalClient
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceProgression(container *do.Injector) (*ServiceProgression, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	redisDBCache, err := do.InvokeNamed[redis.UniversalClient](container, "redis-cache")
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

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

	return &ServiceProgression{container, redisDB, redisDBCache, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

func (service *ServiceProgression) GetUserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	callback := func() (*models.UserStats, error) {
		return service.GetUserStatsNoCache(ctx, userID)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUserStats(userID), CACHE_TTL_1_MIN, callback)
}

// GetUserStatsNoCache reads from the primary; a user with no stats row yet
// gets zeroed stats at level 1 rather than an error.
func (service *ServiceProgression) GetUserStatsNoCache(ctx context.Context, userID int64) (*models.UserStats, error) {
	stats, err := datastore.GetUserStats(ctx, service.postgresDB, userID)
	if err == sql.ErrNoRows {
		return &models.UserStats{UserID: userID, CurrentLevel: 1}, nil
	}
	if err != nil {
		return nil, err
	}

	if stats.CurrentLevel < 1 {
		stats.CurrentLevel = 1
	}

	return stats, nil
}

func (service *ServiceProgression) GetUserProgress(ctx context.Context, userID int64) ([]models.CategoryProgress, error) {
	callback := func() ([]models.CategoryProgress, error) {
		return datastore.GetAllCategoryProgress(ctx, service.readonlyPostgresDB, userID)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUserProgress(userID), CACHE_TTL_1_MIN, callback)
}

// RecomputeCategoryProgress re-derives one category's counters from the
// completion ledger and the live task catalog. Counters move both ways, the
// tier latches never move here.
func (service *ServiceProgression) RecomputeCategoryProgress(ctx context.Context, userID int64, category string) (*models.CategoryProgress, error) {
	total, err := datastore.CountTasksByCategory(ctx, service.postgresDB, category)
	if err != nil {
		return nil, err
	}

	completed, err := datastore.CountCorrectCompletionsByCategory(ctx, service.postgresDB, userID, category)
	if err != nil {
		return nil, err
	}

	percentage := float64(0)
	if total > 0 {
		percentage = float64(completed) / float64(total) * 100
	}

	progress := &models.CategoryProgress{
		UserID:               userID,
		Category:             category,
		CompletedCount:       completed,
		TotalCount:           total,
		CompletionPercentage: percentage,
	}
	if err := datastore.UpsertCategoryProgress(ctx, service.postgresDB, progress); err != nil {
		return nil, err
	}

	// reload to pick up the latches the upsert leaves alone
	progress, err = datastore.GetCategoryProgress(ctx, service.postgresDB, userID, category)
	if err != nil {
		return nil, err
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserProgress(userID))

	return progress, nil
}

func (service *ServiceProgression) RecomputeAllCategoryProgress(ctx context.Context, userID int64) error {
	completions, err := datastore.GetCorrectCompletions(ctx, service.postgresDB, userID)
	if err != nil {
		return err
	}

	categories := map[string]bool{}
	for _, completion := range completions {
		if completion.Task != nil {
			categories[completion.Task.Category] = true
		}
	}

	for category := range categories {
		if _, err := service.RecomputeCategoryProgress(ctx, userID, category); err != nil {
			return err
		}
	}

	return nil
}

// SyncLeaderboard pushes the user's current XP into the overall leaderboard
// set and refreshes the stats snapshot.
func (service *ServiceProgression) SyncLeaderboard(ctx context.Context, userID int64) error {
	stats, err := service.GetUserStatsNoCache(ctx, userID)
	if err != nil {
		return err
	}

	_, err = redis_store.SetLeaderboard(ctx, service.redisDB, LEADERBOARD_OVERALL, &models.LeaderboardItem{
		UserId: userID,
		Score:  float64(stats.TotalXP),
	})
	if err != nil {
		return err
	}

	//nolint:errcheck
	redis_store.SetStatsSnapshot(ctx, service.redisDB, stats, CACHE_TTL_1_HOUR)

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserStats(userID))

	return nil
}

// RebuildLeaderboard repopulates the overall leaderboard from Postgres in
// pages. Used by the cron binary; per-checkin sync keeps it warm in between.
func (service *ServiceProgression) RebuildLeaderboard(ctx context.Context) error {
	if err := redis_store.ClearLeaderboard(ctx, service.redisDB, LEADERBOARD_OVERALL); err != nil {
		return err
	}

	limit := 500
	for offset := 0; ; offset += limit {
		page, err := datastore.GetLeaderboardStats(ctx, service.readonlyPostgresDB, limit, offset)
		if err != nil {
			return err
		}

		for _, stats := range page {
			_, err := redis_store.SetLeaderboard(ctx, service.redisDB, LEADERBOARD_OVERALL, &models.LeaderboardItem{
				UserId: stats.UserID,
				Score:  float64(stats.TotalXP),
			})
			if err != nil {
				return err
			}
		}

		if len(page) < limit {
			break
		}
	}

	return caching.DeleteKeys(ctx, service.redisDBCache, "leaderboard_by_user:*")
}
