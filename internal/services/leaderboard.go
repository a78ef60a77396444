package services

import (
	"context"

	"ktrek/internal/datastore/redis_store"
	"ktrek/internal/models"
	"ktrek/internal/pkg/caching"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

// ServiceLeaderboard is the read side of the overall XP leaderboard. Writes
// happen in ServiceProgression; this layer shapes the response and caches it
// briefly per viewer.
type ServiceLeaderboard struct {
	container     *do.Injector
	redisDB       redis.UniversalClient
	cache         caching.Cache
	readonlyCache caching.ReadOnlyCache

	serviceUser   *ServiceUser
	serviceConfig *ServiceConfig
}

func NewServiceLeaderboard(container *do.Injector) (*ServiceLeaderboard, error) {
	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
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

	serviceUser, err := do.Invoke[*ServiceUser](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLeaderboard{container, redisDB, cache, readonlyCache, serviceUser, serviceConfig}, nil
}

func (service *ServiceLeaderboard) GetOverallLeaderboard(ctx context.Context, user *models.User) (*models.LeaderboardResponse, error) {
	limit, _ := service.serviceConfig.GetIntConfig(ctx, CONFIG_OVERALL_LEADERBOARD_LIMIT, OVERALL_LEADERBOARD_DEFAULT_LIMIT)
	return service.getLeaderboard(ctx, user, LEADERBOARD_OVERALL, limit)
}

// GetPosition returns one user's rank and score on the overall board without
// the surrounding page. Users not on the board yet come back with rank 0.
func (service *ServiceLeaderboard) GetPosition(ctx context.Context, userID int64) (*models.LeaderboardItem, error) {
	position := &models.LeaderboardItem{UserId: userID}

	rank, err := redis_store.GetRank(ctx, service.redisDB, LEADERBOARD_OVERALL, userID)
	if err == redis.Nil {
		return position, nil
	}
	if err != nil {
		return nil, err
	}

	score, err := redis_store.GetScore(ctx, service.redisDB, LEADERBOARD_OVERALL, userID)
	if err != nil && err != redis.Nil {
		return nil, err
	}

	position.Rank = int(rank + 1)
	position.Score = score

	if snapshot, err := redis_store.GetStatsSnapshot(ctx, service.redisDB, userID); err == nil && snapshot != nil {
		position.Level = snapshot.CurrentLevel
	}

	return position, nil
}

func (service *ServiceLeaderboard) getLeaderboard(ctx context.Context, user *models.User, leaderboardName string, limit int) (*models.LeaderboardResponse, error) {
	callback := func() (*models.LeaderboardResponse, error) {
		leaderboard, err := redis_store.GetLeaderboard(ctx, service.redisDB, leaderboardName, limit)
		if err != nil {
			return nil, err
		}

		rank, err := redis_store.GetRank(ctx, service.redisDB, leaderboardName, user.ID)

		score := float64(0)
		if err == redis.Nil {
			rank = -1
		} else {
			score, err = redis_store.GetScore(ctx, service.redisDB, leaderboardName, user.ID)
		}

		if err != nil && err != redis.Nil {
			return nil, err
		}

		total, err := redis_store.GetLeaderboardParticipantsCount(ctx, service.redisDB, leaderboardName)
		if err != nil {
			return nil, err
		}

		for _, item := range leaderboard {
			u, _ := service.serviceUser.FindUserByID(ctx, item.UserId)
			if u != nil {
				item.Username = u.Username
			}
			if snapshot, err := redis_store.GetStatsSnapshot(ctx, service.redisDB, item.UserId); err == nil && snapshot != nil {
				item.Level = snapshot.CurrentLevel
			}
		}

		return &models.LeaderboardResponse{
			Leaderboard: leaderboard,
			Me: &models.LeaderboardItem{
				Username: user.Username,
				UserId:   user.ID,
				Score:    score,
				Rank:     int(rank + 1),
			},
			Total: total,
		}, nil
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyLeaderboardByUser(leaderboardName, user.ID, limit), CACHE_TTL_1_MIN, callback)
}
