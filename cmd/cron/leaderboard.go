package main

import (
	"context"
	"log"
	"time"

	"ktrek/internal/datastore"
	"ktrek/internal/datastore/redis_store"
	"ktrek/internal/models"
	"ktrek/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
)

// LeaderboardJob periodically rebuilds the overall leaderboard from Postgres.
// Per-checkin sync keeps the set warm; the rebuild heals drift after redis
// restarts or manual data fixes.
type LeaderboardJob struct {
	Redis redis.UniversalClient
	Db    *bun.DB
}

func NewLeaderboardJob(redis redis.UniversalClient, db *bun.DB) *LeaderboardJob {
	return &LeaderboardJob{
		Redis: redis,
		Db:    db,
	}
}

func (j *LeaderboardJob) Start(cronRunner *cron.Cron) {
	schedule := "@hourly"
	timeline, err := datastore.GetConfigByKey(context.Background(), j.Db, "CRONJOB_TIME_LEADERBOARD")
	if err == nil && timeline.Value != "" {
		schedule = timeline.Value
	}

	_, err = cronRunner.AddFunc(schedule, j.rebuild)
	log.Println("Leaderboard cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", schedule, err)
	j.rebuild()
}

func (j *LeaderboardJob) rebuild() {
	ctx := context.Background()
	log.Println("Rebuilding overall leaderboard ...")

	err := redis_store.ClearLeaderboard(ctx, j.Redis, services.LEADERBOARD_OVERALL)
	if err != nil {
		log.Println(err)
		return
	}

	limit := 500
	count := 0
	for offset := 0; ; offset += limit {
		page, err := datastore.GetLeaderboardStats(ctx, j.Db, limit, offset)
		if err != nil {
			log.Println(err)
			return
		}

		for _, stats := range page {
			_, err := redis_store.SetLeaderboard(ctx, j.Redis, services.LEADERBOARD_OVERALL, &models.LeaderboardItem{
				UserId: stats.UserID,
				Score:  float64(stats.TotalXP),
			})
			if err != nil {
				log.Println(err)
				return
			}
			count++
		}

		if len(page) < limit {
			break
		}
	}

	log.Println("Overall leaderboard rebuilt, entries:", count)
}
