package redis_store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"ktrek/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

func dbKeyLeaderboard(name string) string {
	return fmt.Sprintf("leaderboard:%s", name)
}

func dbKeyStatsSnapshot(userID int64) string {
	return fmt.Sprintf("user:%d:stats_snapshot", userID)
}

func SetLeaderboard(ctx context.Context, cmd redis.Cmdable, name string, v *models.LeaderboardItem) (*models.LeaderboardItem, error) {
	err := cmd.ZAdd(ctx, dbKeyLeaderboard(name), redis.Z{
		Score:  v.Score,
		Member: v.UserId,
	}).Err()
	if err != nil {
		return nil, err
	}

	return v, nil
}

func ClearLeaderboard(ctx context.Context, cmd redis.Cmdable, name string) error {
	return cmd.Del(ctx, dbKeyLeaderboard(name)).Err()
}

// rankItems orders raw ZSET entries for serving: score descending, equal
// scores broken by ascending user id, rank = 1-based position. ZREVRANGE
// breaks ties by descending member lexicographically, which is the wrong way
// around, so serving order is always re-derived here.
func rankItems(raw []redis.Z) []*models.LeaderboardItem {
	items := make([]*models.LeaderboardItem, 0, len(raw))
	for _, z := range raw {
		id, _ := strconv.ParseInt(z.Member.(string), 10, 64)
		items = append(items, &models.LeaderboardItem{
			UserId: id,
			Score:  z.Score,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].UserId < items[j].UserId
	})

	for i := range items {
		items[i].Rank = i + 1
	}

	return items
}

func GetLeaderboard(ctx context.Context, cmd redis.Cmdable, name string, num int) ([]*models.LeaderboardItem, error) {
	// num always greater than 0
	raw, err := cmd.ZRevRangeWithScores(ctx, dbKeyLeaderboard(name), 0, int64(num-1)).Result()
	if err != nil {
		return nil, err
	}

	// when ties straddle the cutoff, pull in the rest of the tail score so
	// the ascending-id tie-break decides who makes the window
	if len(raw) == num {
		tail := strconv.FormatFloat(raw[len(raw)-1].Score, 'f', -1, 64)
		ties, err := cmd.ZRangeByScoreWithScores(ctx, dbKeyLeaderboard(name), &redis.ZRangeBy{Min: tail, Max: tail}).Result()
		if err != nil {
			return nil, err
		}

		seen := make(map[string]bool, len(raw))
		for _, z := range raw {
			seen[z.Member.(string)] = true
		}
		for _, z := range ties {
			if !seen[z.Member.(string)] {
				raw = append(raw, z)
			}
		}
	}

	items := rankItems(raw)
	if len(items) > num {
		items = items[:num]
	}

	return items, nil
}

// GetRank returns the 0-based rank by descending score with ascending user id
// as the tie-break. redis.Nil when the user is not on the board.
func GetRank(ctx context.Context, cmd redis.Cmdable, name string, userID int64) (int64, error) {
	member := strconv.FormatInt(userID, 10)
	score, err := cmd.ZScore(ctx, dbKeyLeaderboard(name), member).Result()
	if err != nil {
		return -1, err
	}

	s := strconv.FormatFloat(score, 'f', -1, 64)
	higher, err := cmd.ZCount(ctx, dbKeyLeaderboard(name), "("+s, "+inf").Result()
	if err != nil {
		return -1, err
	}

	ties, err := cmd.ZRangeByScore(ctx, dbKeyLeaderboard(name), &redis.ZRangeBy{Min: s, Max: s}).Result()
	if err != nil {
		return -1, err
	}

	var ahead int64
	for _, m := range ties {
		id, _ := strconv.ParseInt(m, 10, 64)
		if id < userID {
			ahead++
		}
	}

	return higher + ahead, nil
}

func GetScore(ctx context.Context, cmd redis.Cmdable, name string, userID int64) (float64, error) {
	score, err := cmd.ZScore(ctx, dbKeyLeaderboard(name), strconv.FormatInt(userID, 10)).Result()
	if err != nil {
		return -1, err
	}

	return score, nil
}

func GetLeaderboardParticipantsCount(ctx context.Context, cmd redis.Cmdable, name string) (int64, error) {
	count, err := cmd.ZCard(ctx, dbKeyLeaderboard(name)).Result()
	if err != nil {
		return 0, err
	}

	return count, nil
}

func SetStatsSnapshot(ctx context.Context, cmd redis.Cmdable, stats *models.UserStats, ttl time.Duration) error {
	b, err := msgpack.Marshal(stats)
	if err != nil {
		return err
	}

	return cmd.Set(ctx, dbKeyStatsSnapshot(stats.UserID), b, ttl).Err()
}

func GetStatsSnapshot(ctx context.Context, cmd redis.Cmdable, userID int64) (*models.UserStats, error) {
	var v *models.UserStats
	b, err := cmd.Get(ctx, dbKeyStatsSnapshot(userID)).Bytes()
	if err != nil {
		return nil, err
	}

	err = msgpack.Unmarshal(b, &v)
	return v, err
}
