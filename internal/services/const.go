package services

import (
	"errors"
	"fmt"
	"time"
)

var ErrCheckinLock = errors.New("checkin locked")

var ErrInvalidProof = errors.New("invalid proof")
var ErrInsufficientAccuracy = errors.New("gps accuracy exceeds allowed maximum")
var ErrOutOfRange = errors.New("too far from target")
var ErrTypeMismatch = errors.New("proof does not match task type")

const (
	CONFIG_SCHEMA_VERSION = "SCHEMA_VERSION"

	CONFIG_XP_COMMON    = "XP_COMMON"
	CONFIG_XP_RARE      = "XP_RARE"
	CONFIG_XP_EPIC      = "XP_EPIC"
	CONFIG_XP_LEGENDARY = "XP_LEGENDARY"

	CONFIG_TIER_BRONZE_PERCENT = "TIER_BRONZE_PERCENT"
	CONFIG_TIER_SILVER_PERCENT = "TIER_SILVER_PERCENT"
	CONFIG_TIER_GOLD_PERCENT   = "TIER_GOLD_PERCENT"

	CONFIG_GPS_MAX_ACCURACY_M = "GPS_MAX_ACCURACY_M"

	CONFIG_LEVEL_BASE_XP = "LEVEL_BASE_XP"
	CONFIG_LEVEL_MAX     = "LEVEL_MAX"

	CONFIG_OVERALL_LEADERBOARD_LIMIT  = "OVERALL_LEADERBOARD_LIMIT"
	CONFIG_CHECKIN_RATE_LIMIT_PER_MIN = "CHECKIN_RATE_LIMIT_PER_MIN"

	SCHEMA_VERSION = "1"

	DEFAULT_XP_COMMON    = 25
	DEFAULT_XP_RARE      = 50
	DEFAULT_XP_EPIC      = 100
	DEFAULT_XP_LEGENDARY = 200

	DEFAULT_TIER_BRONZE_PERCENT = 33
	DEFAULT_TIER_SILVER_PERCENT = 66
	DEFAULT_TIER_GOLD_PERCENT   = 100

	DEFAULT_GPS_MAX_ACCURACY_M = 150

	DEFAULT_LEVEL_BASE_XP = 100
	DEFAULT_LEVEL_MAX     = 30

	OVERALL_LEADERBOARD_DEFAULT_LIMIT  = 20
	DEFAULT_CHECKIN_RATE_LIMIT_PER_MIN = 10

	LEADERBOARD_OVERALL = "overall"

	CACHE_TTL_1_MIN   = 1 * time.Minute
	CACHE_TTL_5_MINS  = 5 * time.Minute
	CACHE_TTL_15_MINS = 15 * time.Minute
	CACHE_TTL_1_HOUR  = 1 * time.Hour
)

func LockKeyUserCheckin(userID int64) string {
	return fmt.Sprintf("lock:checkin:%d", userID)
}

func LimitKeyUserCheckin(userID int64) string {
	return fmt.Sprintf("limit:checkin:%d", userID)
}

// db
func DBKeyTask(taskID int64) string {
	return fmt.Sprintf("task:%d", taskID)
}

func DBKeyTasks() string {
	return "tasks:enabled"
}

func DBKeyRewardDefinitions() string {
	return "reward_definitions:enabled"
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", key)
}

func DBKeyUserStats(userID int64) string {
	return fmt.Sprintf("user_stats:%d", userID)
}

func DBKeyUserProgress(userID int64) string {
	return fmt.Sprintf("category_progress:%d", userID)
}

func DBKeyUserRewards(userID int64) string {
	return fmt.Sprintf("user_rewards:%d", userID)
}

func DBKeyLeaderboardByUser(name string, userID int64, limit int) string {
	return fmt.Sprintf("leaderboard_by_user:%s:%d:%d", name, userID, limit)
}
