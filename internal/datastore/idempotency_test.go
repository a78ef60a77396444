package datastore

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"ktrek/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// testDB connects to the database named by TEST_DB_DSN and makes sure the
// tables exist. Tests use fresh user ids per run, so no cleanup is needed.
func testDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, CreateTableUserStats(ctx, db))
	require.NoError(t, CreateTableTaskCompletion(ctx, db))
	require.NoError(t, CreateTableUserReward(ctx, db))
	require.NoError(t, CreateTableCategoryProgress(ctx, db))

	return db
}

func testUserID() int64 {
	return time.Now().UnixNano()
}

func TestInsertTaskCompletionCreditsOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	userID := testUserID()

	first := &models.TaskCompletion{UserID: userID, TaskID: 1, Correct: true}
	require.NoError(t, InsertTaskCompletion(ctx, db, first, 10))

	// a retry of the same (user, task) pair loses to the unique index and
	// must not credit EP a second time
	second := &models.TaskCompletion{UserID: userID, TaskID: 1, Correct: true}
	err := InsertTaskCompletion(ctx, db, second, 10)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	stats, err := GetUserStats(ctx, db, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalEP)

	completion, err := GetTaskCompletion(ctx, db, userID, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, completion.ID)

	// a different task for the same user goes through
	require.NoError(t, InsertTaskCompletion(ctx, db, &models.TaskCompletion{UserID: userID, TaskID: 2, Correct: true}, 5))

	stats, err = GetUserStats(ctx, db, userID)
	require.NoError(t, err)
	assert.Equal(t, 15, stats.TotalEP)
}

func TestAwardRewardCreditsOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	userID := testUserID()

	levelFor := func(totalXP int) int { return 1 }

	reward := &models.UserReward{
		UserID:           userID,
		RewardIdentifier: "explorer_5",
		RewardType:       models.RewardTypeBadge,
		Rarity:           models.RarityCommon,
		XP:               25,
		Source:           "checkin",
	}
	stats, err := AwardReward(ctx, db, reward, levelFor, nil)
	require.NoError(t, err)
	assert.Equal(t, 25, stats.TotalXP)
	assert.Equal(t, 1, stats.TotalBadges)

	// replay of the same identifier must leave the ledger and XP untouched
	replay := &models.UserReward{
		UserID:           userID,
		RewardIdentifier: "explorer_5",
		RewardType:       models.RewardTypeBadge,
		Rarity:           models.RarityCommon,
		XP:               25,
		Source:           "reconcile",
	}
	_, err = AwardReward(ctx, db, replay, levelFor, nil)
	assert.ErrorIs(t, err, ErrAlreadyAwarded)

	after, err := GetUserStats(ctx, db, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, after.TotalXP)
	assert.Equal(t, 1, after.TotalBadges)

	rewards, err := GetUserRewards(ctx, db, userID)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.Equal(t, "checkin", rewards[0].Source)

	awarded, err := GetAwardedIdentifiers(ctx, db, userID)
	require.NoError(t, err)
	assert.True(t, awarded["explorer_5"])
}
