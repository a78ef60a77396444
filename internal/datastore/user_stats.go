package datastore

import (
	"context"
	"ktrek/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUserStats(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.UserStats)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserStats)(nil)).Index("index_user_stats_total_xp").IfNotExists().Column("total_xp").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetUserStats(ctx context.Context, db *bun.DB, userID int64) (*models.UserStats, error) {
	var stats models.UserStats
	err := db.NewSelect().Model(&stats).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func EnsureUserStats(ctx context.Context, db *bun.DB, userID int64) error {
	_, err := db.NewInsert().
		Model(&models.UserStats{UserID: userID}).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	return err
}

// GetLeaderboardStats orders by XP with user id as the deterministic
// tie-break; rank is the caller's 1-based position in this ordering.
func GetLeaderboardStats(ctx context.Context, db *bun.DB, limit, offset int) ([]*models.UserStats, error) {
	var stats []*models.UserStats
	err := db.NewSelect().Model(&stats).
		OrderExpr("total_xp DESC, user_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func GetUserIDsPaged(ctx context.Context, db *bun.DB, limit, offset int) ([]int64, error) {
	var ids []int64
	err := db.NewSelect().Model((*models.User)(nil)).
		Column("id").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}

	return ids, nil
}
