package datastore

import (
	"context"
	"database/sql"
	"ktrek/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableCategoryProgress(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.CategoryProgress)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.CategoryProgress)(nil)).Index("index_category_progress_user_id_category").Unique().IfNotExists().Column("user_id", "category").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetCategoryProgress(ctx context.Context, db *bun.DB, userID int64, category string) (*models.CategoryProgress, error) {
	var progress models.CategoryProgress
	err := db.NewSelect().Model(&progress).Where("user_id = ? AND category = ?", userID, category).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &progress, nil
}

func GetAllCategoryProgress(ctx context.Context, db *bun.DB, userID int64) ([]models.CategoryProgress, error) {
	var progress []models.CategoryProgress
	err := db.NewSelect().Model(&progress).Where("user_id = ?", userID).Order("category ASC").Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return progress, nil
}

// UpsertCategoryProgress writes the recomputed counters. The latch columns are
// deliberately absent from the update list: recomputation may move the
// percentage in either direction but can never clear an unlocked tier.
func UpsertCategoryProgress(ctx context.Context, db *bun.DB, progress *models.CategoryProgress) error {
	_, err := db.NewInsert().Model(progress).
		On("CONFLICT (user_id, category) DO UPDATE").
		Set("completed_count = EXCLUDED.completed_count").
		Set("total_count = EXCLUDED.total_count").
		Set("completion_percentage = EXCLUDED.completion_percentage").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	return err
}
