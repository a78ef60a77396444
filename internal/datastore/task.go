package datastore

import (
	"context"
	"ktrek/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableTask(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Task)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Task)(nil)).Index("index_task_slug").Unique().IfNotExists().Column("slug").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Task)(nil)).Index("index_task_category").IfNotExists().Column("category").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Task)(nil)).Index("index_task_type").IfNotExists().Column("type").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetTask(ctx context.Context, db *bun.DB, taskID int64) (*models.Task, error) {
	var task models.Task
	err := db.NewSelect().Model(&task).Where("id = ?", taskID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &task, nil
}

func GetEnabledTasks(ctx context.Context, db *bun.DB) ([]models.Task, error) {
	var tasks []models.Task
	err := db.NewSelect().Model(&tasks).Where("enabled = true").Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func GetTasksByCategory(ctx context.Context, db *bun.DB, category string) ([]models.Task, error) {
	var tasks []models.Task
	err := db.NewSelect().Model(&tasks).Where("category = ?", category).Where("enabled = true").Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func CountTasksByCategory(ctx context.Context, db *bun.DB, category string) (int, error) {
	return db.NewSelect().Model((*models.Task)(nil)).Where("category = ?", category).Where("enabled = true").Count(ctx)
}

func CreateTask(ctx context.Context, db *bun.DB, task *models.Task) error {
	_, err := db.NewInsert().Model(task).On("CONFLICT (slug) DO NOTHING").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}
