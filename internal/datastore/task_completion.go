package datastore

import (
	"context"
	"database/sql"
	"errors"
	"ktrek/internal/models"

	"github.com/uptrace/bun"
)

// Idempotency signals. Both mean the unique constraint already holds the row
// the caller tried to create; internal callers treat them as benign no-ops.
var ErrAlreadyCompleted = errors.New("task already completed")
var ErrAlreadyAwarded = errors.New("reward already granted")

func CreateTableTaskCompletion(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.TaskCompletion)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.TaskCompletion)(nil)).Index("index_task_completion_user_id_task_id").Unique().IfNotExists().Column("user_id", "task_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.TaskCompletion)(nil)).Index("index_task_completion_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertTaskCompletion records a completion exactly once and credits the
// task's exploration points in the same transaction. The unique index on
// (user_id, task_id) is the arbiter under concurrency: whichever insert lands
// first wins, every other caller gets ErrAlreadyCompleted.
func InsertTaskCompletion(ctx context.Context, db *bun.DB, completion *models.TaskCompletion, epDelta int) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().Model(completion).On("CONFLICT (user_id, task_id) DO NOTHING").Exec(ctx)
		if err != nil {
			return err
		}

		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if inserted == 0 {
			return ErrAlreadyCompleted
		}

		if epDelta == 0 {
			return nil
		}

		if _, err := tx.NewInsert().
			Model(&models.UserStats{UserID: completion.UserID}).
			On("CONFLICT (user_id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.UserStats)(nil)).
			Set("total_ep = total_ep + ?", epDelta).
			Set("updated_at = current_timestamp").
			Where("user_id = ?", completion.UserID).
			Exec(ctx)
		return err
	})
}

func GetTaskCompletion(ctx context.Context, db *bun.DB, userID, taskID int64) (*models.TaskCompletion, error) {
	var completion models.TaskCompletion
	err := db.NewSelect().Model(&completion).Where("user_id = ? AND task_id = ?", userID, taskID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &completion, nil
}

func GetCorrectCompletions(ctx context.Context, db *bun.DB, userID int64) ([]models.TaskCompletion, error) {
	var completions []models.TaskCompletion
	err := db.NewSelect().Model(&completions).
		Relation("Task").
		Where("task_completion.user_id = ?", userID).
		Where("task_completion.correct = true").
		Order("task_completion.id ASC").
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return completions, nil
}

func CountCorrectCompletionsByCategory(ctx context.Context, db *bun.DB, userID int64, category string) (int, error) {
	return db.NewSelect().Model((*models.TaskCompletion)(nil)).
		Join("JOIN task ON task.id = task_completion.task_id").
		Where("task_completion.user_id = ?", userID).
		Where("task_completion.correct = true").
		Where("task.category = ?", category).
		Count(ctx)
}
