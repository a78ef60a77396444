package datastore

import (
	"context"
	"ktrek/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableRewardDefinition(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.RewardDefinition)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.RewardDefinition)(nil)).Index("index_reward_definition_identifier").Unique().IfNotExists().Column("reward_identifier").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.RewardDefinition)(nil)).Index("index_reward_definition_trigger_type").IfNotExists().Column("trigger_type").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetEnabledRewardDefinitions(ctx context.Context, db *bun.DB) ([]*models.RewardDefinition, error) {
	var definitions []*models.RewardDefinition
	err := db.NewSelect().Model(&definitions).Where("enabled = true").Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return definitions, nil
}

func CreateRewardDefinition(ctx context.Context, db *bun.DB, definition *models.RewardDefinition) error {
	_, err := db.NewInsert().Model(definition).On("CONFLICT (reward_identifier) DO NOTHING").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}
