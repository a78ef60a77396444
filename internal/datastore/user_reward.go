package datastore

import (
	"context"
	"database/sql"
	"ktrek/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUserReward(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.UserReward)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserReward)(nil)).Index("index_user_reward_user_id_identifier").Unique().IfNotExists().Column("user_id", "reward_identifier").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.UserReward)(nil)).Index("index_user_reward_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// AwardReward grants a reward and credits its XP atomically. The unique index
// on (user_id, reward_identifier) makes the insert the idempotency gate: when
// the row already exists nothing else runs and ErrAlreadyAwarded comes back.
// Inside the same transaction the user's stats row is re-derived — XP by
// increment, level from total XP, badge/title counts from the reward ledger —
// and a category_tier award flips its one-way latch. Either everything
// commits or nothing does; a reward can never exist without its XP.
func AwardReward(ctx context.Context, db *bun.DB, reward *models.UserReward, levelFor func(totalXP int) int, tier *models.TierCondition) (*models.UserStats, error) {
	var stats models.UserStats

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().Model(reward).On("CONFLICT (user_id, reward_identifier) DO NOTHING").Exec(ctx)
		if err != nil {
			return err
		}

		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if inserted == 0 {
			return ErrAlreadyAwarded
		}

		if _, err := tx.NewInsert().
			Model(&models.UserStats{UserID: reward.UserID}).
			On("CONFLICT (user_id) DO NOTHING").
			Exec(ctx); err != nil {
			return err
		}

		badges, err := countRewardsByType(ctx, tx, reward.UserID, models.RewardTypeBadge)
		if err != nil {
			return err
		}
		titles, err := countRewardsByType(ctx, tx, reward.UserID, models.RewardTypeTitle)
		if err != nil {
			return err
		}

		err = tx.NewUpdate().
			Model(&stats).
			Set("total_xp = total_xp + ?", reward.XP).
			Set("total_badges = ?", badges).
			Set("total_titles = ?", titles).
			Set("updated_at = current_timestamp").
			Where("user_id = ?", reward.UserID).
			Returning("*").
			Scan(ctx)
		if err != nil {
			return err
		}

		stats.CurrentLevel = levelFor(stats.TotalXP)
		if _, err := tx.NewUpdate().
			Model((*models.UserStats)(nil)).
			Set("current_level = ?", stats.CurrentLevel).
			Where("user_id = ?", reward.UserID).
			Exec(ctx); err != nil {
			return err
		}

		if tier != nil {
			if err := unlockTier(ctx, tx, reward.UserID, tier); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func countRewardsByType(ctx context.Context, idb bun.IDB, userID int64, rewardType models.RewardType) (int, error) {
	return idb.NewSelect().Model((*models.UserReward)(nil)).
		Where("user_id = ?", userID).
		Where("reward_type = ?", rewardType).
		Count(ctx)
}

// unlockTier sets the latch only, never clears it.
func unlockTier(ctx context.Context, idb bun.IDB, userID int64, tier *models.TierCondition) error {
	column := ""
	switch tier.Tier {
	case models.TierBronze:
		column = "bronze_unlocked"
	case models.TierSilver:
		column = "silver_unlocked"
	case models.TierGold:
		column = "gold_unlocked"
	default:
		return nil
	}

	_, err := idb.NewUpdate().
		Model((*models.CategoryProgress)(nil)).
		Set(column+" = true").
		Set("updated_at = current_timestamp").
		Where("user_id = ?", userID).
		Where("category = ?", tier.Category).
		Exec(ctx)
	return err
}

func GetUserRewards(ctx context.Context, db *bun.DB, userID int64) ([]models.UserReward, error) {
	var rewards []models.UserReward
	err := db.NewSelect().Model(&rewards).Where("user_id = ?", userID).Order("earned_at ASC").Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	return rewards, nil
}

func GetAwardedIdentifiers(ctx context.Context, db *bun.DB, userID int64) (map[string]bool, error) {
	var identifiers []string
	err := db.NewSelect().Model((*models.UserReward)(nil)).
		Column("reward_identifier").
		Where("user_id = ?", userID).
		Scan(ctx, &identifiers)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	awarded := make(map[string]bool, len(identifiers))
	for _, identifier := range identifiers {
		awarded[identifier] = true
	}

	return awarded, nil
}
