package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CategoryProgress tracks a user's coverage of one attraction category.
// completion_percentage is always completed/total*100 recomputed from
// task_completion. The tier booleans are one-way latches: once set they are
// never cleared, even if a later recomputation lowers the percentage.
type CategoryProgress struct {
	bun.BaseModel        `bun:"table:category_progress"`
	ID                   int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID               int64     `bun:"user_id" json:"user_id"`
	Category             string    `bun:"category" json:"category"`
	CompletedCount       int       `bun:"completed_count" json:"completed_count"`
	TotalCount           int       `bun:"total_count" json:"total_count"`
	CompletionPercentage float64   `bun:"completion_percentage" json:"completion_percentage"`
	BronzeUnlocked       bool      `bun:"bronze_unlocked" json:"bronze_unlocked"`
	SilverUnlocked       bool      `bun:"silver_unlocked" json:"silver_unlocked"`
	GoldUnlocked         bool      `bun:"gold_unlocked" json:"gold_unlocked"`
	UpdatedAt            time.Time `bun:"updated_at" json:"updated_at"`
}

func (progress *CategoryProgress) TierUnlocked(tier Tier) bool {
	switch tier {
	case TierBronze:
		return progress.BronzeUnlocked
	case TierSilver:
		return progress.SilverUnlocked
	case TierGold:
		return progress.GoldUnlocked
	}
	return false
}
