package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserReward is the reward ledger. (user_id, reward_identifier) is unique and
// acts as the idempotency anchor for the whole award pipeline: a definition
// that is already present here is never awarded or credited again.
type UserReward struct {
	bun.BaseModel    `bun:"table:user_reward"`
	ID               int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID           int64      `bun:"user_id" json:"user_id"`
	RewardIdentifier string     `bun:"reward_identifier" json:"reward_identifier"`
	RewardType       RewardType `bun:"reward_type" json:"reward_type"`
	Rarity           Rarity     `bun:"rarity" json:"rarity"`
	XP               int        `bun:"xp" json:"xp"`
	Source           string     `bun:"source" json:"source"`
	EarnedAt         time.Time  `bun:"earned_at,default:current_timestamp" json:"earned_at"`
}

// QualifyingReward is a definition the trigger evaluator found newly earned,
// carried to the awarder together with the tier latch to flip (category_tier
// triggers only).
type QualifyingReward struct {
	Definition *RewardDefinition `json:"definition"`
	Tier       *TierCondition    `json:"tier,omitempty"`
}

type AwardOutcome struct {
	Granted bool        `json:"granted"`
	XPDelta int         `json:"xp_delta"`
	Reward  *UserReward `json:"reward,omitempty"`
	Stats   *UserStats  `json:"stats,omitempty"`
}
