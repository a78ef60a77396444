package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserStats holds per-user derived aggregates. Only the progression ledger
// writes here: XP/EP move by monotonic increments inside the award/completion
// transactions, level and the badge/title counts are recomputed from their
// sources, never incremented independently.
type UserStats struct {
	bun.BaseModel `bun:"table:user_stats"`
	UserID        int64     `bun:"user_id,pk" json:"user_id"`
	TotalXP       int       `bun:"total_xp" json:"total_xp"`
	TotalEP       int       `bun:"total_ep" json:"total_ep"`
	CurrentLevel  int       `bun:"current_level" json:"current_level"`
	TotalBadges   int       `bun:"total_badges" json:"total_badges"`
	TotalTitles   int       `bun:"total_titles" json:"total_titles"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}
