package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TaskCompletion is the system-of-record for "did user X complete task Y".
// One row per (user_id, task_id), written once and never updated; re-attempts
// after a correct completion are rejected at insert time.
type TaskCompletion struct {
	bun.BaseModel `bun:"table:task_completion"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	TaskID        int64     `bun:"task_id" json:"task_id"`
	Correct       bool      `bun:"correct" json:"correct"`
	DistanceM     *float64  `bun:"distance_m" json:"distance_m,omitempty"`
	AccuracyM     *float64  `bun:"accuracy_m" json:"accuracy_m,omitempty"`
	QRToken       *string   `bun:"qr_token" json:"-"`
	CompletedAt   time.Time `bun:"completed_at,default:current_timestamp" json:"completed_at"`

	Task *Task `bun:"rel:belongs-to,join:task_id=id" json:"task,omitempty"`
}
