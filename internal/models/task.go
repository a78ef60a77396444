package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TaskType string

const (
	TaskTypeCheckin          TaskType = "checkin"
	TaskTypeQuiz             TaskType = "quiz"
	TaskTypeCountConfirm     TaskType = "count_confirm"
	TaskTypeObservationMatch TaskType = "observation_match"
)

// Task is a published attraction task. Rows are owned by the content admins
// and are immutable once published; this service only reads them.
type Task struct {
	bun.BaseModel  `bun:"table:task"`
	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	Slug           string    `bun:"slug" json:"slug"`
	Name           string    `bun:"name" json:"name"`
	Type           TaskType  `bun:"type" json:"type"`
	Category       string    `bun:"category" json:"category"`
	Latitude       *float64  `bun:"latitude" json:"latitude,omitempty"`
	Longitude      *float64  `bun:"longitude" json:"longitude,omitempty"`
	AllowedRadiusM float64   `bun:"allowed_radius_m" json:"allowed_radius_m"`
	QRSecret       *string   `bun:"qr_secret" json:"-"`
	EP             int       `bun:"ep" json:"ep"`
	Enabled        bool      `bun:"enabled" json:"-"`
	CreatedAt      time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

func (task *Task) HasCoordinates() bool {
	return task.Latitude != nil && task.Longitude != nil
}
