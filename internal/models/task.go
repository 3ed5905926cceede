package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Task struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description *string   `json:"description"`
	Status      string    `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsValidStatus reports whether s is a status accepted at task creation.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// IsValidUpdateStatus reports whether s is a status accepted on update.
// in_progress is only settable at creation time; whether that restriction
// is intentional is still an open product question, so it is kept as-is.
func IsValidUpdateStatus(s string) bool {
	return s == StatusPending || s == StatusCompleted
}
