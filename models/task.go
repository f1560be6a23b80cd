package models

import (
	"time"
)

// TaskType controls the reset rule applied at completion time.
type TaskType string

const (
	TaskTypeOneTime   TaskType = "one_time"  // never resets
	TaskTypeDaily     TaskType = "daily"     // resets on calendar-day boundary
	TaskTypeWeekly    TaskType = "weekly"    // resets on ISO-week boundary
	TaskTypeRecurring TaskType = "recurring" // resets immediately after completion
)

// TaskDefinition: static task config.
type TaskDefinition struct {
	ID               string   `gorm:"primaryKey;type:uuid" json:"id"`
	Slug             string   `gorm:"uniqueIndex;not null" json:"slug"` // e.g., "create-account"
	Name             string   `gorm:"not null" json:"name"`
	Description      string   `gorm:"type:text" json:"description"`
	Type             TaskType `gorm:"not null;type:varchar(16)" json:"type"`
	Category         string   `gorm:"index;not null" json:"category"`
	Target           int      `gorm:"not null;default:1" json:"target"` // steps required per cycle
	PointReward      int      `gorm:"default:0" json:"point_reward"`
	ExperienceReward int      `gorm:"default:0" json:"experience_reward"`
	Active           bool     `gorm:"default:true;index" json:"active"`

	Timestamps
}

// TaskProgress: per user×task cycle state. A resettable task crossing its
// period boundary gets this row zeroed, not incremented.
// Invariant: 0 <= Progress <= Target; CompletedAt set iff Progress == Target
// for the current cycle.
type TaskProgress struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string     `gorm:"uniqueIndex:idx_task_progress_user_task;not null" json:"external_user_id"`
	TaskID         string     `gorm:"uniqueIndex:idx_task_progress_user_task;not null" json:"task_id"`
	Progress       int        `gorm:"default:0" json:"progress"`
	Target         int        `gorm:"not null" json:"target"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	Timestamps
}
