package models

import (
	"time"
)

// MetricType names the external activity stream a target measures.
type MetricType string

const (
	MetricAccountsCreated MetricType = "accounts_created"
	MetricProxiesAdded    MetricType = "proxies_added"
	MetricWalletsLinked   MetricType = "wallets_linked"
)

// PeriodType describes the declared cadence of a target window. The engine
// grades against StartDate/EndDate directly; PeriodType is informational for
// callers and catalog tooling.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
	PeriodCustom  PeriodType = "custom"
)

// TargetDefinition: a time-windowed cumulative metric goal,
// e.g., "create 10 accounts this month".
type TargetDefinition struct {
	ID               string     `gorm:"primaryKey;type:uuid" json:"id"`
	Name             string     `gorm:"not null" json:"name"`
	MetricType       MetricType `gorm:"index;not null;type:varchar(32)" json:"metric_type"`
	TargetValue      int        `gorm:"not null" json:"target_value"`
	PeriodType       PeriodType `gorm:"not null;type:varchar(16)" json:"period_type"`
	StartDate        time.Time  `gorm:"not null" json:"start_date"`
	EndDate          time.Time  `gorm:"not null" json:"end_date"`
	PointReward      int        `gorm:"default:0" json:"point_reward"`
	ExperienceReward int        `gorm:"default:0" json:"experience_reward"`
	Active           bool       `gorm:"default:true;index" json:"active"`

	Timestamps
}

// TargetProgress: per user×target grading state. Once Achieved is set the row
// is frozen: CurrentValue is never recomputed again for that pair.
type TargetProgress struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string     `gorm:"uniqueIndex:idx_target_progress_user_target;not null" json:"external_user_id"`
	TargetID       string     `gorm:"uniqueIndex:idx_target_progress_user_target;not null" json:"target_id"`
	CurrentValue   int64      `gorm:"default:0" json:"current_value"`
	Achieved       bool       `gorm:"default:false" json:"achieved"`
	AchievedAt     *time.Time `json:"achieved_at,omitempty"`

	Timestamps
}

// ActivityEvent is the local, append-only mirror of external user activity.
// Rows arrive via the event sync worker; SourceID dedups re-delivery.
// The default EventCounter counts these rows per metric and window.
type ActivityEvent struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string     `gorm:"index:idx_activity_user_metric;not null" json:"external_user_id"`
	MetricType     MetricType `gorm:"index:idx_activity_user_metric;not null;type:varchar(32)" json:"metric_type"`
	SourceID       string     `gorm:"uniqueIndex;not null" json:"source_id"`
	OccurredAt     time.Time  `gorm:"index;not null" json:"occurred_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
