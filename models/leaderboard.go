package models

import (
	"time"
)

// LeaderboardMetric selects the ranking dimension.
type LeaderboardMetric string

const (
	LeaderboardByLevel        LeaderboardMetric = "level"
	LeaderboardByPoints       LeaderboardMetric = "points"
	LeaderboardByAchievements LeaderboardMetric = "achievements"
)

// LeaderboardEntry is one ranked row as returned to callers. Rank is assigned
// by output position (1-based) over a deterministic total ordering.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	ExternalUserID string `json:"external_user_id"`
	Level          int    `json:"level"`
	Experience     int    `json:"experience"`
	Points         int    `json:"total_points_earned"`
	Achievements   int    `json:"achievements"`
}

// LeaderboardSnapshot is a cached ranking row, rebuilt periodically by the
// scheduler so cheap reads never touch the profiles table.
type LeaderboardSnapshot struct {
	ID             string            `gorm:"primaryKey;type:uuid" json:"id"`
	Metric         LeaderboardMetric `gorm:"uniqueIndex:idx_snapshot_metric_rank;not null;type:varchar(16)" json:"metric"`
	Rank           int               `gorm:"uniqueIndex:idx_snapshot_metric_rank;not null" json:"rank"`
	ExternalUserID string            `gorm:"index;not null" json:"external_user_id"`
	Score          int64             `gorm:"not null" json:"score"`
	SecondaryScore int64             `gorm:"default:0" json:"secondary_score"`
	ComputedAt     time.Time         `gorm:"not null" json:"computed_at"`
}
