package models

import (
	"time"
)

// AchievementKey is the closed set of unlockable achievements. Rule
// evaluation lives in the services layer; this is the persistence vocabulary.
type AchievementKey string

const (
	AchievementFirstTask       AchievementKey = "first_task"
	AchievementTaskMaster10    AchievementKey = "task_master_10"
	AchievementTaskMaster50    AchievementKey = "task_master_50"
	AchievementLevel5          AchievementKey = "level_5"
	AchievementLevel10         AchievementKey = "level_10"
	AchievementPointCollector  AchievementKey = "point_collector"
	AchievementAccountBuilder  AchievementKey = "account_builder"
	AchievementAccountMogul    AchievementKey = "account_mogul"
	AchievementFirstTarget     AchievementKey = "first_target"
)

// ProfileAchievement is one unlocked achievement (user×key, unique per pair).
// The composite unique index is what makes awards idempotent: membership is
// checked before insert, so re-evaluation never duplicates.
type ProfileAchievement struct {
	ID             string         `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string         `gorm:"uniqueIndex:idx_achievement_user_key;not null" json:"external_user_id"`
	Key            AchievementKey `gorm:"uniqueIndex:idx_achievement_user_key;not null;type:varchar(64)" json:"key"`
	AwardedAt      time.Time      `gorm:"autoCreateTime" json:"awarded_at"`
}
