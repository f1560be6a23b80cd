package models

import (
	"time"
)

// RewardSourceType tags where a grant came from.
type RewardSourceType string

const (
	RewardSourceTask    RewardSourceType = "task"
	RewardSourceTarget  RewardSourceType = "target"
	RewardSourceFeed    RewardSourceType = "feed"
	RewardSourceWelcome RewardSourceType = "welcome"
)

// RewardRecord is one row of the append-only reward ledger. It is the audit
// trail, not authoritative state: balances live on Profile. No code path
// updates or deletes these rows.
type RewardRecord struct {
	ID             string           `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string           `gorm:"index;not null" json:"external_user_id"`
	Points         int              `gorm:"default:0" json:"points"`
	Experience     int              `gorm:"default:0" json:"experience"`
	Reason         string           `gorm:"not null" json:"reason"`
	SourceType     RewardSourceType `gorm:"not null;type:varchar(16)" json:"source_type"`
	SourceID       string           `gorm:"index" json:"source_id"`
	CreatedAt      time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
}
