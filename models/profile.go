package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile tracks gamified progression for each user (denormalized for performance).
// Created lazily on first access; never deleted by the engine.
type Profile struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Core progression
	Level             int `json:"level" gorm:"default:1"`
	Experience        int `json:"experience" gorm:"default:0"`
	Points            int `json:"points" gorm:"default:0"`              // spendable balance
	TotalPointsEarned int `json:"total_points_earned" gorm:"default:0"` // monotonic, never reduced by spends

	// Activity counters
	TasksCompleted  int64          `json:"tasks_completed" gorm:"default:0"`
	TargetsAchieved int64          `json:"targets_achieved" gorm:"default:0"`
	CategoryCounts  map[string]int `json:"category_counts" gorm:"serializer:json"`

	// Cosmetic key/value bag, opaque to the engine
	Attributes map[string]string `json:"attributes" gorm:"serializer:json"`

	// Milestones
	LastFedAt         *time.Time `json:"last_fed_at,omitempty"`
	LastInteractionAt *time.Time `json:"last_interaction_at,omitempty"`
	LastLevelUpAt     *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// OwnedItem records a purchased store item (user×item join, unique per pair).
type OwnedItem struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex:idx_owned_user_item;not null" json:"external_user_id"`
	ItemID         string    `gorm:"uniqueIndex:idx_owned_user_item;not null" json:"item_id"`
	Equipped       bool      `gorm:"default:false" json:"equipped"`
	PurchasedAt    time.Time `gorm:"autoCreateTime" json:"purchased_at"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
