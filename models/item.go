package models

// StoreItem: catalog entry purchasable with points. Purchases are gated by
// RequiredLevel and deduct from Profile.Points only (not TotalPointsEarned).
type StoreItem struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	Slug          string `gorm:"uniqueIndex;not null" json:"slug"` // e.g., "golden-frame"
	Name          string `gorm:"not null" json:"name"`
	Description   string `gorm:"type:text" json:"description"`
	PointCost     int    `gorm:"not null" json:"point_cost"`
	RequiredLevel int    `gorm:"not null;default:1" json:"required_level"`
	Active        bool   `gorm:"default:true;index" json:"active"`

	Timestamps
}
