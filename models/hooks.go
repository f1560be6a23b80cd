package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are assigned application-side so the same models work against postgres
// in production and sqlite in tests.

func (p *Profile) BeforeCreate(tx *gorm.DB) error          { p.ID = ensureID(p.ID); return nil }
func (o *OwnedItem) BeforeCreate(tx *gorm.DB) error        { o.ID = ensureID(o.ID); return nil }
func (a *ProfileAchievement) BeforeCreate(tx *gorm.DB) error {
	a.ID = ensureID(a.ID)
	return nil
}
func (t *TaskDefinition) BeforeCreate(tx *gorm.DB) error   { t.ID = ensureID(t.ID); return nil }
func (t *TaskProgress) BeforeCreate(tx *gorm.DB) error     { t.ID = ensureID(t.ID); return nil }
func (t *TargetDefinition) BeforeCreate(tx *gorm.DB) error { t.ID = ensureID(t.ID); return nil }
func (t *TargetProgress) BeforeCreate(tx *gorm.DB) error   { t.ID = ensureID(t.ID); return nil }
func (r *RewardRecord) BeforeCreate(tx *gorm.DB) error     { r.ID = ensureID(r.ID); return nil }
func (s *StoreItem) BeforeCreate(tx *gorm.DB) error        { s.ID = ensureID(s.ID); return nil }
func (a *ActivityEvent) BeforeCreate(tx *gorm.DB) error    { a.ID = ensureID(a.ID); return nil }
func (l *LeaderboardSnapshot) BeforeCreate(tx *gorm.DB) error {
	l.ID = ensureID(l.ID)
	return nil
}

func ensureID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
