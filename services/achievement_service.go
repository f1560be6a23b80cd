package services

import (
	"log"
	"time"

	"progression-engine/models"

	"gorm.io/gorm"
)

// AchievementRule pairs a key with its unlock condition over the current
// profile state. Rules are evaluated in catalog order.
type AchievementRule struct {
	Key         models.AchievementKey
	Name        string
	Description string
	Unlocked    func(prof *models.Profile) bool
}

// AchievementRules is the fixed, ordered rule catalog.
var AchievementRules = []AchievementRule{
	{
		Key:         models.AchievementFirstTask,
		Name:        "First Steps",
		Description: "Completed your first task",
		Unlocked:    func(p *models.Profile) bool { return p.TasksCompleted >= 1 },
	},
	{
		Key:         models.AchievementTaskMaster10,
		Name:        "Getting Things Done",
		Description: "Completed 10 tasks",
		Unlocked:    func(p *models.Profile) bool { return p.TasksCompleted >= 10 },
	},
	{
		Key:         models.AchievementTaskMaster50,
		Name:        "Task Master",
		Description: "Completed 50 tasks",
		Unlocked:    func(p *models.Profile) bool { return p.TasksCompleted >= 50 },
	},
	{
		Key:         models.AchievementLevel5,
		Name:        "Apprentice",
		Description: "Reached level 5",
		Unlocked:    func(p *models.Profile) bool { return p.Level >= 5 },
	},
	{
		Key:         models.AchievementLevel10,
		Name:        "Veteran",
		Description: "Reached level 10",
		Unlocked:    func(p *models.Profile) bool { return p.Level >= 10 },
	},
	{
		Key:         models.AchievementPointCollector,
		Name:        "Point Collector",
		Description: "Earned 500 lifetime points",
		Unlocked:    func(p *models.Profile) bool { return p.TotalPointsEarned >= 500 },
	},
	{
		Key:         models.AchievementAccountBuilder,
		Name:        "Account Builder",
		Description: "Completed 5 tasks in the accounts category",
		Unlocked:    func(p *models.Profile) bool { return p.CategoryCounts["accounts"] >= 5 },
	},
	{
		Key:         models.AchievementAccountMogul,
		Name:        "Account Mogul",
		Description: "Completed 20 tasks in the accounts category",
		Unlocked:    func(p *models.Profile) bool { return p.CategoryCounts["accounts"] >= 20 },
	},
	{
		Key:         models.AchievementFirstTarget,
		Name:        "On Target",
		Description: "Achieved your first target",
		Unlocked:    func(p *models.Profile) bool { return p.TargetsAchieved >= 1 },
	},
}

// AchievementService evaluates the rule catalog against a profile and
// persists unlocks. Awards are idempotent: membership is checked before
// insert, so evaluating twice with no state change returns nothing new.
type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

// Evaluate runs inside the caller's transaction so unlocks roll back together
// with the state change that triggered them. Returns the newly unlocked keys
// in catalog order.
func (s *AchievementService) Evaluate(tx *gorm.DB, prof *models.Profile, now time.Time) ([]models.AchievementKey, error) {
	var existing []models.ProfileAchievement
	if err := tx.Where("external_user_id = ?", prof.ExternalUserID).Find(&existing).Error; err != nil {
		return nil, err
	}
	unlocked := make(map[models.AchievementKey]bool, len(existing))
	for _, a := range existing {
		unlocked[a.Key] = true
	}

	var awarded []models.AchievementKey
	for _, rule := range AchievementRules {
		if unlocked[rule.Key] || !rule.Unlocked(prof) {
			continue
		}
		row := models.ProfileAchievement{
			ExternalUserID: prof.ExternalUserID,
			Key:            rule.Key,
			AwardedAt:      now,
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}
		awarded = append(awarded, rule.Key)
		log.Printf("[ACHIEVEMENT] unlocked %s for user=%s", rule.Key, prof.ExternalUserID)
	}
	return awarded, nil
}

// Unlocked returns the user's achievements with their award times.
func (s *AchievementService) Unlocked(userID string) (map[models.AchievementKey]time.Time, error) {
	var rows []models.ProfileAchievement
	if err := s.DB.Where("external_user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[models.AchievementKey]time.Time, len(rows))
	for _, r := range rows {
		out[r.Key] = r.AwardedAt
	}
	return out, nil
}
