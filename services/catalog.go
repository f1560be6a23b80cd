package services

import (
	"log"
	"time"

	"progression-engine/models"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

var titleCaser = cases.Title(language.English)

// SeedDefaults inserts the default task, target and store catalogs if they
// are missing. Idempotent by slug/name, safe to run at every startup.
func SeedDefaults(db *gorm.DB) error {
	if err := seedTasks(db); err != nil {
		return err
	}
	if err := seedTargets(db); err != nil {
		return err
	}
	return seedStoreItems(db)
}

func seedTasks(db *gorm.DB) error {
	defaults := []models.TaskDefinition{
		{Name: "create an account", Type: models.TaskTypeOneTime, Category: "accounts", Target: 1, PointReward: 10, ExperienceReward: 20},
		{Name: "daily check-in", Type: models.TaskTypeDaily, Category: "engagement", Target: 1, PointReward: 5, ExperienceReward: 10},
		{Name: "weekly account review", Type: models.TaskTypeWeekly, Category: "accounts", Target: 3, PointReward: 15, ExperienceReward: 30},
		{Name: "validate a proxy", Type: models.TaskTypeRecurring, Category: "proxies", Target: 1, PointReward: 2, ExperienceReward: 5},
		{Name: "link a wallet", Type: models.TaskTypeOneTime, Category: "wallets", Target: 1, PointReward: 10, ExperienceReward: 25},
	}

	for _, def := range defaults {
		def.Slug = slug.Make(def.Name)
		def.Name = titleCaser.String(def.Name)
		def.Active = true

		var count int64
		if err := db.Model(&models.TaskDefinition{}).Where("slug = ?", def.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&def).Error; err != nil {
				return err
			}
			log.Printf("[SEED] task definition created: %s", def.Slug)
		}
	}
	return nil
}

func seedTargets(db *gorm.DB) error {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	defaults := []models.TargetDefinition{
		{
			Name:             "Create 10 accounts this month",
			MetricType:       models.MetricAccountsCreated,
			TargetValue:      10,
			PeriodType:       models.PeriodMonthly,
			StartDate:        monthStart,
			EndDate:          monthEnd,
			PointReward:      50,
			ExperienceReward: 100,
		},
		{
			Name:             "Add 5 proxies this month",
			MetricType:       models.MetricProxiesAdded,
			TargetValue:      5,
			PeriodType:       models.PeriodMonthly,
			StartDate:        monthStart,
			EndDate:          monthEnd,
			PointReward:      25,
			ExperienceReward: 50,
		},
	}

	for _, def := range defaults {
		def.Active = true
		var count int64
		if err := db.Model(&models.TargetDefinition{}).
			Where("name = ? AND start_date = ?", def.Name, def.StartDate).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&def).Error; err != nil {
				return err
			}
			log.Printf("[SEED] target definition created: %s", def.Name)
		}
	}
	return nil
}

func seedStoreItems(db *gorm.DB) error {
	defaults := []models.StoreItem{
		{Name: "golden frame", Description: "A gilded border for your profile card", PointCost: 50, RequiredLevel: 3},
		{Name: "néon badge", Description: "A glowing accent for your avatar", PointCost: 25, RequiredLevel: 2},
		{Name: "midnight theme", Description: "A dark cosmetic theme", PointCost: 15, RequiredLevel: 1},
		{Name: "platinum crown", Description: "For profiles that have seen things", PointCost: 200, RequiredLevel: 10},
	}

	for _, item := range defaults {
		// Display names go through unidecode so accented catalog entries
		// render consistently everywhere.
		item.Slug = slug.Make(item.Name)
		item.Name = titleCaser.String(unidecode.Unidecode(item.Name))
		item.Active = true

		var count int64
		if err := db.Model(&models.StoreItem{}).Where("slug = ?", item.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&item).Error; err != nil {
				return err
			}
			log.Printf("[SEED] store item created: %s", item.Slug)
		}
	}
	return nil
}
