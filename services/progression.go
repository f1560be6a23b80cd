package services

import (
	"fmt"
	"log"
	"time"

	"progression-engine/models"

	"gorm.io/gorm"
)

// Feed limits: one feed spends between 1 and 100 points.
const (
	MinFeedPoints = 1
	MaxFeedPoints = 100

	// Every point fed converts into this much experience.
	FeedExperiencePerPoint = 2
)

// ItemCatalog supplies purchase gating data. The default implementation is
// backed by the StoreItem table; callers may substitute their own.
type ItemCatalog interface {
	ItemByID(id string) (*models.StoreItem, error)
}

// StoreItemCatalog is the gorm-backed ItemCatalog.
type StoreItemCatalog struct {
	DB *gorm.DB
}

func NewStoreItemCatalog(db *gorm.DB) *StoreItemCatalog {
	return &StoreItemCatalog{DB: db}
}

func (c *StoreItemCatalog) ItemByID(id string) (*models.StoreItem, error) {
	var item models.StoreItem
	if err := c.DB.Where("id = ? AND active = ?", id, true).First(&item).Error; err != nil {
		return nil, translateDBError(err)
	}
	return &item, nil
}

// FeedResult reports a feed operation.
type FeedResult struct {
	PointsSpent       int  `json:"points_spent"`
	ExperienceGained  int  `json:"experience_gained"`
	PointsRemaining   int  `json:"points_remaining"`
	LeveledUp         bool `json:"leveled_up"`
	NewLevel          int  `json:"new_level"`
}

// PurchaseResult reports an item purchase.
type PurchaseResult struct {
	ItemID          string `json:"item_id"`
	ItemSlug        string `json:"item_slug"`
	PointsSpent     int    `json:"points_spent"`
	PointsRemaining int    `json:"points_remaining"`
}

// ProfileSnapshot is the full read-only view of a user's progression state.
type ProfileSnapshot struct {
	Profile      *models.Profile                        `json:"profile"`
	Tasks        []models.TaskProgress                  `json:"tasks"`
	Targets      []models.TargetProgress                `json:"targets"`
	Inventory    []models.OwnedItem                     `json:"inventory"`
	Achievements map[models.AchievementKey]time.Time    `json:"achievements"`
	Rewards      []models.RewardRecord                  `json:"recent_rewards"`
}

// ProfileService owns the profile-level operations: lazy creation, feeding,
// the item store and the read-only snapshot.
type ProfileService struct {
	DB           *gorm.DB
	Catalog      ItemCatalog
	Leveling     *LevelingEngine
	Achievements *AchievementService
	Ledger       *RewardLedger

	now func() time.Time
}

func NewProfileService(db *gorm.DB, catalog ItemCatalog, leveling *LevelingEngine, achievements *AchievementService, ledger *RewardLedger) *ProfileService {
	return &ProfileService{
		DB:           db,
		Catalog:      catalog,
		Leveling:     leveling,
		Achievements: achievements,
		Ledger:       ledger,
		now:          time.Now,
	}
}

// EnsureProfile creates the user's profile on first touch (idempotent).
func (s *ProfileService) EnsureProfile(userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	var prof *models.Profile
	err := runWriteTx(s.DB, func(tx *gorm.DB) error {
		var err error
		prof, err = ensureProfileTx(tx, userID, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return prof, nil
}

// FeedProfile spends points to feed the profile, converting them into
// experience. The amount must be within [MinFeedPoints, MaxFeedPoints] and
// covered by the spendable balance.
func (s *ProfileService) FeedProfile(userID string, points int) (*FeedResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if points < MinFeedPoints || points > MaxFeedPoints {
		return nil, fmt.Errorf("%w: feed amount must be between %d and %d", ErrInvalidInput, MinFeedPoints, MaxFeedPoints)
	}

	var result *FeedResult
	err := runWriteTx(s.DB, func(tx *gorm.DB) error {
		now := s.now().UTC()

		prof, err := ensureProfileTx(tx, userID, now)
		if err != nil {
			return err
		}
		if prof.Points < points {
			return fmt.Errorf("%w: need %d points, have %d", ErrInsufficientBalance, points, prof.Points)
		}

		experience := points * FeedExperiencePerPoint

		prof.Points -= points
		s.Leveling.AddExperience(prof, experience)
		levelsGained := s.Leveling.ApplyLevelUps(prof, now)
		prof.LastFedAt = &now
		prof.LastInteractionAt = &now

		if err := tx.Save(prof).Error; err != nil {
			return err
		}

		if _, err := s.Ledger.Record(tx, userID, 0, experience, "profile_fed", models.RewardSourceFeed, "", now); err != nil {
			return err
		}

		if _, err := s.Achievements.Evaluate(tx, prof, now); err != nil {
			return err
		}

		log.Printf("[PROFILE] user=%s fed %d points (+%dxp, levels+%d)", userID, points, experience, levelsGained)

		result = &FeedResult{
			PointsSpent:      points,
			ExperienceGained: experience,
			PointsRemaining:  prof.Points,
			LeveledUp:        levelsGained > 0,
			NewLevel:         prof.Level,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PurchaseItem deducts the item's point cost and records ownership. Gated by
// level and balance; buying the same item twice is rejected. Purchases are
// deductions, not grants, so no ledger row is written.
func (s *ProfileService) PurchaseItem(userID, itemID string) (*PurchaseResult, error) {
	if userID == "" || itemID == "" {
		return nil, fmt.Errorf("%w: user and item ids are required", ErrInvalidInput)
	}

	var result *PurchaseResult
	err := runWriteTx(s.DB, func(tx *gorm.DB) error {
		now := s.now().UTC()

		item, err := s.Catalog.ItemByID(itemID)
		if err != nil {
			return fmt.Errorf("item %s: %w", itemID, err)
		}

		prof, err := ensureProfileTx(tx, userID, now)
		if err != nil {
			return err
		}

		if prof.Level < item.RequiredLevel {
			return fmt.Errorf("%w: item %s requires level %d", ErrLevelTooLow, item.Slug, item.RequiredLevel)
		}
		if prof.Points < item.PointCost {
			return fmt.Errorf("%w: item %s costs %d points, have %d", ErrInsufficientBalance, item.Slug, item.PointCost, prof.Points)
		}

		var owned int64
		if err := tx.Model(&models.OwnedItem{}).
			Where("external_user_id = ? AND item_id = ?", userID, item.ID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			return fmt.Errorf("%w: item %s already owned", ErrInvalidInput, item.Slug)
		}

		prof.Points -= item.PointCost
		prof.LastInteractionAt = &now
		if err := tx.Save(prof).Error; err != nil {
			return err
		}

		ownedItem := models.OwnedItem{
			ExternalUserID: userID,
			ItemID:         item.ID,
			PurchasedAt:    now,
		}
		if err := tx.Create(&ownedItem).Error; err != nil {
			return err
		}

		log.Printf("[STORE] user=%s purchased item=%s for %d points", userID, item.Slug, item.PointCost)

		result = &PurchaseResult{
			ItemID:          item.ID,
			ItemSlug:        item.Slug,
			PointsSpent:     item.PointCost,
			PointsRemaining: prof.Points,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EquipItem marks one owned item as equipped and unequips the rest.
func (s *ProfileService) EquipItem(userID, itemID string) error {
	if userID == "" || itemID == "" {
		return fmt.Errorf("%w: user and item ids are required", ErrInvalidInput)
	}
	return runWriteTx(s.DB, func(tx *gorm.DB) error {
		var owned models.OwnedItem
		if err := tx.Where("external_user_id = ? AND item_id = ?", userID, itemID).First(&owned).Error; err != nil {
			return fmt.Errorf("owned item %s: %w", itemID, translateDBError(err))
		}
		if err := tx.Model(&models.OwnedItem{}).
			Where("external_user_id = ? AND equipped = ?", userID, true).
			Update("equipped", false).Error; err != nil {
			return err
		}
		return tx.Model(&owned).Update("equipped", true).Error
	})
}

// GetProfileSnapshot returns the full read-only view: profile, task and
// target progress, inventory, achievements and recent rewards. Served
// without locks; an eventually-consistent snapshot is fine here.
func (s *ProfileService) GetProfileSnapshot(userID string) (*ProfileSnapshot, error) {
	prof, err := s.EnsureProfile(userID)
	if err != nil {
		return nil, err
	}

	var tasks []models.TaskProgress
	if err := s.DB.Where("external_user_id = ?", userID).Find(&tasks).Error; err != nil {
		return nil, err
	}
	var targets []models.TargetProgress
	if err := s.DB.Where("external_user_id = ?", userID).Find(&targets).Error; err != nil {
		return nil, err
	}
	var inventory []models.OwnedItem
	if err := s.DB.Where("external_user_id = ?", userID).Find(&inventory).Error; err != nil {
		return nil, err
	}
	achievements, err := s.Achievements.Unlocked(userID)
	if err != nil {
		return nil, err
	}
	rewards, err := s.Ledger.Recent(userID, 10)
	if err != nil {
		return nil, err
	}

	return &ProfileSnapshot{
		Profile:      prof,
		Tasks:        tasks,
		Targets:      targets,
		Inventory:    inventory,
		Achievements: achievements,
		Rewards:      rewards,
	}, nil
}
