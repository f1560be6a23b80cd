package services

import (
	"fmt"
	"log"
	"time"

	"progression-engine/models"

	"gorm.io/gorm"
)

// EventCounter measures real-world activity for target grading. The engine
// never knows how events are stored; this is its only window on them.
type EventCounter interface {
	CountEvents(userID string, metric models.MetricType, from, to time.Time) (int64, error)
}

// ActivityEventCounter is the default EventCounter: it counts the locally
// mirrored ActivityEvent rows kept fresh by the event sync worker.
type ActivityEventCounter struct {
	DB *gorm.DB
}

func NewActivityEventCounter(db *gorm.DB) *ActivityEventCounter {
	return &ActivityEventCounter{DB: db}
}

func (c *ActivityEventCounter) CountEvents(userID string, metric models.MetricType, from, to time.Time) (int64, error) {
	var count int64
	err := c.DB.Model(&models.ActivityEvent{}).
		Where("external_user_id = ? AND metric_type = ? AND occurred_at >= ? AND occurred_at <= ?",
			userID, metric, from, to).
		Count(&count).Error
	return count, err
}

// CompletedTarget reports one target newly achieved by a CheckTargets call.
type CompletedTarget struct {
	TargetID          string `json:"target_id"`
	Name              string `json:"name"`
	CurrentValue      int64  `json:"current_value"`
	TargetValue       int    `json:"target_value"`
	PointsAwarded     int    `json:"points_awarded"`
	ExperienceAwarded int    `json:"experience_awarded"`
	LeveledUp         bool   `json:"leveled_up"`
	NewLevel          int    `json:"new_level"`
}

// TargetCheckResult reports a full grading pass over one metric.
type TargetCheckResult struct {
	MetricType models.MetricType `json:"metric_type"`
	Evaluated  int               `json:"evaluated"`
	Completed  []CompletedTarget `json:"completed"`
}

// TargetService grades time-windowed metric goals. Each user×target pair is
// graded independently; a single call may complete zero, one, or several
// targets, each rewarded exactly once.
type TargetService struct {
	DB           *gorm.DB
	Counter      EventCounter
	Leveling     *LevelingEngine
	Achievements *AchievementService
	Ledger       *RewardLedger

	now func() time.Time
}

func NewTargetService(db *gorm.DB, counter EventCounter, leveling *LevelingEngine, achievements *AchievementService, ledger *RewardLedger) *TargetService {
	return &TargetService{
		DB:           db,
		Counter:      counter,
		Leveling:     leveling,
		Achievements: achievements,
		Ledger:       ledger,
		now:          time.Now,
	}
}

// CheckTargets re-grades every active target for the metric whose window has
// started. Achieved pairs are frozen and skipped; the rest get their
// CurrentValue recounted over the effective window and are completed when the
// count reaches the target value.
func (s *TargetService) CheckTargets(userID string, metric models.MetricType) (*TargetCheckResult, error) {
	if userID == "" || metric == "" {
		return nil, fmt.Errorf("%w: user id and metric type are required", ErrInvalidInput)
	}

	var result *TargetCheckResult
	err := runWriteTx(s.DB, func(tx *gorm.DB) error {
		now := s.now().UTC()
		result = &TargetCheckResult{MetricType: metric}

		var defs []models.TargetDefinition
		if err := tx.Where("active = ? AND metric_type = ? AND start_date <= ?", true, metric, now).
			Order("start_date ASC").
			Find(&defs).Error; err != nil {
			return err
		}
		if len(defs) == 0 {
			return nil
		}

		prof, err := ensureProfileTx(tx, userID, now)
		if err != nil {
			return err
		}

		profileDirty := false
		for i := range defs {
			def := &defs[i]
			completed, err := s.gradeTarget(tx, prof, def, now)
			if err != nil {
				return err
			}
			result.Evaluated++
			if completed != nil {
				result.Completed = append(result.Completed, *completed)
				profileDirty = true
			}
		}

		if profileDirty {
			prof.LastInteractionAt = &now
			if err := tx.Save(prof).Error; err != nil {
				return err
			}
			if _, err := s.Achievements.Evaluate(tx, prof, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// gradeTarget recounts one user×target pair and completes it when the value
// reaches the goal. Returns nil when nothing newly completed.
func (s *TargetService) gradeTarget(tx *gorm.DB, prof *models.Profile, def *models.TargetDefinition, now time.Time) (*CompletedTarget, error) {
	var prog models.TargetProgress
	err := tx.Where("external_user_id = ? AND target_id = ?", prof.ExternalUserID, def.ID).First(&prog).Error
	if err == gorm.ErrRecordNotFound {
		prog = models.TargetProgress{
			ExternalUserID: prof.ExternalUserID,
			TargetID:       def.ID,
		}
		if err := tx.Create(&prog).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	// Frozen once achieved: never recount, never re-reward.
	if prog.Achieved {
		return nil, nil
	}

	// A window straddling "now" is counted up to now; a window entirely in
	// the past is counted verbatim.
	from, to := def.StartDate, def.EndDate
	if to.After(now) {
		to = now
	}

	count, err := s.Counter.CountEvents(prof.ExternalUserID, def.MetricType, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s events for user %s: %w", def.MetricType, prof.ExternalUserID, err)
	}

	prog.CurrentValue = count
	if count < int64(def.TargetValue) {
		return nil, tx.Save(&prog).Error
	}

	achievedAt := now
	prog.Achieved = true
	prog.AchievedAt = &achievedAt
	if err := tx.Save(&prog).Error; err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("target_%s_achieved", def.MetricType)
	if _, err := s.Ledger.Record(tx, prof.ExternalUserID, def.PointReward, def.ExperienceReward, reason, models.RewardSourceTarget, def.ID, now); err != nil {
		return nil, err
	}

	s.Leveling.AddPoints(prof, def.PointReward)
	s.Leveling.AddExperience(prof, def.ExperienceReward)
	levelsGained := s.Leveling.ApplyLevelUps(prof, now)
	prof.TargetsAchieved++

	log.Printf("[TARGETS] user=%s achieved target=%s (%d/%d, +%dp, +%dxp)",
		prof.ExternalUserID, def.Name, count, def.TargetValue, def.PointReward, def.ExperienceReward)

	return &CompletedTarget{
		TargetID:          def.ID,
		Name:              def.Name,
		CurrentValue:      count,
		TargetValue:       def.TargetValue,
		PointsAwarded:     def.PointReward,
		ExperienceAwarded: def.ExperienceReward,
		LeveledUp:         levelsGained > 0,
		NewLevel:          prof.Level,
	}, nil
}

// TargetProgressFor returns the user's grading rows, for snapshots.
func (s *TargetService) TargetProgressFor(userID string) ([]models.TargetProgress, error) {
	var rows []models.TargetProgress
	err := s.DB.Where("external_user_id = ?", userID).Find(&rows).Error
	return rows, err
}
