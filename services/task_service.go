package services

import (
	"fmt"
	"log"
	"time"

	"progression-engine/models"

	"gorm.io/gorm"
)

// TaskCompletionStatus describes the outcome of a completion step.
type TaskCompletionStatus string

const (
	TaskStatusInProgress TaskCompletionStatus = "in_progress"
	TaskStatusCompleted  TaskCompletionStatus = "completed"
)

// TaskCompletionResult reports what one CompleteTask call did.
type TaskCompletionResult struct {
	Status            TaskCompletionStatus    `json:"status"`
	TaskID            string                  `json:"task_id"`
	Progress          int                     `json:"progress"`
	Target            int                     `json:"target"`
	PointsAwarded     int                     `json:"points_awarded"`
	ExperienceAwarded int                     `json:"experience_awarded"`
	LeveledUp         bool                    `json:"leveled_up"`
	NewLevel          int                     `json:"new_level"`
	NewAchievements   []models.AchievementKey `json:"new_achievements,omitempty"`
}

// TaskService drives the per-task completion state machine:
// NotStarted → InProgress → Completed, with resettable types cycling back to
// a fresh row at the next qualifying period boundary. Boundaries are detected
// lazily by comparing the stored completion time to "now" at call time; there
// is no background reset job.
type TaskService struct {
	DB           *gorm.DB
	Leveling     *LevelingEngine
	Achievements *AchievementService
	Ledger       *RewardLedger

	now func() time.Time
}

func NewTaskService(db *gorm.DB, leveling *LevelingEngine, achievements *AchievementService, ledger *RewardLedger) *TaskService {
	return &TaskService{
		DB:           db,
		Leveling:     leveling,
		Achievements: achievements,
		Ledger:       ledger,
		now:          time.Now,
	}
}

// CompleteTask advances the user's progress on a task by steps (callers
// normally pass 1). On reaching the target it grants the task's reward,
// applies level-ups, re-evaluates achievements and appends to the ledger,
// all in one transaction against the user's profile.
func (s *TaskService) CompleteTask(userID, taskID string, steps int) (*TaskCompletionResult, error) {
	if userID == "" || taskID == "" {
		return nil, fmt.Errorf("%w: user and task ids are required", ErrInvalidInput)
	}
	if steps < 1 {
		return nil, fmt.Errorf("%w: steps must be at least 1", ErrInvalidInput)
	}

	var result *TaskCompletionResult
	err := runWriteTx(s.DB, func(tx *gorm.DB) error {
		result = nil
		now := s.now().UTC()

		var task models.TaskDefinition
		if err := tx.Where("id = ? AND active = ?", taskID, true).First(&task).Error; err != nil {
			return fmt.Errorf("task %s: %w", taskID, translateDBError(err))
		}

		prof, err := ensureProfileTx(tx, userID, now)
		if err != nil {
			return err
		}

		prog, err := s.resolveCycle(tx, userID, &task, now)
		if err != nil {
			return err
		}

		// Non-resettable and already done: nothing to mutate.
		if prog.CompletedAt != nil {
			log.Printf("[TASKS] user=%s task=%s already completed (type=%s)", userID, task.Slug, task.Type)
			return fmt.Errorf("task %s: %w", task.Slug, ErrAlreadyCompleted)
		}

		prog.Progress += steps
		if prog.Progress > prog.Target {
			prog.Progress = prog.Target
		}

		if prog.Progress < prog.Target {
			if err := tx.Save(prog).Error; err != nil {
				return err
			}
			result = &TaskCompletionResult{
				Status:   TaskStatusInProgress,
				TaskID:   task.ID,
				Progress: prog.Progress,
				Target:   prog.Target,
				NewLevel: prof.Level,
			}
			return nil
		}

		// Qualifying transition: cycle complete.
		completedAt := now
		prog.CompletedAt = &completedAt
		if err := tx.Save(prog).Error; err != nil {
			return err
		}

		reason := fmt.Sprintf("task_%s_completed", task.Slug)
		if _, err := s.Ledger.Record(tx, userID, task.PointReward, task.ExperienceReward, reason, models.RewardSourceTask, task.ID, now); err != nil {
			return err
		}

		s.Leveling.AddPoints(prof, task.PointReward)
		s.Leveling.AddExperience(prof, task.ExperienceReward)
		levelsGained := s.Leveling.ApplyLevelUps(prof, now)

		prof.TasksCompleted++
		if prof.CategoryCounts == nil {
			prof.CategoryCounts = map[string]int{}
		}
		prof.CategoryCounts[task.Category]++
		prof.LastInteractionAt = &now

		if err := tx.Save(prof).Error; err != nil {
			return err
		}

		newAchievements, err := s.Achievements.Evaluate(tx, prof, now)
		if err != nil {
			return err
		}

		log.Printf("[TASKS] user=%s completed task=%s (+%dp, +%dxp, levels+%d)",
			userID, task.Slug, task.PointReward, task.ExperienceReward, levelsGained)

		result = &TaskCompletionResult{
			Status:            TaskStatusCompleted,
			TaskID:            task.ID,
			Progress:          prog.Progress,
			Target:            prog.Target,
			PointsAwarded:     task.PointReward,
			ExperienceAwarded: task.ExperienceReward,
			LeveledUp:         levelsGained > 0,
			NewLevel:          prof.Level,
			NewAchievements:   newAchievements,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveCycle loads the user's progress row for the task, discarding it and
// starting a fresh cycle when the period boundary for the task's type has
// been crossed. one_time (or any unknown type) never resets.
func (s *TaskService) resolveCycle(tx *gorm.DB, userID string, task *models.TaskDefinition, now time.Time) (*models.TaskProgress, error) {
	var prog models.TaskProgress
	err := tx.Where("external_user_id = ? AND task_id = ?", userID, task.ID).First(&prog).Error
	if err == gorm.ErrRecordNotFound {
		prog = models.TaskProgress{
			ExternalUserID: userID,
			TaskID:         task.ID,
			Progress:       0,
			Target:         task.Target,
		}
		if err := tx.Create(&prog).Error; err != nil {
			return nil, err
		}
		return &prog, nil
	}
	if err != nil {
		return nil, err
	}

	if prog.CompletedAt == nil {
		return &prog, nil
	}

	reset := false
	switch task.Type {
	case models.TaskTypeDaily:
		reset = !sameCalendarDay(*prog.CompletedAt, now)
	case models.TaskTypeWeekly:
		reset = !sameISOWeek(*prog.CompletedAt, now)
	case models.TaskTypeRecurring:
		// No cooldown: any completed cycle starts over immediately.
		reset = true
	}

	if reset {
		prog.Progress = 0
		prog.Target = task.Target
		prog.CompletedAt = nil
		if err := tx.Save(&prog).Error; err != nil {
			return nil, err
		}
	}
	return &prog, nil
}

func sameCalendarDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func sameISOWeek(a, b time.Time) bool {
	ay, aw := a.UTC().ISOWeek()
	by, bw := b.UTC().ISOWeek()
	return ay == by && aw == bw
}

// TaskProgressFor returns the user's current progress rows, for snapshots.
func (s *TaskService) TaskProgressFor(userID string) ([]models.TaskProgress, error) {
	var rows []models.TaskProgress
	err := s.DB.Where("external_user_id = ?", userID).Find(&rows).Error
	return rows, err
}
