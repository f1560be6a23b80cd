package services

import (
	"time"

	"progression-engine/models"
)

// LevelCurve returns the experience needed to advance from the given level to
// the next one. It must be strictly increasing in level so that the level-up
// loop terminates.
type LevelCurve func(level int) int

// BaseExperiencePerLevel drives the default linear curve: advancing from
// level n costs 50*n experience. The curve is a configuration point; any
// strictly increasing function may be supplied instead.
const BaseExperiencePerLevel = 50

// DefaultLevelCurve is the linear reference curve.
func DefaultLevelCurve(level int) int {
	if level < 1 {
		level = 1
	}
	return BaseExperiencePerLevel * level
}

// LevelingEngine converts experience into levels and maintains point
// balances. Its mutations are pure: no persistence, no side effects beyond
// the profile counters.
type LevelingEngine struct {
	Curve LevelCurve
}

func NewLevelingEngine(curve LevelCurve) *LevelingEngine {
	if curve == nil {
		curve = DefaultLevelCurve
	}
	return &LevelingEngine{Curve: curve}
}

// RequiredExperience returns the cost of the next level-up from level.
func (e *LevelingEngine) RequiredExperience(level int) int {
	return e.Curve(level)
}

// AddExperience credits experience to the profile.
func (e *LevelingEngine) AddExperience(prof *models.Profile, amount int) {
	if amount <= 0 {
		return
	}
	prof.Experience += amount
}

// AddPoints credits spendable points and bumps the monotonic lifetime total.
func (e *LevelingEngine) AddPoints(prof *models.Profile, amount int) {
	if amount <= 0 {
		return
	}
	prof.Points += amount
	prof.TotalPointsEarned += amount
}

// CanLevelUp reports whether the profile holds enough experience for the next
// level.
func (e *LevelingEngine) CanLevelUp(prof *models.Profile) bool {
	return prof.Experience >= e.Curve(prof.Level)
}

// ProcessLevelUp consumes one level's worth of experience and increments the
// level. Callers apply it in a loop while CanLevelUp holds so a single large
// grant can cause multiple level-ups in one transaction.
func (e *LevelingEngine) ProcessLevelUp(prof *models.Profile) {
	prof.Experience -= e.Curve(prof.Level)
	prof.Level++
}

// ApplyLevelUps runs the level-up loop and returns the number of levels
// gained.
func (e *LevelingEngine) ApplyLevelUps(prof *models.Profile, now time.Time) int {
	gained := 0
	for e.CanLevelUp(prof) {
		e.ProcessLevelUp(prof)
		gained++
	}
	if gained > 0 {
		t := now
		prof.LastLevelUpAt = &t
	}
	return gained
}
