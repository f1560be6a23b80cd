package services

import (
	"testing"
	"time"

	"progression-engine/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.ProfileAchievement{},
		&models.TaskDefinition{},
		&models.TaskProgress{},
		&models.TargetDefinition{},
		&models.TargetProgress{},
		&models.RewardRecord{},
		&models.StoreItem{},
		&models.OwnedItem{},
		&models.ActivityEvent{},
		&models.LeaderboardSnapshot{},
	))
	return db
}

// testEngine bundles the services under test with a controllable clock.
type testEngine struct {
	db       *gorm.DB
	clock    time.Time
	profiles *ProfileService
	tasks    *TaskService
	targets  *TargetService
	board    *LeaderboardService
	ledger   *RewardLedger
	counter  *fakeCounter
}

type fakeCounter struct {
	count int64
	err   error
}

func (f *fakeCounter) CountEvents(userID string, metric models.MetricType, from, to time.Time) (int64, error) {
	return f.count, f.err
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	db := newTestDB(t)

	leveling := NewLevelingEngine(DefaultLevelCurve)
	achievements := NewAchievementService(db)
	ledger := NewRewardLedger(db)
	catalog := NewStoreItemCatalog(db)
	counter := &fakeCounter{}

	e := &testEngine{
		db:       db,
		clock:    time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC),
		profiles: NewProfileService(db, catalog, leveling, achievements, ledger),
		tasks:    NewTaskService(db, leveling, achievements, ledger),
		targets:  NewTargetService(db, counter, leveling, achievements, ledger),
		board:    NewLeaderboardService(db),
		ledger:   ledger,
		counter:  counter,
	}
	now := func() time.Time { return e.clock }
	e.profiles.now = now
	e.tasks.now = now
	e.targets.now = now
	return e
}

func (e *testEngine) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEngine) createTask(t *testing.T, slug string, typ models.TaskType, category string, target, points, xp int) *models.TaskDefinition {
	t.Helper()
	def := &models.TaskDefinition{
		Slug:             slug,
		Name:             slug,
		Type:             typ,
		Category:         category,
		Target:           target,
		PointReward:      points,
		ExperienceReward: xp,
		Active:           true,
	}
	require.NoError(t, e.db.Create(def).Error)
	return def
}

func (e *testEngine) createTarget(t *testing.T, name string, metric models.MetricType, value int, start, end time.Time, points, xp int) *models.TargetDefinition {
	t.Helper()
	def := &models.TargetDefinition{
		Name:             name,
		MetricType:       metric,
		TargetValue:      value,
		PeriodType:       models.PeriodCustom,
		StartDate:        start,
		EndDate:          end,
		PointReward:      points,
		ExperienceReward: xp,
		Active:           true,
	}
	require.NoError(t, e.db.Create(def).Error)
	return def
}

func (e *testEngine) createItem(t *testing.T, slug string, cost, level int) *models.StoreItem {
	t.Helper()
	item := &models.StoreItem{
		Slug:          slug,
		Name:          slug,
		PointCost:     cost,
		RequiredLevel: level,
		Active:        true,
	}
	require.NoError(t, e.db.Create(item).Error)
	return item
}
