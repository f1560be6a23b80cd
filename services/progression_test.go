package services

import (
	"testing"

	"progression-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureProfileSeedsOnceWithWelcomeGrant(t *testing.T) {
	e := newTestEngine(t)

	prof, err := e.profiles.EnsureProfile(testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, prof.Level)
	assert.Zero(t, prof.Experience)
	assert.Equal(t, startingPoints, prof.Points)
	assert.Equal(t, startingPoints, prof.TotalPointsEarned)

	// Second touch returns the same profile; the welcome grant is not repeated.
	again, err := e.profiles.EnsureProfile(testUser)
	require.NoError(t, err)
	assert.Equal(t, prof.ID, again.ID)

	var records []models.RewardRecord
	require.NoError(t, e.db.Where("external_user_id = ? AND source_type = ?", testUser, models.RewardSourceWelcome).Find(&records).Error)
	assert.Len(t, records, 1)
}

func TestFeedProfileConvertsPointsToExperience(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.profiles.FeedProfile(testUser, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, result.PointsSpent)
	assert.Equal(t, 10, result.ExperienceGained)
	assert.Equal(t, startingPoints-5, result.PointsRemaining)
	assert.False(t, result.LeveledUp)

	var prof models.Profile
	require.NoError(t, e.db.Where("external_user_id = ?", testUser).First(&prof).Error)
	assert.Equal(t, 10, prof.Experience)
	assert.NotNil(t, prof.LastFedAt)
	// Feeding spends, it does not earn.
	assert.Equal(t, startingPoints, prof.TotalPointsEarned)
}

func TestFeedProfileValidation(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.profiles.FeedProfile(testUser, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.profiles.FeedProfile(testUser, 101)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Balance is 10: feeding 50 is a valid amount but not covered.
	_, err = e.profiles.FeedProfile(testUser, 50)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// A failed feed must not mutate anything.
	var prof models.Profile
	require.NoError(t, e.db.Where("external_user_id = ?", testUser).First(&prof).Error)
	assert.Equal(t, startingPoints, prof.Points)
	assert.Zero(t, prof.Experience)
	assert.Nil(t, prof.LastFedAt)
}

func TestPurchaseItemGates(t *testing.T) {
	e := newTestEngine(t)
	cheap := e.createItem(t, "midnight-theme", 5, 1)
	gated := e.createItem(t, "platinum-crown", 5, 10)
	pricey := e.createItem(t, "golden-frame", 500, 1)

	_, err := e.profiles.PurchaseItem(testUser, "missing-item")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.profiles.PurchaseItem(testUser, gated.ID)
	assert.ErrorIs(t, err, ErrLevelTooLow)

	_, err = e.profiles.PurchaseItem(testUser, pricey.ID)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	result, err := e.profiles.PurchaseItem(testUser, cheap.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, result.PointsSpent)
	assert.Equal(t, startingPoints-5, result.PointsRemaining)

	// Duplicate purchase rejected.
	_, err = e.profiles.PurchaseItem(testUser, cheap.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// The deduction does not touch the lifetime total and writes no ledger row.
	var prof models.Profile
	require.NoError(t, e.db.Where("external_user_id = ?", testUser).First(&prof).Error)
	assert.Equal(t, startingPoints, prof.TotalPointsEarned)

	var ledgerCount int64
	require.NoError(t, e.db.Model(&models.RewardRecord{}).
		Where("external_user_id = ? AND source_type NOT IN ?", testUser,
			[]models.RewardSourceType{models.RewardSourceWelcome}).
		Count(&ledgerCount).Error)
	assert.Zero(t, ledgerCount)
}

func TestEquipItem(t *testing.T) {
	e := newTestEngine(t)
	a := e.createItem(t, "item-a", 1, 1)
	b := e.createItem(t, "item-b", 1, 1)

	_, err := e.profiles.PurchaseItem(testUser, a.ID)
	require.NoError(t, err)
	_, err = e.profiles.PurchaseItem(testUser, b.ID)
	require.NoError(t, err)

	require.NoError(t, e.profiles.EquipItem(testUser, a.ID))
	require.NoError(t, e.profiles.EquipItem(testUser, b.ID))

	var equipped []models.OwnedItem
	require.NoError(t, e.db.Where("external_user_id = ? AND equipped = ?", testUser, true).Find(&equipped).Error)
	require.Len(t, equipped, 1)
	assert.Equal(t, b.ID, equipped[0].ItemID)

	// Equipping an item that was never bought fails.
	err = e.profiles.EquipItem(testUser, "never-bought")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetProfileSnapshot(t *testing.T) {
	e := newTestEngine(t)
	task := e.createTask(t, "snap-task", models.TaskTypeOneTime, "accounts", 1, 5, 10)
	item := e.createItem(t, "snap-item", 5, 1)

	_, err := e.tasks.CompleteTask(testUser, task.ID, 1)
	require.NoError(t, err)
	_, err = e.profiles.PurchaseItem(testUser, item.ID)
	require.NoError(t, err)

	snap, err := e.profiles.GetProfileSnapshot(testUser)
	require.NoError(t, err)

	assert.Equal(t, testUser, snap.Profile.ExternalUserID)
	assert.Len(t, snap.Tasks, 1)
	assert.Len(t, snap.Inventory, 1)
	assert.Contains(t, snap.Achievements, models.AchievementFirstTask)

	// Welcome grant + task reward.
	require.Len(t, snap.Rewards, 2)
	sources := []models.RewardSourceType{snap.Rewards[0].SourceType, snap.Rewards[1].SourceType}
	assert.Contains(t, sources, models.RewardSourceTask)
	assert.Contains(t, sources, models.RewardSourceWelcome)
}
