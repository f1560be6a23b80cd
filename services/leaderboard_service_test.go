package services

import (
	"testing"

	"progression-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEngine) createProfile(t *testing.T, userID string, level, experience, totalPoints int) {
	t.Helper()
	prof := &models.Profile{
		ExternalUserID:    userID,
		Level:             level,
		Experience:        experience,
		Points:            totalPoints,
		TotalPointsEarned: totalPoints,
	}
	require.NoError(t, e.db.Create(prof).Error)
}

func rankedUsers(entries []models.LeaderboardEntry) []string {
	users := make([]string, len(entries))
	for i, e := range entries {
		users[i] = e.ExternalUserID
	}
	return users
}

func TestRankByLevelBreaksTiesOnExperience(t *testing.T) {
	e := newTestEngine(t)
	e.createProfile(t, "alice", 3, 20, 100)
	e.createProfile(t, "bob", 3, 45, 50)
	e.createProfile(t, "carol", 5, 0, 10)

	entries, err := e.board.Rank(models.LeaderboardByLevel, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob", "alice"}, rankedUsers(entries))
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestRankIsDeterministicOnFullTies(t *testing.T) {
	e := newTestEngine(t)
	// Identical scores everywhere: the user id decides the order.
	e.createProfile(t, "zoe", 2, 10, 30)
	e.createProfile(t, "amy", 2, 10, 30)
	e.createProfile(t, "mia", 2, 10, 30)

	first, err := e.board.Rank(models.LeaderboardByLevel, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "mia", "zoe"}, rankedUsers(first))

	// An unchanged store must rank identically on every call.
	second, err := e.board.Rank(models.LeaderboardByLevel, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRankByPointsUsesLifetimeTotal(t *testing.T) {
	e := newTestEngine(t)
	e.createProfile(t, "alice", 1, 0, 200)
	e.createProfile(t, "bob", 9, 0, 50)

	// Spending points must not change the points ranking.
	require.NoError(t, e.db.Model(&models.Profile{}).
		Where("external_user_id = ?", "alice").
		Update("points", 0).Error)

	entries, err := e.board.Rank(models.LeaderboardByPoints, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, rankedUsers(entries))
}

func TestRankByAchievements(t *testing.T) {
	e := newTestEngine(t)
	e.createProfile(t, "alice", 1, 0, 0)
	e.createProfile(t, "bob", 1, 0, 0)

	for _, key := range []models.AchievementKey{models.AchievementFirstTask, models.AchievementLevel5} {
		require.NoError(t, e.db.Create(&models.ProfileAchievement{
			ExternalUserID: "bob",
			Key:            key,
			AwardedAt:      e.clock,
		}).Error)
	}

	entries, err := e.board.Rank(models.LeaderboardByAchievements, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, rankedUsers(entries))
	assert.Equal(t, 2, entries[0].Achievements)
}

func TestRankRejectsUnknownMetric(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.board.Rank(models.LeaderboardMetric("karma"), 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.board.CachedRank(models.LeaderboardMetric("karma"), 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRankLimit(t *testing.T) {
	e := newTestEngine(t)
	for _, u := range []string{"a", "b", "c", "d"} {
		e.createProfile(t, u, 1, 0, 0)
	}

	entries, err := e.board.Rank(models.LeaderboardByLevel, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	e.createProfile(t, "alice", 4, 10, 80)
	e.createProfile(t, "bob", 2, 0, 120)

	require.NoError(t, e.board.RebuildSnapshot(10))

	cached, err := e.board.CachedRank(models.LeaderboardByPoints, 10)
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, "bob", cached[0].ExternalUserID)
	assert.Equal(t, int64(120), cached[0].Score)
	assert.Equal(t, 1, cached[0].Rank)

	// Rebuilding replaces rows instead of accumulating them.
	e.createProfile(t, "carol", 1, 0, 500)
	require.NoError(t, e.board.RebuildSnapshot(10))

	cached, err = e.board.CachedRank(models.LeaderboardByPoints, 10)
	require.NoError(t, err)
	require.Len(t, cached, 3)
	assert.Equal(t, "carol", cached[0].ExternalUserID)
}
