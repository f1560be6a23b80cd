package services

import (
	"errors"
	"testing"

	"progression-engine/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsTxConflictClassification(t *testing.T) {
	conflicts := []string{
		"ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)",
		"ERROR: deadlock detected (SQLSTATE 40P01)",
		"ERROR: duplicate key value violates unique constraint \"idx_profiles_external_user_id\" (SQLSTATE 23505)",
		"constraint failed: UNIQUE constraint failed: profiles.external_user_id (2067)",
		"database is locked (5) (SQLITE_BUSY)",
	}
	for _, msg := range conflicts {
		assert.True(t, isTxConflict(errors.New(msg)), msg)
	}

	assert.False(t, isTxConflict(nil))
	assert.False(t, isTxConflict(gorm.ErrRecordNotFound))
	assert.False(t, isTxConflict(errors.New("connection refused")))
}

func TestWriteTxRetriesOnceOnConflict(t *testing.T) {
	db := newTestDB(t)

	attempts := 0
	err := runWriteTx(db, func(tx *gorm.DB) error {
		attempts++
		if attempts == 1 {
			return errors.New("ERROR: could not serialize access (SQLSTATE 40001)")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestWriteTxSurfacesConflictAfterSecondLoss(t *testing.T) {
	db := newTestDB(t)

	attempts := 0
	err := runWriteTx(db, func(tx *gorm.DB) error {
		attempts++
		return errors.New("ERROR: could not serialize access (SQLSTATE 40001)")
	})
	assert.ErrorIs(t, err, ErrTransactionConflict)
	assert.Equal(t, 2, attempts)
}

func TestWriteTxDoesNotRetryOrdinaryErrors(t *testing.T) {
	db := newTestDB(t)

	attempts := 0
	err := runWriteTx(db, func(tx *gorm.DB) error {
		attempts++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, attempts)
}

// Two first touches for the same user can race: neither sees a row to lock,
// both insert, the loser hits the unique index. The loser's retry must re-read
// the winner's committed profile instead of surfacing the violation.
func TestWriteTxRecoversLostFirstTouchRace(t *testing.T) {
	e := newTestEngine(t)

	winner := models.Profile{ExternalUserID: "raced-user", Level: 1, Points: startingPoints, TotalPointsEarned: startingPoints}
	require.NoError(t, e.db.Create(&winner).Error)

	attempts := 0
	var prof *models.Profile
	err := runWriteTx(e.db, func(tx *gorm.DB) error {
		attempts++
		if attempts == 1 {
			// A stale read saw no row; this insert collides with the winner.
			return tx.Create(&models.Profile{ExternalUserID: "raced-user", Level: 1}).Error
		}
		var err error
		prof, err = ensureProfileTx(tx, "raced-user", e.clock)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	require.NotNil(t, prof)
	assert.Equal(t, winner.ID, prof.ID)

	var count int64
	require.NoError(t, e.db.Model(&models.Profile{}).Where("external_user_id = ?", "raced-user").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
