package services

import (
	"fmt"
	"log"
	"time"

	"progression-engine/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// runWriteTx executes fn inside a transaction and retries exactly once if the
// transaction lost a concurrency race. fn must be a full read-modify-write:
// on retry it re-reads state rather than resubmitting stale values.
func runWriteTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.Transaction(fn)
	if err == nil || !isTxConflict(err) {
		return err
	}
	log.Printf("[TX] conflict detected, retrying once: %v", err)
	if err = db.Transaction(fn); err != nil {
		if isTxConflict(err) {
			return fmt.Errorf("%w: %v", ErrTransactionConflict, err)
		}
		return err
	}
	return nil
}

// lockForUpdate takes a row lock on postgres so concurrent completions for
// the same profile serialize. SQLite (tests) has no FOR UPDATE and serializes
// writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// startingPoints is the seed balance granted to every lazily created profile.
const startingPoints = 10

// ensureProfileTx loads the user's profile under lock, creating it with seed
// values on first touch. The starting grant is ledgered like any other.
func ensureProfileTx(tx *gorm.DB, externalUserID string, now time.Time) (*models.Profile, error) {
	var prof models.Profile
	err := lockForUpdate(tx).Where("external_user_id = ?", externalUserID).First(&prof).Error
	if err == nil {
		return &prof, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	prof = models.Profile{
		ExternalUserID:    externalUserID,
		Level:             1,
		Experience:        0,
		Points:            startingPoints,
		TotalPointsEarned: startingPoints,
		CategoryCounts:    map[string]int{},
		Attributes:        map[string]string{},
	}
	if err := tx.Create(&prof).Error; err != nil {
		return nil, err
	}

	welcome := models.RewardRecord{
		ExternalUserID: externalUserID,
		Points:         startingPoints,
		Experience:     0,
		Reason:         "welcome_grant",
		SourceType:     models.RewardSourceWelcome,
		CreatedAt:      now,
	}
	if err := tx.Create(&welcome).Error; err != nil {
		return nil, err
	}

	log.Printf("[PROFILE] created profile for user=%s with %d starting points", externalUserID, startingPoints)
	return &prof, nil
}
