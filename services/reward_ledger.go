package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"progression-engine/models"
	"progression-engine/utils"

	"gorm.io/gorm"
)

// RewardLedger is the append-only audit trail of every grant. There is no
// update or delete operation on it anywhere in the engine.
type RewardLedger struct {
	DB *gorm.DB
}

func NewRewardLedger(db *gorm.DB) *RewardLedger {
	return &RewardLedger{DB: db}
}

// Record appends one grant inside the caller's transaction so the ledger row
// commits or rolls back together with the balance change it documents.
func (l *RewardLedger) Record(tx *gorm.DB, userID string, points, experience int, reason string, sourceType models.RewardSourceType, sourceID string, now time.Time) (*models.RewardRecord, error) {
	rec := models.RewardRecord{
		ExternalUserID: userID,
		Points:         points,
		Experience:     experience,
		Reason:         reason,
		SourceType:     sourceType,
		SourceID:       sourceID,
		CreatedAt:      now,
	}
	if err := tx.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to append reward record for user %s: %w", userID, err)
	}
	return &rec, nil
}

// Recent returns the newest grants for a user, descending by time.
func (l *RewardLedger) Recent(userID string, limit int) ([]models.RewardRecord, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	var records []models.RewardRecord
	err := l.DB.Where("external_user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// ArchiveBefore exports every record older than cutoff as a JSON batch to
// object storage. The rows themselves stay: the ledger is never pruned, the
// archive is an off-site copy.
func (l *RewardLedger) ArchiveBefore(cutoff time.Time) error {
	var records []models.RewardRecord
	if err := l.DB.Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return fmt.Errorf("failed to load ledger rows for archive: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger archive: %w", err)
	}

	key := fmt.Sprintf("ledger-archives/rewards-%s.json", cutoff.UTC().Format("2006-01-02"))
	url, err := utils.UploadBytesToR2(payload, key, "application/json")
	if err != nil {
		return fmt.Errorf("failed to upload ledger archive: %w", err)
	}

	log.Printf("[LEDGER] archived %d reward records to %s", len(records), url)
	return nil
}
