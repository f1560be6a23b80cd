package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Engine error taxonomy. Services return these wrapped with context via
// fmt.Errorf("%w: ..."); handlers match with errors.Is and map to HTTP
// statuses. No partial write ever survives one of these: every write path
// runs inside a single transaction that rolls back on any error.
var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyCompleted    = errors.New("already completed")
	ErrInsufficientBalance = errors.New("insufficient point balance")
	ErrLevelTooLow         = errors.New("level too low")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTransactionConflict = errors.New("transaction conflict")
)

// translateDBError converts storage-layer "missing row" errors into the
// engine's taxonomy so callers never see gorm internals.
func translateDBError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isTxConflict reports whether err looks like a lost concurrency race:
// postgres serialization failure (40001), deadlock (40P01) or unique-key
// violation (23505), or the sqlite equivalents under test. Unique violations
// count because first-touch inserts (profile, task/target progress) have no
// row to lock yet; the loser's retry re-reads the winner's row. These are the
// only errors eligible for an automatic local retry.
func isTxConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40P01") ||
		strings.Contains(msg, "23505") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
