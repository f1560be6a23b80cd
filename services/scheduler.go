package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSnapshotScheduler rebuilds the leaderboard snapshot every minute and
// exports the aged ledger once a day. Neither job participates in task or
// target reset semantics: period boundaries are detected lazily at call
// time, not here.
func StartSnapshotScheduler(leaderboard *LeaderboardService, ledger *RewardLedger) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if err := leaderboard.RebuildSnapshot(100); err != nil {
				log.Printf("[SCHEDULER] leaderboard snapshot rebuild failed: %v", err)
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			cutoff := time.Now().UTC().AddDate(0, -3, 0)
			if err := ledger.ArchiveBefore(cutoff); err != nil {
				log.Printf("[SCHEDULER] ledger archive export failed: %v", err)
			}
		}),
	)
}
