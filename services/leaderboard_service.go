package services

import (
	"fmt"
	"log"
	"time"

	"progression-engine/models"

	"gorm.io/gorm"
)

// LeaderboardService produces deterministic rankings over all profiles.
// The sort key per metric:
//
//	level         → (level desc, experience desc)
//	points        → (total_points_earned desc)
//	achievements  → (unlock count desc)
//
// with external_user_id asc as the final tie-breaker in every case so the
// ordering is total: re-running Rank on an unchanged store returns an
// identical list.
type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// Rank returns the top entries for the metric, 1-based by output position.
func (s *LeaderboardService) Rank(metric models.LeaderboardMetric, limit int) ([]models.LeaderboardEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 25
	}

	var entries []models.LeaderboardEntry
	var err error
	switch metric {
	case models.LeaderboardByLevel:
		err = s.DB.Raw(`
			SELECT external_user_id, level, experience, total_points_earned AS points
			FROM profiles
			WHERE deleted_at IS NULL
			ORDER BY level DESC, experience DESC, external_user_id ASC
			LIMIT ?`, limit).Scan(&entries).Error
	case models.LeaderboardByPoints:
		err = s.DB.Raw(`
			SELECT external_user_id, level, experience, total_points_earned AS points
			FROM profiles
			WHERE deleted_at IS NULL
			ORDER BY total_points_earned DESC, external_user_id ASC
			LIMIT ?`, limit).Scan(&entries).Error
	case models.LeaderboardByAchievements:
		err = s.DB.Raw(`
			SELECT p.external_user_id, p.level, p.experience, p.total_points_earned AS points,
			       COUNT(pa.id) AS achievements
			FROM profiles p
			LEFT JOIN profile_achievements pa ON pa.external_user_id = p.external_user_id
			WHERE p.deleted_at IS NULL
			GROUP BY p.external_user_id, p.level, p.experience, p.total_points_earned
			ORDER BY achievements DESC, p.external_user_id ASC
			LIMIT ?`, limit).Scan(&entries).Error
	default:
		return nil, fmt.Errorf("%w: unknown leaderboard metric %q", ErrInvalidInput, metric)
	}
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// RebuildSnapshot recomputes and stores the cached rankings for all three
// metrics. The snapshot serves cheap, eventually-consistent reads; the live
// Rank query remains the source of truth.
func (s *LeaderboardService) RebuildSnapshot(limit int) error {
	now := time.Now().UTC()
	metrics := []models.LeaderboardMetric{
		models.LeaderboardByLevel,
		models.LeaderboardByPoints,
		models.LeaderboardByAchievements,
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		for _, metric := range metrics {
			entries, err := s.Rank(metric, limit)
			if err != nil {
				return err
			}
			if err := tx.Where("metric = ?", metric).Delete(&models.LeaderboardSnapshot{}).Error; err != nil {
				return err
			}
			for _, e := range entries {
				score, secondary := snapshotScores(metric, e)
				row := models.LeaderboardSnapshot{
					Metric:         metric,
					Rank:           e.Rank,
					ExternalUserID: e.ExternalUserID,
					Score:          score,
					SecondaryScore: secondary,
					ComputedAt:     now,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
			log.Printf("[LEADERBOARD] snapshot rebuilt for metric=%s (%d entries)", metric, len(entries))
		}
		return nil
	})
}

// CachedRank serves the last built snapshot for a metric.
func (s *LeaderboardService) CachedRank(metric models.LeaderboardMetric, limit int) ([]models.LeaderboardSnapshot, error) {
	switch metric {
	case models.LeaderboardByLevel, models.LeaderboardByPoints, models.LeaderboardByAchievements:
	default:
		return nil, fmt.Errorf("%w: unknown leaderboard metric %q", ErrInvalidInput, metric)
	}
	if limit < 1 || limit > 500 {
		limit = 25
	}
	var rows []models.LeaderboardSnapshot
	err := s.DB.Where("metric = ?", metric).
		Order("rank ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func snapshotScores(metric models.LeaderboardMetric, e models.LeaderboardEntry) (int64, int64) {
	switch metric {
	case models.LeaderboardByLevel:
		return int64(e.Level), int64(e.Experience)
	case models.LeaderboardByPoints:
		return int64(e.Points), 0
	default:
		return int64(e.Achievements), 0
	}
}
