// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate queries used for conditional
// responses (ETag generation) and the dashboard summary.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/domain"
)

// GoalsStats returns aggregate metadata for a user's goals: the total number
// of rows and the maximum UpdatedAt timestamp among those rows.
//
// When the user has no goals, the returned count is 0 and maxUpdatedAt is nil.
func GoalsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Goal{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// AreaStatusCount is one (area, status) bucket of goal counts.
type AreaStatusCount struct {
	AreaID string
	Status string
	Count  int64
}

// GoalCountsByAreaStatus groups a user's goals by area and status.
func GoalCountsByAreaStatus(ctx context.Context, db *gorm.DB, userID string) ([]AreaStatusCount, error) {
	out := []AreaStatusCount{}
	err := db.WithContext(ctx).
		Model(&domain.Goal{}).
		Select("area_id, status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("area_id, status").
		Order("area_id, status").
		Scan(&out).Error
	return out, err
}

// CountProgressSince returns how many entries userID logged at or after since.
func CountProgressSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ProgressEntry{}).
		Where("user_id = ? AND recorded_at >= ?", userID, since).
		Count(&n).Error
	return n, err
}
