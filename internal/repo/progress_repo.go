package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/domain"
)

// CreateProgressEntry inserts a progress entry. RecordedAt defaults to now.
func CreateProgressEntry(ctx context.Context, db *gorm.DB, e domain.ProgressEntry) (*domain.ProgressEntry, error) {
	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	if e.RecordedAt.IsZero() {
		e.RecordedAt = now
	}
	if err := db.WithContext(ctx).Omit("Goal").Create(&e).Error; err != nil {
		return nil, translateError(err)
	}
	return &e, nil
}

// GetProgressEntry fetches an entry by ID and owner.
func GetProgressEntry(ctx context.Context, db *gorm.DB, id, userID string) (*domain.ProgressEntry, error) {
	var e domain.ProgressEntry
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// CountProgress returns the number of entries logged against goalID.
func CountProgress(ctx context.Context, db *gorm.DB, goalID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.ProgressEntry{}).Where("goal_id = ?", goalID).Count(&total).Error
	return total, err
}

// ListProgressPage returns entries of goalID, most recent first.
func ListProgressPage(ctx context.Context, db *gorm.DB, goalID string, offset, limit int) ([]domain.ProgressEntry, error) {
	out := []domain.ProgressEntry{}
	err := db.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("recorded_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// RecentProgress returns the latest limit entries across all goals of userID.
func RecentProgress(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.ProgressEntry, error) {
	out := []domain.ProgressEntry{}
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recorded_at DESC, id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
