package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/domain"
)

// GoalFilter narrows goal listings. Empty fields match everything.
type GoalFilter struct {
	Status string
	AreaID string
}

func (f GoalFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AreaID != "" {
		q = q.Where("area_id = ?", f.AreaID)
	}
	return q
}

// CreateGoal inserts a new goal. ID and timestamps are assigned here.
func CreateGoal(ctx context.Context, db *gorm.DB, g domain.Goal) (*domain.Goal, error) {
	now := time.Now().UTC()
	g.ID = uuid.NewString()
	g.CreatedAt = now
	g.UpdatedAt = now
	if err := db.WithContext(ctx).Omit("Area").Create(&g).Error; err != nil {
		return nil, translateError(err)
	}
	return &g, nil
}

// GetGoal fetches a goal by ID and owner.
func GetGoal(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Goal, error) {
	var g domain.Goal
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CountGoals returns the number of goals of userID matching f.
func CountGoals(ctx context.Context, db *gorm.DB, userID string, f GoalFilter) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Goal{}).Where("user_id = ?", userID)
	err := f.apply(q).Count(&total).Error
	return total, err
}

// ListGoalsPage returns a page of goals ordered by priority, then creation
// time (newest first). Use CountGoals for pagination metadata.
func ListGoalsPage(ctx context.Context, db *gorm.DB, userID string, f GoalFilter, offset, limit int) ([]domain.Goal, error) {
	out := []domain.Goal{}
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	err := f.apply(q).
		Order("priority ASC, created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateGoal applies a partial update to an owned goal.
func UpdateGoal(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	return updateOwned(ctx, db, &domain.Goal{}, id, userID, fields)
}

// DeleteGoal removes an owned goal; its progress entries cascade.
func DeleteGoal(ctx context.Context, db *gorm.DB, id, userID string) error {
	return deleteOwned(ctx, db, &domain.Goal{}, id, userID)
}
