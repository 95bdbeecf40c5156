// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the LifeArea
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When an area is not found (or is owned by another user), functions
//     return ErrNotFound.
//   - Constraint failures are returned as *pq.Error (PostgreSQL) or
//     *ConstraintError (SQLite); both carry a SQLSTATE.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/domain"
)

// CreateArea inserts a new LifeArea owned by a.UserID. ID and timestamps are
// assigned here.
func CreateArea(ctx context.Context, db *gorm.DB, a domain.LifeArea) (*domain.LifeArea, error) {
	now := time.Now().UTC()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

// ListAreas returns every area of userID ordered by sort_order, then name.
func ListAreas(ctx context.Context, db *gorm.DB, userID string) ([]domain.LifeArea, error) {
	out := []domain.LifeArea{}
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sort_order ASC, name ASC").
		Find(&out).Error
	return out, err
}

// GetArea fetches a single area by its ID and owner.
func GetArea(ctx context.Context, db *gorm.DB, id, userID string) (*domain.LifeArea, error) {
	var a domain.LifeArea
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateArea applies a partial update (column -> value) to an owned area.
// It returns ErrNotFound when no row matched.
func UpdateArea(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	return updateOwned(ctx, db, &domain.LifeArea{}, id, userID, fields)
}

// DeleteArea removes an owned area; goals and progress cascade.
func DeleteArea(ctx context.Context, db *gorm.DB, id, userID string) error {
	return deleteOwned(ctx, db, &domain.LifeArea{}, id, userID)
}

func updateOwned(ctx context.Context, db *gorm.DB, model any, id, userID string, fields map[string]any) error {
	if len(fields) == 0 {
		var n int64
		if err := db.WithContext(ctx).Model(model).Where("id = ? AND user_id = ?", id, userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now().UTC()
	}
	res := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteOwned(ctx context.Context, db *gorm.DB, model any, id, userID string) error {
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(model)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AreaStore exposes the area functions as a method set, for consumers that
// take their persistence as an interface.
type AreaStore struct{}

func (AreaStore) CreateArea(ctx context.Context, db *gorm.DB, a domain.LifeArea) (*domain.LifeArea, error) {
	return CreateArea(ctx, db, a)
}

func (AreaStore) ListAreas(ctx context.Context, db *gorm.DB, userID string) ([]domain.LifeArea, error) {
	return ListAreas(ctx, db, userID)
}

func (AreaStore) GetArea(ctx context.Context, db *gorm.DB, id, userID string) (*domain.LifeArea, error) {
	return GetArea(ctx, db, id, userID)
}

func (AreaStore) UpdateArea(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error {
	return UpdateArea(ctx, db, id, userID, fields)
}

func (AreaStore) DeleteArea(ctx context.Context, db *gorm.DB, id, userID string) error {
	return DeleteArea(ctx, db, id, userID)
}
