package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
	"github.com/tbourn/go-lifetrack-backend/internal/domain"
	"github.com/tbourn/go-lifetrack-backend/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreateArea(t *testing.T, db *gorm.DB, userID, name string) *domain.LifeArea {
	t.Helper()
	a, err := NewAreaService(db, repo.AreaStore{}).Create(context.Background(), userID, AreaInput{Name: name, Color: "#AABBCC"})
	if err != nil {
		t.Fatalf("create area: %v", err)
	}
	return a
}

func mustCreateGoal(t *testing.T, db *gorm.DB, userID string, in GoalInput) *domain.Goal {
	t.Helper()
	g, err := NewGoalService(db).Create(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return g
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	e, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T %v", err, err)
	}
	return e.Kind
}

func fixedNow() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
