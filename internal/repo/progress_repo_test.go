package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-lifetrack-backend/internal/domain"
)

func TestProgress_CreateListRecent(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()
	a := seedArea(t, db, "u1", "Health")
	g1 := seedGoal(t, db, domain.Goal{UserID: "u1", AreaID: a.ID, Title: "Run"})
	g2 := seedGoal(t, db, domain.Goal{UserID: "u1", AreaID: a.ID, Title: "Swim"})

	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := CreateProgressEntry(ctx, db, domain.ProgressEntry{
			GoalID: g1.ID, UserID: "u1", Value: float64(i + 1), RecordedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("seed entry %d: %v", i, err)
		}
	}
	e, err := CreateProgressEntry(ctx, db, domain.ProgressEntry{GoalID: g2.ID, UserID: "u1", Value: 9, Note: "pool"})
	if err != nil {
		t.Fatalf("CreateProgressEntry: %v", err)
	}
	if e.RecordedAt.IsZero() || e.ID == "" {
		t.Fatalf("defaults not applied: %+v", e)
	}
	if got, err := GetProgressEntry(ctx, db, e.ID, "u1"); err != nil || got.Note != "pool" {
		t.Fatalf("GetProgressEntry = %+v, %v", got, err)
	}
	if _, err := GetProgressEntry(ctx, db, e.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign GetProgressEntry: %v", err)
	}

	n, err := CountProgress(ctx, db, g1.ID)
	if err != nil || n != 3 {
		t.Fatalf("CountProgress = %d, %v", n, err)
	}
	page, err := ListProgressPage(ctx, db, g1.ID, 0, 2)
	if err != nil || len(page) != 2 || page[0].Value != 3 || page[1].Value != 2 {
		t.Fatalf("ListProgressPage = %+v, %v", page, err)
	}

	recent, err := RecentProgress(ctx, db, "u1", 2)
	if err != nil || len(recent) != 2 || recent[0].GoalID != g2.ID {
		t.Fatalf("RecentProgress = %+v, %v", recent, err)
	}

	since, err := CountProgressSince(ctx, db, "u1", base.Add(90*time.Minute))
	if err != nil || since != 2 {
		t.Fatalf("CountProgressSince = %d, %v", since, err)
	}
}

func TestCreateProgressEntry_UnknownGoal(t *testing.T) {
	db := newTestDB(t, allModels()...)
	_, err := CreateProgressEntry(context.Background(), db, domain.ProgressEntry{GoalID: "missing", UserID: "u1", Value: 1})
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("expected FK ConstraintError, got %T %v", err, err)
	}
}

func TestGoalCountsByAreaStatus(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()
	a := seedArea(t, db, "u1", "Health")
	b := seedArea(t, db, "u1", "Career")
	seedGoal(t, db, domain.Goal{UserID: "u1", AreaID: a.ID, Title: "1"})
	seedGoal(t, db, domain.Goal{UserID: "u1", AreaID: a.ID, Title: "2"})
	seedGoal(t, db, domain.Goal{UserID: "u1", AreaID: a.ID, Title: "3", Status: domain.GoalStatusCompleted})
	seedGoal(t, db, domain.Goal{UserID: "u1", AreaID: b.ID, Title: "4", Status: domain.GoalStatusPaused})

	rows, err := GoalCountsByAreaStatus(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GoalCountsByAreaStatus: %v", err)
	}
	got := map[string]int64{}
	for _, r := range rows {
		got[r.AreaID+"/"+r.Status] = r.Count
	}
	want := map[string]int64{
		a.ID + "/active":    2,
		a.ID + "/completed": 1,
		b.ID + "/paused":    1,
	}
	if len(got) != len(want) {
		t.Fatalf("buckets = %v; want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("bucket %s = %d; want %d", k, got[k], v)
		}
	}
}
