// Package services – ProgressService
//
// ProgressService logs measurements against goals. Logging an entry and
// advancing the goal happen in one transaction. When the client supplies an
// Idempotency-Key, the created entry is remembered for IdempotencyTTL and a
// retry with the same key returns it instead of logging twice.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
	"github.com/tbourn/go-lifetrack-backend/internal/domain"
	"github.com/tbourn/go-lifetrack-backend/internal/repo"
	"github.com/tbourn/go-lifetrack-backend/internal/utils"
)

// ProgressInput carries the validated fields of a new entry.
type ProgressInput struct {
	Value      float64
	Note       string
	RecordedAt *time.Time
}

// ProgressResult is the outcome of Log.
type ProgressResult struct {
	Entry *domain.ProgressEntry
	Goal  *domain.Goal
	// Replayed is true when the entry was produced by an earlier request
	// carrying the same Idempotency-Key.
	Replayed bool
}

// ProgressService records progress entries.
type ProgressService struct {
	DB             *gorm.DB
	IdempotencyTTL time.Duration
	Now            func() time.Time
}

// NewProgressService constructs a ProgressService.
func NewProgressService(db *gorm.DB, ttl time.Duration) *ProgressService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ProgressService{DB: db, IdempotencyTTL: ttl, Now: time.Now}
}

func (s *ProgressService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Log adds value to the goal's current value, completing the goal when the
// target is reached. Archived goals refuse new entries.
func (s *ProgressService) Log(ctx context.Context, userID, goalID, idemKey string, in ProgressInput) (*ProgressResult, error) {
	ctx, span := otel.Tracer("services/ProgressService").Start(ctx, "Log",
		trace.WithAttributes(
			attribute.String("goal.id", goalID),
			attribute.String("user.id", userID),
			attribute.Bool("idempotent", idemKey != ""),
		),
	)
	defer span.End()

	idemKey = strings.TrimSpace(idemKey)
	if idemKey != "" {
		if res, err := s.replay(ctx, userID, goalID, idemKey); err == nil {
			span.SetAttributes(attribute.Bool("replayed", true))
			return res, nil
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	var out ProgressResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := repo.GetGoal(ctx, tx, goalID, userID)
		if err != nil {
			return notFound(err, msgGoalNotFound)
		}
		if g.Status == domain.GoalStatusArchived {
			return apperr.Unprocessable(msgGoalArchived, map[string]any{"status": g.Status})
		}

		e := domain.ProgressEntry{
			GoalID: goalID,
			UserID: userID,
			Value:  in.Value,
			Note:   strings.TrimSpace(in.Note),
		}
		if in.RecordedAt != nil {
			e.RecordedAt = in.RecordedAt.UTC()
		}
		entry, err := repo.CreateProgressEntry(ctx, tx, e)
		if err != nil {
			return err
		}

		g.CurrentValue += in.Value
		fields := map[string]any{"current_value": g.CurrentValue}
		if reachedTarget(g.Status, g.CurrentValue, g.TargetValue) {
			now := s.now()
			g.Status = domain.GoalStatusCompleted
			g.CompletedAt = &now
			fields["status"] = g.Status
			fields["completed_at"] = now
		}
		if err := repo.UpdateGoal(ctx, tx, goalID, userID, fields); err != nil {
			return err
		}

		if idemKey != "" {
			_, err := repo.CreateIdempotency(ctx, tx, userID, goalID, idemKey, entry.ID, http.StatusCreated, s.IdempotencyTTL)
			if errors.Is(err, repo.ErrDuplicate) {
				return apperr.Conflict(msgIdemConflict).WithCause(err)
			}
			if err != nil {
				return err
			}
		}

		out = ProgressResult{Entry: entry, Goal: g}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// replay returns the result stored for (userID, goalID, key), or
// repo.ErrNotFound when there is none.
func (s *ProgressService) replay(ctx context.Context, userID, goalID, key string) (*ProgressResult, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, goalID, key, s.now())
	if err != nil {
		return nil, err
	}
	entry, err := repo.GetProgressEntry(ctx, s.DB, rec.ResourceID, userID)
	if err != nil {
		return nil, err
	}
	g, err := repo.GetGoal(ctx, s.DB, goalID, userID)
	if err != nil {
		return nil, err
	}
	return &ProgressResult{Entry: entry, Goal: g, Replayed: true}, nil
}

// Seen reports whether (userID, goalID, key) has an unexpired record. Its
// signature matches middleware.IdempotencyLookup.
func (s *ProgressService) Seen(ctx context.Context, userID, goalID, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.DB, userID, goalID, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListPage returns a page of entries for an owned goal, newest first.
func (s *ProgressService) ListPage(ctx context.Context, userID, goalID string, page, pageSize int) ([]domain.ProgressEntry, int64, error) {
	p := utils.Paginate(page, pageSize, DefaultPageSize, MaxPageSize)
	ctx, span := otel.Tracer("services/ProgressService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("goal.id", goalID),
			attribute.Int("page", p.Page),
			attribute.Int("page_size", p.PageSize),
		),
	)
	defer span.End()

	if _, err := repo.GetGoal(ctx, s.DB, goalID, userID); err != nil {
		return nil, 0, notFound(err, msgGoalNotFound)
	}
	total, err := repo.CountProgress(ctx, s.DB, goalID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ProgressEntry{}, 0, nil
	}
	items, err := repo.ListProgressPage(ctx, s.DB, goalID, p.Offset, p.PageSize)
	return items, total, err
}

// PurgeExpired removes idempotency records past their TTL.
func (s *ProgressService) PurgeExpired(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, s.now())
}
