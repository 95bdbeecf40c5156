// Package services – GoalService
//
// GoalService owns the goal lifecycle: creation inside an owned life area,
// filtered listing with pagination, partial updates and deletion. A goal
// whose current value reaches its target is completed automatically.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/domain"
	"github.com/tbourn/go-lifetrack-backend/internal/repo"
	"github.com/tbourn/go-lifetrack-backend/internal/utils"
)

// Pagination defaults shared by list operations.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// GoalInput carries the validated fields of a new goal.
type GoalInput struct {
	AreaID       string
	Title        string
	Description  string
	Status       string
	Priority     int
	TargetValue  float64
	CurrentValue float64
	Unit         string
	DueDate      *time.Time
}

// GoalPatch carries a partial update; nil fields are left untouched.
type GoalPatch struct {
	AreaID       *string
	Title        *string
	Description  *string
	Status       *string
	Priority     *int
	TargetValue  *float64
	CurrentValue *float64
	Unit         *string
	DueDate      *time.Time
	// ClearDueDate removes the due date; it wins over DueDate.
	ClearDueDate bool
}

// GoalService provides goal operations scoped to the calling user.
type GoalService struct {
	DB *gorm.DB

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// Now is the clock used for completion timestamps.
	Now func() time.Time
}

// NewGoalService constructs a GoalService with default limits.
func NewGoalService(db *gorm.DB) *GoalService {
	return &GoalService{DB: db, TitleMaxLen: 200, Now: time.Now}
}

func (s *GoalService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *GoalService) span(ctx context.Context, name, userID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("user.id", userID))
	return otel.Tracer("services/GoalService").Start(ctx, name, trace.WithAttributes(attrs...))
}

// Create inserts a goal into one of the caller's areas. Status defaults to
// active and priority to 3.
func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (*domain.Goal, error) {
	ctx, span := s.span(ctx, "Create", userID, attribute.String("area.id", in.AreaID))
	defer span.End()

	title := clip(normalizeName(in.Title), s.TitleMaxLen)
	if title == "" {
		return nil, blankField("title", msgTitleRequired)
	}
	if _, err := repo.GetArea(ctx, s.DB, in.AreaID, userID); err != nil {
		return nil, notFound(err, msgAreaNotFound)
	}

	g := domain.Goal{
		UserID:       userID,
		AreaID:       in.AreaID,
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		Status:       in.Status,
		Priority:     in.Priority,
		TargetValue:  in.TargetValue,
		CurrentValue: in.CurrentValue,
		Unit:         strings.TrimSpace(in.Unit),
		DueDate:      in.DueDate,
	}
	if g.Status == "" {
		g.Status = domain.GoalStatusActive
	}
	if g.Priority == 0 {
		g.Priority = 3
	}
	if reachedTarget(g.Status, g.CurrentValue, g.TargetValue) {
		g.Status = domain.GoalStatusCompleted
	}
	if g.Status == domain.GoalStatusCompleted {
		now := s.now()
		g.CompletedAt = &now
	}
	return repo.CreateGoal(ctx, s.DB, g)
}

// Get returns one owned goal.
func (s *GoalService) Get(ctx context.Context, userID, id string) (*domain.Goal, error) {
	ctx, span := s.span(ctx, "Get", userID, attribute.String("goal.id", id))
	defer span.End()

	g, err := repo.GetGoal(ctx, s.DB, id, userID)
	if err != nil {
		return nil, notFound(err, msgGoalNotFound)
	}
	return g, nil
}

// ListPage returns a filtered page of the caller's goals and the total count.
func (s *GoalService) ListPage(ctx context.Context, userID string, f repo.GoalFilter, page, pageSize int) ([]domain.Goal, int64, error) {
	p := utils.Paginate(page, pageSize, DefaultPageSize, MaxPageSize)
	ctx, span := s.span(ctx, "ListPage", userID,
		attribute.Int("page", p.Page),
		attribute.Int("page_size", p.PageSize),
		attribute.String("filter.status", f.Status),
	)
	defer span.End()

	total, err := repo.CountGoals(ctx, s.DB, userID, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Goal{}, 0, nil
	}
	items, err := repo.ListGoalsPage(ctx, s.DB, userID, f, p.Offset, p.PageSize)
	return items, total, err
}

// Fingerprint returns a weak ETag describing the caller's goal collection.
// It changes whenever a goal is added, removed or updated.
func (s *GoalService) Fingerprint(ctx context.Context, userID string) (string, error) {
	count, maxTS, err := repo.GoalsStats(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	return fmt.Sprintf(`W/"goals:%s:%d:%d"`, userID, count, ts), nil
}

// Update applies p to an owned goal and returns the stored result. Moving a
// goal requires the target area to be owned by the caller too.
func (s *GoalService) Update(ctx context.Context, userID, id string, p GoalPatch) (*domain.Goal, error) {
	ctx, span := s.span(ctx, "Update", userID, attribute.String("goal.id", id))
	defer span.End()

	cur, err := repo.GetGoal(ctx, s.DB, id, userID)
	if err != nil {
		return nil, notFound(err, msgGoalNotFound)
	}

	fields := map[string]any{}
	if p.AreaID != nil && *p.AreaID != cur.AreaID {
		if _, err := repo.GetArea(ctx, s.DB, *p.AreaID, userID); err != nil {
			return nil, notFound(err, msgAreaNotFound)
		}
		fields["area_id"] = *p.AreaID
	}
	if p.Title != nil {
		title := clip(normalizeName(*p.Title), s.TitleMaxLen)
		if title == "" {
			return nil, blankField("title", msgTitleRequired)
		}
		fields["title"] = title
	}
	if p.Description != nil {
		fields["description"] = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		fields["priority"] = *p.Priority
	}
	if p.Unit != nil {
		fields["unit"] = strings.TrimSpace(*p.Unit)
	}
	if p.ClearDueDate {
		fields["due_date"] = nil
	} else if p.DueDate != nil {
		fields["due_date"] = *p.DueDate
	}

	status, current, target := cur.Status, cur.CurrentValue, cur.TargetValue
	if p.Status != nil {
		status = *p.Status
	}
	if p.CurrentValue != nil {
		current = *p.CurrentValue
		fields["current_value"] = current
	}
	if p.TargetValue != nil {
		target = *p.TargetValue
		fields["target_value"] = target
	}
	if reachedTarget(status, current, target) {
		status = domain.GoalStatusCompleted
	}
	if status != cur.Status {
		fields["status"] = status
		if status == domain.GoalStatusCompleted {
			fields["completed_at"] = s.now()
		} else if cur.Status == domain.GoalStatusCompleted {
			fields["completed_at"] = nil
		}
	}

	if err := repo.UpdateGoal(ctx, s.DB, id, userID, fields); err != nil {
		return nil, notFound(err, msgGoalNotFound)
	}
	return s.Get(ctx, userID, id)
}

// Delete removes an owned goal and its progress entries.
func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.span(ctx, "Delete", userID, attribute.String("goal.id", id))
	defer span.End()
	return notFound(repo.DeleteGoal(ctx, s.DB, id, userID), msgGoalNotFound)
}

// reachedTarget reports whether an active goal should auto-complete.
// Paused and archived goals keep their status.
func reachedTarget(status string, current, target float64) bool {
	return status == domain.GoalStatusActive && target > 0 && current >= target
}
