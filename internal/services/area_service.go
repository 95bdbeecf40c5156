// Package services – AreaService
//
// AreaService manages the user's life areas. Names are normalised before
// storage; uniqueness per user is left to the database index, whose violation
// reaches the client as DUPLICATE_RESOURCE through the error classifier.
package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/domain"
)

// AreaRepo defines the repository contract required by AreaService.
type AreaRepo interface {
	CreateArea(ctx context.Context, db *gorm.DB, a domain.LifeArea) (*domain.LifeArea, error)
	ListAreas(ctx context.Context, db *gorm.DB, userID string) ([]domain.LifeArea, error)
	GetArea(ctx context.Context, db *gorm.DB, id, userID string) (*domain.LifeArea, error)
	UpdateArea(ctx context.Context, db *gorm.DB, id, userID string, fields map[string]any) error
	DeleteArea(ctx context.Context, db *gorm.DB, id, userID string) error
}

// AreaInput carries the validated fields of a new area.
type AreaInput struct {
	Name      string
	Color     string
	Icon      string
	SortOrder int
}

// AreaPatch carries a partial update; nil fields are left untouched.
type AreaPatch struct {
	Name      *string
	Color     *string
	Icon      *string
	SortOrder *int
}

// AreaService provides life-area CRUD scoped to the calling user.
type AreaService struct {
	DB   *gorm.DB
	Repo AreaRepo

	// NameMaxLen caps stored names by rune length.
	NameMaxLen int
}

// NewAreaService constructs an AreaService with default limits.
func NewAreaService(db *gorm.DB, r AreaRepo) *AreaService {
	return &AreaService{DB: db, Repo: r, NameMaxLen: 100}
}

func (s *AreaService) span(ctx context.Context, name, userID string) (context.Context, trace.Span) {
	return otel.Tracer("services/AreaService").Start(ctx, name,
		trace.WithAttributes(attribute.String("user.id", userID)))
}

// Create inserts a new area owned by userID.
func (s *AreaService) Create(ctx context.Context, userID string, in AreaInput) (*domain.LifeArea, error) {
	ctx, span := s.span(ctx, "Create", userID)
	defer span.End()

	name := clip(normalizeName(in.Name), s.NameMaxLen)
	if name == "" {
		return nil, blankField("name", msgNameRequired)
	}
	return s.Repo.CreateArea(ctx, s.DB, domain.LifeArea{
		UserID:    userID,
		Name:      name,
		Color:     strings.ToLower(in.Color),
		Icon:      strings.TrimSpace(in.Icon),
		SortOrder: in.SortOrder,
	})
}

// List returns every area of userID.
func (s *AreaService) List(ctx context.Context, userID string) ([]domain.LifeArea, error) {
	ctx, span := s.span(ctx, "List", userID)
	defer span.End()
	return s.Repo.ListAreas(ctx, s.DB, userID)
}

// Get returns one owned area.
func (s *AreaService) Get(ctx context.Context, userID, id string) (*domain.LifeArea, error) {
	ctx, span := s.span(ctx, "Get", userID)
	defer span.End()

	a, err := s.Repo.GetArea(ctx, s.DB, id, userID)
	if err != nil {
		return nil, notFound(err, msgAreaNotFound)
	}
	return a, nil
}

// Update applies p to an owned area and returns the stored result.
func (s *AreaService) Update(ctx context.Context, userID, id string, p AreaPatch) (*domain.LifeArea, error) {
	ctx, span := s.span(ctx, "Update", userID)
	defer span.End()

	fields := map[string]any{}
	if p.Name != nil {
		name := clip(normalizeName(*p.Name), s.NameMaxLen)
		if name == "" {
			return nil, blankField("name", msgNameRequired)
		}
		fields["name"] = name
	}
	if p.Color != nil {
		fields["color"] = strings.ToLower(*p.Color)
	}
	if p.Icon != nil {
		fields["icon"] = strings.TrimSpace(*p.Icon)
	}
	if p.SortOrder != nil {
		fields["sort_order"] = *p.SortOrder
	}

	if err := s.Repo.UpdateArea(ctx, s.DB, id, userID, fields); err != nil {
		return nil, notFound(err, msgAreaNotFound)
	}
	return s.Get(ctx, userID, id)
}

// Delete removes an owned area together with its goals.
func (s *AreaService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.span(ctx, "Delete", userID)
	defer span.End()
	return notFound(s.Repo.DeleteArea(ctx, s.DB, id, userID), msgAreaNotFound)
}
