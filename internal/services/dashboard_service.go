// Package services – DashboardService
//
// DashboardService assembles the per-user overview: goal counts by area and
// status, completion ratios, overall totals and the most recent entries.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/domain"
	"github.com/tbourn/go-lifetrack-backend/internal/repo"
)

// AreaSummary aggregates the goals of one life area.
type AreaSummary struct {
	AreaID          string           `json:"area_id"`
	Name            string           `json:"name"`
	Color           string           `json:"color"`
	Goals           map[string]int64 `json:"goals"`
	Total           int64            `json:"total"`
	CompletionRatio float64          `json:"completion_ratio"`
}

// Totals aggregates across all areas.
type Totals struct {
	Areas           int     `json:"areas"`
	Goals           int64   `json:"goals"`
	Active          int64   `json:"active"`
	Completed       int64   `json:"completed"`
	CompletionRatio float64 `json:"completion_ratio"`
	EntriesLastWeek int64   `json:"entries_last_week"`
}

// Dashboard is the response model of DashboardService.Summary.
type Dashboard struct {
	Areas  []AreaSummary          `json:"areas"`
	Totals Totals                 `json:"totals"`
	Recent []domain.ProgressEntry `json:"recent"`
}

// DashboardService computes dashboards from the repository aggregates.
type DashboardService struct {
	DB          *gorm.DB
	RecentLimit int
	Now         func() time.Time
}

// NewDashboardService constructs a DashboardService showing the last 10 entries.
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{DB: db, RecentLimit: 10, Now: time.Now}
}

// Summary builds the dashboard of userID. Areas without goals are included
// with zero counts.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*Dashboard, error) {
	ctx, span := otel.Tracer("services/DashboardService").Start(ctx, "Summary",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	areas, err := repo.ListAreas(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	buckets, err := repo.GoalCountsByAreaStatus(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	limit := s.RecentLimit
	if limit <= 0 {
		limit = 10
	}
	recent, err := repo.RecentProgress(ctx, s.DB, userID, limit)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	lastWeek, err := repo.CountProgressSince(ctx, s.DB, userID, now().UTC().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	byArea := make(map[string]*AreaSummary, len(areas))
	d := &Dashboard{Areas: make([]AreaSummary, 0, len(areas)), Recent: recent}
	for _, a := range areas {
		d.Areas = append(d.Areas, AreaSummary{AreaID: a.ID, Name: a.Name, Color: a.Color, Goals: emptyStatusCounts()})
	}
	for i := range d.Areas {
		byArea[d.Areas[i].AreaID] = &d.Areas[i]
	}

	for _, b := range buckets {
		d.Totals.Goals += b.Count
		switch b.Status {
		case domain.GoalStatusActive:
			d.Totals.Active += b.Count
		case domain.GoalStatusCompleted:
			d.Totals.Completed += b.Count
		}
		if as, ok := byArea[b.AreaID]; ok {
			as.Goals[b.Status] += b.Count
			as.Total += b.Count
		}
	}
	for i := range d.Areas {
		a := &d.Areas[i]
		a.CompletionRatio = ratio(a.Goals[domain.GoalStatusCompleted], a.Total)
	}
	d.Totals.Areas = len(areas)
	d.Totals.CompletionRatio = ratio(d.Totals.Completed, d.Totals.Goals)
	d.Totals.EntriesLastWeek = lastWeek
	return d, nil
}

func emptyStatusCounts() map[string]int64 {
	m := make(map[string]int64, len(domain.GoalStatuses))
	for _, st := range domain.GoalStatuses {
		m[st] = 0
	}
	return m
}

func ratio(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
