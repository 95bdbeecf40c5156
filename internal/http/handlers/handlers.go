// Package handlers exposes the REST endpoints for life areas, goals,
// progress entries and the dashboard.
//
// Handlers are transport-thin. Input has already been checked and sanitized
// by middleware.ValidateRequest when a handler runs; the handler maps it onto
// a service call and writes the result through the envelope package.
// Failures are handed to middleware.Abort and rendered by the error handler.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lifetrack-backend/internal/domain"
	"github.com/tbourn/go-lifetrack-backend/internal/http/middleware"
	"github.com/tbourn/go-lifetrack-backend/internal/repo"
	"github.com/tbourn/go-lifetrack-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AreaService defines life-area operations consumed by the handlers.
type AreaService interface {
	Create(ctx context.Context, userID string, in services.AreaInput) (*domain.LifeArea, error)
	List(ctx context.Context, userID string) ([]domain.LifeArea, error)
	Get(ctx context.Context, userID, id string) (*domain.LifeArea, error)
	Update(ctx context.Context, userID, id string, p services.AreaPatch) (*domain.LifeArea, error)
	Delete(ctx context.Context, userID, id string) error
}

// GoalService defines goal operations consumed by the handlers.
type GoalService interface {
	Create(ctx context.Context, userID string, in services.GoalInput) (*domain.Goal, error)
	Get(ctx context.Context, userID, id string) (*domain.Goal, error)
	ListPage(ctx context.Context, userID string, f repo.GoalFilter, page, pageSize int) ([]domain.Goal, int64, error)
	// Fingerprint returns a weak ETag for the user's goal collection.
	Fingerprint(ctx context.Context, userID string) (string, error)
	Update(ctx context.Context, userID, id string, p services.GoalPatch) (*domain.Goal, error)
	Delete(ctx context.Context, userID, id string) error
}

// ProgressService defines progress operations consumed by the handlers.
type ProgressService interface {
	// Log records an entry; a non-empty idemKey makes the call replayable.
	Log(ctx context.Context, userID, goalID, idemKey string, in services.ProgressInput) (*services.ProgressResult, error)
	ListPage(ctx context.Context, userID, goalID string, page, pageSize int) ([]domain.ProgressEntry, int64, error)
}

// DashboardService builds the per-user overview.
type DashboardService interface {
	Summary(ctx context.Context, userID string) (*services.Dashboard, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	areas     AreaService
	goals     GoalService
	progress  ProgressService
	dashboard DashboardService
}

// New constructs a Handlers instance bound to the given services.
func New(areas AreaService, goals GoalService, progress ProgressService, dashboard DashboardService) *Handlers {
	return &Handlers{areas: areas, goals: goals, progress: progress, dashboard: dashboard}
}

// userID returns the identity resolved by middleware.Authenticate.
func userID(c *gin.Context) string {
	if uid := middleware.UserID(c); uid != "" {
		return uid
	}
	return middleware.DemoUserID
}

// pathID returns the sanitized :id parameter.
func pathID(c *gin.Context) string {
	return middleware.ResourceID(c)
}

// Guards are optional per-route middlewares run ahead of validation.
type Guards struct {
	// Idempotency checks Idempotency-Key on progress logging. It runs before
	// RateLimit so a detected replay can bypass the limiter.
	Idempotency gin.HandlerFunc
	RateLimit   gin.HandlerFunc
}

func (g Guards) chain(idem bool, rest ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(rest)+2)
	if idem && g.Idempotency != nil {
		out = append(out, g.Idempotency)
	}
	if g.RateLimit != nil {
		out = append(out, g.RateLimit)
	}
	return append(out, rest...)
}

// Register mounts every endpoint on rg. Each route runs its guards, then its
// schema check, then the handler.
func (h *Handlers) Register(rg gin.IRoutes, g Guards) {
	validate := middleware.ValidateRequest

	rg.GET("/areas", g.chain(false, validate(ListAreasRequest), h.ListAreas)...)
	rg.POST("/areas", g.chain(false, validate(CreateAreaRequest), h.CreateArea)...)
	rg.GET("/areas/:id", g.chain(false, validate(GetAreaRequest), h.GetArea)...)
	rg.PATCH("/areas/:id", g.chain(false, validate(UpdateAreaRequest), h.UpdateArea)...)
	rg.DELETE("/areas/:id", g.chain(false, validate(DeleteAreaRequest), h.DeleteArea)...)

	rg.GET("/goals", g.chain(false, validate(ListGoalsRequest), h.ListGoals)...)
	rg.POST("/goals", g.chain(false, validate(CreateGoalRequest), h.CreateGoal)...)
	rg.GET("/goals/:id", g.chain(false, validate(GetGoalRequest), h.GetGoal)...)
	rg.PATCH("/goals/:id", g.chain(false, validate(UpdateGoalRequest), h.UpdateGoal)...)
	rg.DELETE("/goals/:id", g.chain(false, validate(DeleteGoalRequest), h.DeleteGoal)...)

	rg.POST("/goals/:id/progress", g.chain(true, validate(LogProgressRequest), h.LogProgress)...)
	rg.GET("/goals/:id/progress", g.chain(false, validate(ListProgressRequest), h.ListProgress)...)

	rg.GET("/dashboard", g.chain(false, h.Dashboard)...)
}
