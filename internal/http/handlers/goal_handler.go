package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lifetrack-backend/internal/http/envelope"
	"github.com/tbourn/go-lifetrack-backend/internal/http/middleware"
	"github.com/tbourn/go-lifetrack-backend/internal/repo"
	"github.com/tbourn/go-lifetrack-backend/internal/services"
)

// GoalBody is the JSON payload for creating a goal.
type GoalBody struct {
	AreaID       string     `json:"area_id" format:"uuid" example:"0b7f3c1e-9a53-4f0e-8a4e-5c2d1b0e9f11"`
	Title        string     `json:"title" example:"Run 100 km"`
	Description  string     `json:"description" example:"Spring training block"`
	Status       string     `json:"status" enums:"active,paused,completed,archived" example:"active"`
	Priority     int        `json:"priority" minimum:"1" maximum:"5" example:"2"`
	TargetValue  float64    `json:"target_value" example:"100"`
	CurrentValue float64    `json:"current_value" example:"0"`
	Unit         string     `json:"unit" example:"km"`
	DueDate      *time.Time `json:"due_date" example:"2026-12-31T00:00:00Z"`
}

// CreateGoal godoc
// @ID          createGoal
// @Summary     Create a goal
// @Description Creates a goal inside one of the caller's areas. A goal whose current value already meets its target starts completed.
// @Tags        Goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.GoalBody  true  "Goal payload"
//
// @Success     201  {object}  envelope.Success{data=domain.Goal}
// @Failure     404  {object}  handlers.ErrorResponse  "Area not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation failed"
// @Router      /goals [post]
func (h *Handlers) CreateGoal(c *gin.Context) {
	var req GoalBody
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, err)
		return
	}
	g, err := h.goals.Create(c.Request.Context(), userID(c), services.GoalInput{
		AreaID:       req.AreaID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		TargetValue:  req.TargetValue,
		CurrentValue: req.CurrentValue,
		Unit:         req.Unit,
		DueDate:      req.DueDate,
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.OK(c, http.StatusCreated, g)
}

// ListGoals godoc
// @ID          listGoals
// @Summary     List goals (paginated)
// @Description Returns a page of the caller's goals, highest priority first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Goals
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       status         query   string  false  "Filter by status"  Enums(active,paused,completed,archived)
// @Param       area_id        query   string  false  "Filter by area"    format(uuid)
// @Param       page           query   int     false  "Page number"       minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"    minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  envelope.Success{data=handlers.ListGoalsResponse}
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     422  {object}  handlers.ErrorResponse  "Invalid query"
// @Router      /goals [get]
func (h *Handlers) ListGoals(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	q := middleware.ValidatedQuery(c)
	page := intOr(q, "page", 1)
	pageSize := intOr(q, "page_size", services.DefaultPageSize)

	// ETag pre-check (best effort). The sanitized query is part of the tag so
	// different pages and filters never share one.
	var etag string
	if fp, err := h.goals.Fingerprint(ctx, uid); err == nil {
		etag = strings.TrimSuffix(fp, `"`) + "?" + c.Request.URL.RawQuery + `"`
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Header("ETag", etag)
			c.Status(http.StatusNotModified)
			return
		}
	}

	f := repo.GoalFilter{
		Status: stringOr(q, "status", ""),
		AreaID: stringOr(q, "area_id", ""),
	}
	items, total, err := h.goals.ListPage(ctx, uid, f, page, pageSize)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	if etag != "" {
		c.Header("ETag", etag)
	}
	envelope.OK(c, http.StatusOK, ListGoalsResponse{
		Goals:      items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetGoal godoc
// @ID          getGoal
// @Summary     Get a goal
// @Tags        Goals
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Goal ID (UUID)"  format(uuid)
//
// @Success     200  {object}  envelope.Success{data=domain.Goal}
// @Failure     404  {object}  handlers.ErrorResponse  "Goal not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Invalid id"
// @Router      /goals/{id} [get]
func (h *Handlers) GetGoal(c *gin.Context) {
	g, err := h.goals.Get(c.Request.Context(), userID(c), pathID(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, g)
}

// UpdateGoal godoc
// @ID          updateGoal
// @Summary     Update a goal
// @Description Partial update. Sending "due_date": null clears the due date.
// @Tags        Goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string             true  "Goal ID (UUID)"  format(uuid)
// @Param       body  body  handlers.GoalBody  true  "Fields to change"
//
// @Success     200  {object}  envelope.Success{data=domain.Goal}
// @Failure     404  {object}  handlers.ErrorResponse  "Goal or area not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation failed"
// @Router      /goals/{id} [patch]
func (h *Handlers) UpdateGoal(c *gin.Context) {
	body := middleware.ValidatedBody(c)
	g, err := h.goals.Update(c.Request.Context(), userID(c), pathID(c), services.GoalPatch{
		AreaID:       optString(body, "area_id"),
		Title:        optString(body, "title"),
		Description:  optString(body, "description"),
		Status:       optString(body, "status"),
		Priority:     optInt(body, "priority"),
		TargetValue:  optFloat(body, "target_value"),
		CurrentValue: optFloat(body, "current_value"),
		Unit:         optString(body, "unit"),
		DueDate:      optTime(body, "due_date"),
		ClearDueDate: isNull(body, "due_date"),
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, g)
}

// DeleteGoal godoc
// @ID          deleteGoal
// @Summary     Delete a goal
// @Tags        Goals
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Goal ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Goal not found"
// @Router      /goals/{id} [delete]
func (h *Handlers) DeleteGoal(c *gin.Context) {
	if err := h.goals.Delete(c.Request.Context(), userID(c), pathID(c)); err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.NoContent(c)
}
