package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lifetrack-backend/internal/http/envelope"
	"github.com/tbourn/go-lifetrack-backend/internal/http/middleware"
	"github.com/tbourn/go-lifetrack-backend/internal/services"
)

// HeaderReplayed marks a response served from an earlier request with the
// same Idempotency-Key.
const HeaderReplayed = "Idempotency-Replayed"

// ProgressBody is the JSON payload for logging progress.
type ProgressBody struct {
	// Value is added to the goal's current value; negative values correct it.
	Value      float64    `json:"value" example:"5.5"`
	Note       string     `json:"note" example:"Morning run"`
	RecordedAt *time.Time `json:"recorded_at" example:"2026-10-19T07:30:00Z"`
}

// LogProgress godoc
// @ID          logProgress
// @Summary     Log progress on a goal
// @Description Records an entry and updates the goal. With an Idempotency-Key, retries return the original entry with 200 and Idempotency-Replayed: true.
// @Tags        Progress
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id               path    string                 true   "Goal ID (UUID)"  format(uuid)
// @Param       Idempotency-Key  header  string                 false  "Client retry key"
// @Param       body             body    handlers.ProgressBody  true   "Progress payload"
//
// @Success     201  {object}  envelope.Success{data=handlers.ProgressResponse}
// @Success     200  {object}  envelope.Success{data=handlers.ProgressResponse}  "Replayed"
// @Header      200  {string}  Idempotency-Replayed  "true"
// @Failure     404  {object}  handlers.ErrorResponse  "Goal not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Concurrent request with the same key"
// @Failure     422  {object}  handlers.ErrorResponse  "Validation failed or goal archived"
// @Router      /goals/{id}/progress [post]
func (h *Handlers) LogProgress(c *gin.Context) {
	var req ProgressBody
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, err)
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	res, err := h.progress.Log(c.Request.Context(), userID(c), pathID(c), key, services.ProgressInput{
		Value:      req.Value,
		Note:       req.Note,
		RecordedAt: req.RecordedAt,
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
		c.Header(HeaderReplayed, "true")
	}
	envelope.OK(c, status, ProgressResponse{Entry: res.Entry, Goal: res.Goal})
}

// ListProgress godoc
// @ID          listProgress
// @Summary     List progress entries of a goal
// @Tags        Progress
// @Produce     json
// @Security    BearerAuth
//
// @Param       id         path   string  true   "Goal ID (UUID)"  format(uuid)
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  envelope.Success{data=handlers.ListProgressResponse}
// @Failure     404  {object}  handlers.ErrorResponse  "Goal not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Invalid query"
// @Router      /goals/{id}/progress [get]
func (h *Handlers) ListProgress(c *gin.Context) {
	q := middleware.ValidatedQuery(c)
	page := intOr(q, "page", 1)
	pageSize := intOr(q, "page_size", services.DefaultPageSize)

	items, total, err := h.progress.ListPage(c.Request.Context(), userID(c), pathID(c), page, pageSize)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, ListProgressResponse{
		Entries:    items,
		Pagination: newPagination(page, pageSize, total),
	})
}
