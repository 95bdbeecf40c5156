package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lifetrack-backend/internal/http/envelope"
	"github.com/tbourn/go-lifetrack-backend/internal/http/middleware"
	"github.com/tbourn/go-lifetrack-backend/internal/services"
)

// AreaBody is the JSON payload for creating a life area.
type AreaBody struct {
	// Name is unique per user (1–100 chars).
	Name      string `json:"name" example:"Health"`
	Color     string `json:"color" example:"#22c55e"`
	Icon      string `json:"icon" example:"heart"`
	SortOrder int    `json:"sort_order" example:"1"`
}

// CreateArea godoc
// @ID          createArea
// @Summary     Create a life area
// @Tags        Areas
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.AreaBody  true  "Area payload"
//
// @Success     201  {object}  envelope.Success{data=domain.LifeArea}
// @Failure     422  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409  {object}  handlers.ErrorResponse  "Name already used"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /areas [post]
func (h *Handlers) CreateArea(c *gin.Context) {
	var req AreaBody
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, err)
		return
	}
	a, err := h.areas.Create(c.Request.Context(), userID(c), services.AreaInput{
		Name:      req.Name,
		Color:     req.Color,
		Icon:      req.Icon,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.OK(c, http.StatusCreated, a)
}

// ListAreas godoc
// @ID          listAreas
// @Summary     List life areas
// @Description Returns every area of the current user ordered by sort_order, then name.
// @Tags        Areas
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  envelope.Success{data=[]domain.LifeArea}
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /areas [get]
func (h *Handlers) ListAreas(c *gin.Context) {
	items, err := h.areas.List(c.Request.Context(), userID(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, items)
}

// GetArea godoc
// @ID          getArea
// @Summary     Get a life area
// @Tags        Areas
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Area ID (UUID)"  format(uuid)
//
// @Success     200  {object}  envelope.Success{data=domain.LifeArea}
// @Failure     422  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Area not found"
// @Router      /areas/{id} [get]
func (h *Handlers) GetArea(c *gin.Context) {
	a, err := h.areas.Get(c.Request.Context(), userID(c), pathID(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, a)
}

// UpdateArea godoc
// @ID          updateArea
// @Summary     Update a life area
// @Description Partial update; omitted fields keep their value.
// @Tags        Areas
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string             true  "Area ID (UUID)"  format(uuid)
// @Param       body  body  handlers.AreaBody  true  "Fields to change"
//
// @Success     200  {object}  envelope.Success{data=domain.LifeArea}
// @Failure     422  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Area not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Name already used"
// @Router      /areas/{id} [patch]
func (h *Handlers) UpdateArea(c *gin.Context) {
	body := middleware.ValidatedBody(c)
	a, err := h.areas.Update(c.Request.Context(), userID(c), pathID(c), services.AreaPatch{
		Name:      optString(body, "name"),
		Color:     optString(body, "color"),
		Icon:      optString(body, "icon"),
		SortOrder: optInt(body, "sort_order"),
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, a)
}

// DeleteArea godoc
// @ID          deleteArea
// @Summary     Delete a life area
// @Description Deletes the area together with its goals and their progress.
// @Tags        Areas
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Area ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Area not found"
// @Router      /areas/{id} [delete]
func (h *Handlers) DeleteArea(c *gin.Context) {
	if err := h.areas.Delete(c.Request.Context(), userID(c), pathID(c)); err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.NoContent(c)
}
