package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lifetrack-backend/internal/http/envelope"
	"github.com/tbourn/go-lifetrack-backend/internal/http/middleware"
)

// Dashboard godoc
// @ID          getDashboard
// @Summary     Overview of areas, goals and recent progress
// @Tags        Dashboard
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  envelope.Success{data=services.Dashboard}
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	d, err := h.dashboard.Summary(c.Request.Context(), userID(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	envelope.OK(c, http.StatusOK, d)
}
