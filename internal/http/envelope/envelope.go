// Package envelope writes the single JSON response shape used by every
// endpoint, for both success and failure.
//
// Success:
//
//	HTTP/1.1 201 Created
//	{
//	  "success": true,
//	  "data": { "id": "…", "name": "Health" },
//	  "meta": { "timestamp": "2026-10-19T08:00:00Z", "request_id": "123e4567-…" }
//	}
//
// Failure:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "success": false,
//	  "error": { "code": "NOT_FOUND", "message": "Resource not found" },
//	  "meta": { "timestamp": "2026-10-19T08:00:00Z", "request_id": "unknown" }
//	}
//
// The package is pure formatting: it never decides status codes or messages.
package envelope

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
)

// RequestIDHeader is the header the RequestID middleware sets on responses.
const RequestIDHeader = "X-Request-ID"

// UnknownRequestID is reported when no upstream request id was assigned.
const UnknownRequestID = "unknown"

// Meta is attached to every response.
type Meta struct {
	Timestamp string `json:"timestamp" example:"2026-10-19T08:00:00Z"`
	RequestID string `json:"request_id" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// ErrorBody is the "error" member of a failure envelope.
type ErrorBody struct {
	Code       string         `json:"code" example:"NOT_FOUND"`
	Message    string         `json:"message" example:"Resource not found"`
	Details    map[string]any `json:"details,omitempty"`
	IncidentID string         `json:"incident_id,omitempty" example:"inc_1760860800000_a1b2c3d4e"`
}

// Success is the envelope of a successful response. Data is always emitted,
// even when null.
type Success struct {
	Success bool `json:"success" example:"true"`
	Data    any  `json:"data"`
	Meta    Meta `json:"meta"`
}

// Failure is the envelope of an error response.
type Failure struct {
	Success bool      `json:"success" example:"false"`
	Error   ErrorBody `json:"error"`
	Meta    Meta      `json:"meta"`
}

// now is swapped in tests.
var now = time.Now

// OK writes a success envelope with the given status.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Success{Success: true, Data: data, Meta: meta(c)})
}

// Fail aborts the request with the failure envelope of a classified error.
func Fail(c *gin.Context, e *apperr.Error) {
	Raw(c, e.Status, ErrorBody{
		Code:       e.Code,
		Message:    e.Message,
		Details:    e.Details,
		IncidentID: e.IncidentID,
	})
}

// Raw aborts the request with a failure envelope built from body. It serves
// outer concerns (rate limiting, 405) whose codes sit outside the taxonomy.
func Raw(c *gin.Context, status int, body ErrorBody) {
	c.AbortWithStatusJSON(status, Failure{Success: false, Error: body, Meta: meta(c)})
}

// NoContent writes 204 without a body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RequestID returns the request id assigned upstream, or "unknown".
func RequestID(c *gin.Context) string {
	if rid := c.Writer.Header().Get(RequestIDHeader); rid != "" {
		return rid
	}
	return UnknownRequestID
}

func meta(c *gin.Context) Meta {
	return Meta{
		Timestamp: now().UTC().Format(time.RFC3339Nano),
		RequestID: RequestID(c),
	}
}
