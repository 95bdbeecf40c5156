package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
	"github.com/tbourn/go-lifetrack-backend/internal/http/envelope"
)

// apiErrors counts classified failures by taxonomy code and status.
var apiErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "api_errors_total",
		Help: "Total number of error responses by taxonomy code.",
	},
	[]string{"code", "status"},
)

func init() {
	prometheus.MustRegister(apiErrors)
}

// ErrorHandler is the single terminal error handler of the API.
//
// Handlers and middleware report failures with
//
//	_ = c.Error(err)
//	c.Abort()
//
// and return. After the chain unwinds, ErrorHandler takes the last recorded
// error, maps it onto the taxonomy with cls, logs it once and writes the
// failure envelope. Nothing else in the code base writes error responses for
// taxonomy errors.
//
// If a response was already written when the error surfaced (a panic after
// streaming started, for instance) the error is logged and the response is
// left alone.
func ErrorHandler(cls apperr.Classifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		e := cls.Classify(last.Err)
		logClassified(c, last.Err, e)
		apiErrors.WithLabelValues(e.Code, strconv.Itoa(e.Status)).Inc()

		if c.Writer.Written() {
			return
		}
		envelope.Fail(c, e)
	}
}

// logClassified writes the one log line for a failure. Server errors carry
// the raw error and the incident id; client errors are logged at warn level.
func logClassified(c *gin.Context, raw error, e *apperr.Error) {
	lg := LoggerFrom(c)
	var ev *zerolog.Event
	if e.Status >= 500 {
		ev = lg.Error()
	} else {
		ev = lg.Warn()
	}
	ev = ev.
		Err(raw).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", e.Status).
		Str("code", e.Code)
	if e.IncidentID != "" {
		ev = ev.Str("incident_id", e.IncidentID)
	}
	var p *PanicError
	if errors.As(raw, &p) {
		ev = ev.Bool("panic", true).Bytes("stack", p.Stack)
	}
	ev.Msg("api error")
}

// Abort records err for ErrorHandler and stops the chain. It is the one-line
// form handlers use to report a failure.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
