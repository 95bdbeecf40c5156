// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, structured access logging and
// panic recovery:
//
//   - RequestID() ensures every request carries a correlation ID, propagated
//     via X-Request-ID and echoed as meta.request_id in every envelope.
//   - Logger() and RedactingLogger() emit one structured access log per
//     request and attach a request-scoped zerolog.Logger for handlers,
//     services and ErrorHandler.
//   - Recovery() turns a panic into an ordinary request error so that the
//     ErrorHandler classifies it like any other unexpected failure.
//
// Recommended order:
//
//	RequestID() → Logger() → ErrorHandler(...) → Recovery() → routes
package middleware

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-lifetrack-backend/internal/http/envelope"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// loggerKey holds the request-scoped *zerolog.Logger.
	loggerKey = "logger"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// An incoming X-Request-ID is reused; otherwise a UUIDv4 is generated. The ID
// is written to the response header, which is where the envelope writer reads
// it from, and stored in the Gin context under "requestID".
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(envelope.RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(envelope.RequestIDHeader, rid)
		c.Next()
	}
}

// Logger writes a structured access log for each request.
//
// Level follows the outcome: error for 5xx, warn for 4xx, info otherwise.
// Classified failures are already logged by ErrorHandler with their code and
// incident id, so the access log only carries the status.
func Logger() gin.HandlerFunc { return accessLog(nil) }

// accessLog is shared by Logger and RedactingLogger. A non-nil scrub is
// applied to the query string and request headers, which are only logged
// in that case.
func accessLog(scrub *scrubber) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		query := truncate(c.Request.URL.RawQuery, maxQueryLogLength)

		lc := log.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Int64("bytes_in", c.Request.ContentLength)
		if scrub != nil {
			lc = lc.
				Str("query", scrub.text(query)).
				Interface("headers", scrub.headers(c.Request.Header))
		} else {
			lc = lc.
				Str("query", query).
				Str("user_agent", c.Request.UserAgent())
		}
		l := lc.Logger()
		c.Set(loggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		uid, _ := c.Get(ctxKeyUserID)
		ev := l.With().
			Str("user_id", asString(uid)).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		switch {
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// PanicError wraps a recovered panic value so it can travel through
// c.Errors to the ErrorHandler.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string { return fmt.Sprintf("panic: %v", p.Value) }

// Recovery intercepts panics and records them as request errors.
//
// The panic and its stack are attached with c.Error and the chain is
// aborted. ErrorHandler, installed before Recovery, classifies it as an
// InternalError, logs it with the stack and writes the envelope with an
// incident id.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				_ = c.Error(&PanicError{Value: rec, Stack: debug.Stack()})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger, or a fallback logger
// without request fields when Logger() is not installed.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate caps s at max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
