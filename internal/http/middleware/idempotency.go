// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe methods. It validates
// the Idempotency-Key header, asks a lookup whether the same (user, scope,
// key) already completed, and annotates the context so that:
//   - handlers read the key with GetIdempotencyKey
//   - handlers detect replays with IsReplay and serve the stored result
//   - the rate limiter lets replays through without consuming tokens
//
// Persistence stays behind the IdempotencyLookup function type.
package middleware

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
	"github.com/tbourn/go-lifetrack-backend/internal/validation"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemScope  = "idem.scope"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// GetIdempotencyKey returns the validated key and whether one was sent.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s := asString(v)
	return s, s != ""
}

// GetIdempotencyScope returns the scope the key was checked against.
func GetIdempotencyScope(c *gin.Context) string {
	v, _ := c.Get(ctxKeyIdemScope)
	return asString(v)
}

// IsReplay reports whether the lookup found a completed request for the key.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Scope derives the resource the key applies to, e.g. "goal:<id>".
	// Defaults to ResourceID.
	Scope func(*gin.Context) string
}

// IdempotencyLookup reports whether a still-valid result exists for
// (userID, scope, key) at now. Errors are treated as "no replay".
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (exists bool, err error)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyValidator validates the Idempotency-Key header when present and
// checks lookup for a prior completed request. A malformed key is reported
// as a ValidationError through the error handler. Requests without the
// header pass through untouched.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}
	scopeOf := opts.Scope
	if scopeOf == nil {
		scopeOf = ResourceID
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			Abort(c, apperr.Validation("Invalid Idempotency-Key header", map[string]any{
				"field_errors": validation.Violations{{
					Field:   HeaderIdempotencyKey,
					Message: HeaderIdempotencyKey + " must be a token of at most " + strconv.Itoa(maxLen) + " characters",
					Type:    "string.pattern.base",
				}},
			}))
			return
		}

		scope := scopeOf(c)
		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)

		if lookup != nil {
			exists, err := lookup(c.Request.Context(), userIDOrDemo(c), scope, key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
			}
			if exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// ResourceID returns the :id path parameter in canonical form: the
// sanitized value once ValidateRequest has run, otherwise the raw parameter
// trimmed and lowercased the same way the id schemas do.
func ResourceID(c *gin.Context) string {
	if id, ok := ValidatedParams(c)["id"].(string); ok {
		return id
	}
	return strings.ToLower(strings.TrimSpace(c.Param("id")))
}

func userIDOrDemo(c *gin.Context) string {
	if uid := UserID(c); uid != "" {
		return uid
	}
	return DemoUserID
}
