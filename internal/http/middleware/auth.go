package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
	"github.com/tbourn/go-lifetrack-backend/internal/auth"
)

const (
	// ctxKeyUserID holds the authenticated user id.
	ctxKeyUserID = "userID"
	// HeaderUserID names the caller in demo mode (no JWT secret configured).
	HeaderUserID = "X-User-ID"
	// DemoUserID is used in demo mode when X-User-ID is absent.
	DemoUserID = "demo-user"
)

// Authenticate resolves the caller's identity and stores it under "userID".
//
// With a verifier, a bearer token is mandatory. A missing or malformed
// Authorization header is reported as Unauthorized; verification failures
// are passed on unchanged so the classifier can tell an expired token from
// an invalid one.
//
// Without a verifier (local development) the X-User-ID header is trusted,
// falling back to "demo-user".
func Authenticate(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil {
			uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
			if uid == "" {
				uid = DemoUserID
			}
			c.Set(ctxKeyUserID, uid)
			c.Next()
			return
		}

		h := c.GetHeader("Authorization")
		if h == "" {
			Abort(c, apperr.Unauthorized("missing Authorization header"))
			return
		}
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			Abort(c, apperr.Unauthorized("Authorization header is not a bearer token"))
			return
		}

		claims, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			Abort(c, err)
			return
		}
		c.Set(ctxKeyUserID, claims.Subject)
		c.Next()
	}
}

// UserID returns the identity set by Authenticate, or "" if none.
func UserID(c *gin.Context) string {
	v, _ := c.Get(ctxKeyUserID)
	return asString(v)
}
