// Package middleware contains the gateway's Gin middleware: caller identity,
// request ids, redacting access logs, panic recovery, Prometheus metrics,
// idempotency keys, rate limiting and security headers.
package middleware

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the dashboard's configured user id.
const HeaderUserID = "X-User-ID"

// DefaultUserID is used when the caller sends no usable identity.
const DefaultUserID = "demo-user"

const ctxKeyUserID = "userID"

var userIDRE = regexp.MustCompile(`^[A-Za-z0-9._@\-]{1,64}$`)

// Identity resolves the caller from X-User-ID and stores it in the context.
// Malformed ids fall back to DefaultUserID; the gateway has no other auth.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if !userIDRE.MatchString(uid) {
			uid = DefaultUserID
		}
		c.Set(ctxKeyUserID, uid)
		c.Next()
	}
}

// UserID returns the identity set by Identity, or DefaultUserID.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return DefaultUserID
}
