// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity from an "Authorization: Bearer"
// session token and exposes it to the rest of the chain:
//   - Authenticate parses the token when one is sent and stores the user id
//     (as a decimal string under "userID", the key the rate limiter, the
//     idempotency validator and the access logger already read) and the role.
//   - RequireAuth rejects anonymous requests with 401.
//   - RequireRole rejects authenticated callers lacking a role with 403.
//
// Requests without an Authorization header pass through anonymously so that
// public catalog routes share the same chain.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-creative-marketplace/internal/utils"
)

const (
	ctxKeyUserID = "userID"
	ctxKeyRole   = "role"
)

// TokenParser validates a raw session token and returns its subject and role.
// *auth.Manager satisfies it.
type TokenParser interface {
	Parse(raw string) (userID uint, role string, err error)
}

// Authenticate returns middleware that resolves a bearer token into the
// request identity. A malformed or expired token is rejected with 401 rather
// than silently downgraded to anonymous access.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(c.GetHeader("Authorization"))
		if h == "" {
			c.Next()
			return
		}
		scheme, raw, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			abortUnauthorized(c, "malformed Authorization header")
			return
		}
		uid, role, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ctxKeyUserID, utils.FormatID(uid))
		c.Set(ctxKeyRole, role)
		c.Next()
	}
}

// RequireAuth rejects requests that Authenticate did not resolve to a user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := Identity(c); !ok {
			abortUnauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// RequireRole rejects callers that are anonymous (401) or do not hold one of
// roles (403).
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, role, ok := Identity(c)
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "forbidden",
			"message":    "insufficient role",
		})
	}
}

// Identity returns the authenticated user id and role. ok is false for
// anonymous requests.
func Identity(c *gin.Context) (userID uint, role string, ok bool) {
	s := c.GetString(ctxKeyUserID)
	if s == "" {
		return 0, "", false
	}
	id, valid := utils.ParseID(s)
	if !valid {
		return 0, "", false
	}
	return id, c.GetString(ctxKeyRole), true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
