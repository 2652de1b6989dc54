// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for create endpoints (POST
// /bookings, POST /orders). It validates an Idempotency-Key request header,
// asks a lookup whether the same caller already completed the same route with
// the same key, and annotates the request context so downstream handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay) and the resource created the first
//     time (ReplayedResourceID)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// Records are scoped by (user, route, key). The route is Gin's registered path
// (c.FullPath()), so the same key reused on /bookings and /orders names two
// different operations.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key for unsafe operations (e.g., POST).
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set to "true" on responses served from a
// stored result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemReplay   = "idem.replay"   // bool: true when a stored replay exists
	ctxKeyIdemResource = "idem.resource" // uint: id created by the first request
	ctxKeyRateBypass   = "rate.bypass"   // bool: true to skip rate limiting
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether the request repeats a completed operation.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// ReplayedResourceID returns the id of the resource created by the original
// request when IsReplay is true.
func ReplayedResourceID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxKeyIdemResource)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
// TTL enforcement belongs to the lookup.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, ^[A-Za-z0-9._~\-:]+$ is used.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a still-valid result exists for
// (userID, scope, key) at now, and the id of the resource it created.
// Errors are treated as "no replay" so lookups never block a request.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (resourceID uint, exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header of unsafe
// requests and marks replays.
//
// Behavior:
//   - Safe methods and requests without the header pass through untouched.
//   - An invalid header is answered with 400.
//   - Anonymous requests keep the key but are never looked up; the handler
//     decides whether they may create anything at all.
//   - A found record sets the replay flag, the stored resource id and the
//     rate-limit bypass flag.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		uid := userIDFromCtx(c)
		if lookup != nil && uid != "" {
			id, exists, err := lookup(c.Request.Context(), uid, c.FullPath(), key, time.Now().UTC())
			if err == nil && exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyIdemResource, id)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// userIDFromCtx returns the caller id stored by Authenticate, or "".
func userIDFromCtx(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}
