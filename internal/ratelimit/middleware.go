package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"social-service/internal/observability"
)

const maxUserAgentBytes = 32

// SubjectFor identifies the caller for rate-limiting: the authenticated user
// id when present, otherwise a fingerprint of client IP and a truncated
// user-agent.
func SubjectFor(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int64); ok {
			return "user:" + strconv.FormatInt(id, 10)
		}
	}

	ua := c.Request.UserAgent()
	if len(ua) > maxUserAgentBytes {
		ua = ua[:maxUserAgentBytes]
	}
	sum := sha256.Sum256([]byte(c.ClientIP() + "|" + ua))
	return "anon:" + hex.EncodeToString(sum[:8])
}

// Middleware guards a route group with the governor. The rate headers are
// set on every response; Retry-After only on denial.
func Middleware(g *Governor, routeKey string, window time.Duration, capacity int) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := g.Check(routeKey, SubjectFor(c), window, capacity)

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(decision.RetryAfterSeconds))
			observability.IncRateLimited(routeKey)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
