// file: internal/server/middleware/ratelimit.go
// version: 1.0.0
// guid: 9c2d5e8f-1a4b-4c7d-8e0f-2a5b8c1d4e7f

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const visitorIdleTTL = 15 * time.Minute

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter throttles requests per client IP using token buckets.
// Buckets for clients idle longer than visitorIdleTTL are dropped on
// the next lookup so the map cannot grow unbounded.
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perSecond rate.Limit
	burst     int
	lastSweep time.Time
}

func NewIPRateLimiter(requestsPerMinute int, burst int) *IPRateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		visitors:  make(map[string]*visitor),
		perSecond: rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

func (l *IPRateLimiter) allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > time.Minute {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorIdleTTL {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(l.perSecond, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.bucket.Allow()
}

// Middleware returns a Gin middleware that enforces the configured limit.
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
