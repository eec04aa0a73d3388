package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ClientLimiter keeps one token bucket per client key. Keys idle longer than
// the eviction window are dropped by Evict.
type ClientLimiter struct {
	limiters map[string]*clientBucket
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewClientLimiter(requestsPerSecond float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		limiters: make(map[string]*clientBucket),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
		now:      time.Now,
	}
}

func (l *ClientLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.limiters[key]
	if !exists {
		b = &clientBucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = b
	}
	b.lastSeen = l.now()
	return b.limiter
}

// Evict drops keys not seen within idle and returns how many went. A dropped
// key starts over with a full bucket, so idle should exceed burst/rps.
func (l *ClientLimiter) Evict(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()
	evicted := 0
	for key, b := range l.limiters {
		if b.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of tracked keys.
func (l *ClientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// RunEviction calls Evict every interval until ctx is done.
func (l *ClientLimiter) RunEviction(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Evict(idle)
		}
	}
}

func (l *ClientLimiter) Allow(key string) bool {
	return l.GetLimiter(key).Allow()
}

// RateLimit rejects requests over the client's budget with 429. A nil
// limiter disables the check.
func RateLimit(l *ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RATE_LIMITED",
				"message": "Too many requests. Please slow down.",
			},
		})
	}
}
