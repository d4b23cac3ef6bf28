package httpserver

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// RateLimit caps chat turns per identity. A zero PerMinute turns it off.
type RateLimit struct {
	PerMinute float64
	Burst     int
	// Tracked bounds how many identities keep a limiter at once.
	Tracked int
}

const limiterIdleTTL = 10 * time.Minute

type turnLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
}

func newTurnLimiter(cfg RateLimit) *turnLimiter {
	if cfg.PerMinute <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	tracked := cfg.Tracked
	if tracked < 1 {
		tracked = 10000
	}
	return &turnLimiter{
		limit:    rate.Limit(cfg.PerMinute / 60),
		burst:    burst,
		limiters: expirable.NewLRU[string, *rate.Limiter](tracked, nil, limiterIdleTTL),
	}
}

func (l *turnLimiter) reserve(key string) (bool, time.Duration) {
	l.mu.Lock()
	lim, ok := l.limiters.Get(key)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(key, lim)
	}
	l.mu.Unlock()

	r := lim.Reserve()
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return false, d
	}
	return true, 0
}

// rateLimitMiddleware must run after identityMiddleware.
func rateLimitMiddleware(l *turnLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, wait := l.reserve(userFrom(c).ID)
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited", "message": "Too many messages. Please slow down."})
			return
		}
		c.Next()
	}
}
