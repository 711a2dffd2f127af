package mw

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterPool hands out one token bucket per key and forgets keys that have
// been idle for longer than idleAfter, so the map does not grow with every
// address that ever touched the API.
type limiterPool struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	r         rate.Limit
	b         int
	idleAfter time.Duration
	lastSweep time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(r rate.Limit, b int) *limiterPool {
	return &limiterPool{
		entries:   make(map[string]*limiterEntry),
		r:         r,
		b:         b,
		idleAfter: 10 * time.Minute,
	}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if now.Sub(p.lastSweep) > p.idleAfter {
		for k, e := range p.entries {
			if now.Sub(e.lastSeen) > p.idleAfter {
				delete(p.entries, k)
			}
		}
		p.lastSweep = now
	}

	e, ok := p.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(p.r, p.b)}
		p.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimiter throttles by client address. It guards the public surface
// (auth, catalog, live, watches) where no caller identity exists yet.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	pool := newLimiterPool(r, b)
	return func(c *gin.Context) {
		if !pool.get(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

// BookingRateLimiter throttles booking writes by account rather than by
// address, so one user hammering create/cancel cannot starve everyone else
// behind the same NAT. Must run after RequireAuth.
func BookingRateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	pool := newLimiterPool(r, b)
	return func(c *gin.Context) {
		if !pool.get(strconv.FormatInt(UserID(c), 10)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many booking requests"})
			return
		}
		c.Next()
	}
}
