package mw

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func limitedGet(r *gin.Engine, remoteAddr, userHeader string) int {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = remoteAddr
	if userHeader != "" {
		req.Header.Set("X-User", userHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterThrottlesPerAddress(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RateLimiter(rate.Limit(1), 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, limitedGet(r, "198.51.100.1:1000", ""))
	assert.Equal(t, http.StatusOK, limitedGet(r, "198.51.100.1:1000", ""))
	assert.Equal(t, http.StatusTooManyRequests, limitedGet(r, "198.51.100.1:1000", ""))

	// A different address has its own bucket.
	assert.Equal(t, http.StatusOK, limitedGet(r, "198.51.100.2:1000", ""))
}

func TestBookingRateLimiterKeysByAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Stand-in for RequireAuth: the caller's ID arrives in a header.
	r.GET("/x", func(c *gin.Context) {
		id, _ := strconv.ParseInt(c.GetHeader("X-User"), 10, 64)
		c.Set(CtxUserID, id)
	}, BookingRateLimiter(rate.Limit(1), 1), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Same address throughout: the bucket follows the account, not the IP.
	assert.Equal(t, http.StatusOK, limitedGet(r, "198.51.100.1:1000", "1"))
	assert.Equal(t, http.StatusTooManyRequests, limitedGet(r, "198.51.100.1:1000", "1"))
	assert.Equal(t, http.StatusOK, limitedGet(r, "198.51.100.1:1000", "2"))
}

func TestLimiterPoolEvictsIdleEntries(t *testing.T) {
	pool := newLimiterPool(rate.Limit(1), 1)
	pool.idleAfter = 10 * time.Millisecond

	pool.get("stale")
	time.Sleep(30 * time.Millisecond)
	pool.get("fresh")

	pool.mu.Lock()
	defer pool.mu.Unlock()
	assert.Contains(t, pool.entries, "fresh")
	assert.NotContains(t, pool.entries, "stale")
}
