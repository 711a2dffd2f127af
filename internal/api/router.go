package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"parkspot-backend/internal/metrics"
	"parkspot-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	metrics.Register()
	r.Use(mw.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rateLimiter := mw.RateLimiter(rate.Limit(h.cfg.Server.RateLimitPerSec), h.cfg.Server.RateLimitBurst)
	bookingLimiter := mw.BookingRateLimiter(rate.Limit(h.cfg.Server.BookingRateLimitPerSec), h.cfg.Server.BookingRateLimitBurst)

	cacheTTL := time.Duration(h.cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	auth := mw.RequireAuth([]byte(h.cfg.Auth.JWTSecret))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		// Public catalog; cached, free/busy is a hint refreshed by the live stream.
		api.GET("/regions", caching, h.GetRegions)
		api.GET("/regions/:region_id/areas", caching, h.GetAreas)
		api.GET("/areas/:area_id/spots", caching, h.GetSpots)
		api.GET("/spots/:spot_id/subspots", h.GetSubSpots)

		// Live stream: no auth (read-only deltas), no cache, no buffering.
		api.GET("/live", h.LiveStream)

		// Push watches.
		api.GET("/watches", h.GetWatch)
		api.PUT("/watches", h.PutWatch)
		api.DELETE("/watches", h.DeleteWatch)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		authed := api.Group("")
		authed.Use(auth)
		{
			// Writes get the tighter per-account limit; reads stay on the
			// address limit alone.
			authed.POST("/bookings", bookingLimiter, h.CreateBooking)
			authed.GET("/bookings", h.GetMyBookings)
			authed.PATCH("/bookings/:booking_id", bookingLimiter, h.EditBooking)
			authed.DELETE("/bookings/:booking_id", bookingLimiter, h.CancelBooking)
		}

		admin := api.Group("/admin")
		admin.Use(auth, mw.RequireAdmin())
		{
			admin.GET("/export/bookings.csv", h.ExportBookingsCSV)
			admin.GET("/export/bookings.xlsx", h.ExportBookingsXLSX)
		}
	}

	return r
}
