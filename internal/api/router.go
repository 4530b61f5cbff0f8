package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/u1kamal/petpulse-backend/config"
	"github.com/u1kamal/petpulse-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	// The mobile app is served from a different origin.
	r.Use(cors.Default())

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	limited := r.Group("/")
	limited.Use(rateLimiter)
	{
		limited.POST("/feed", h.PostFeed)
		limited.POST("/water", h.PostWater)
		limited.GET("/device/:device_id/status", h.GetDeviceStatus)
		limited.POST("/device/:device_id/refill", h.PostRefill)

		limited.GET("/history", h.GetHistory)
		limited.GET("/analytics/weekly", caching, h.GetWeeklyAnalytics)

		limited.GET("/schedules", h.GetSchedules)
		limited.POST("/schedules", h.PostSchedule)
		limited.DELETE("/schedules/:id", h.DeleteSchedule)

		limited.GET("/api/subscriptions", h.GetSubscription)
		limited.PUT("/api/subscriptions", h.PutSubscription)
		limited.DELETE("/api/subscriptions", h.DeleteSubscription)
		limited.GET("/api/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
