package api

import (
	"dietflow/internal/auth"
	"dietflow/internal/config"
	"dietflow/internal/narrative"
	"dietflow/internal/tracking"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func SetupRouter(cfg *config.Config, rdb *redis.Client, tracker *tracking.Tracker, gen *narrative.Generator) *gin.Engine {
	r := gin.Default()
	subpath := cfg.Server.Subpath // e.g. "/dietflow" or any custom path, always starts with '/'

	// API routes
	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/config", configHandler(cfg))

		// Auth
		group.POST("/auth/register", RegisterHandler())
		group.POST("/auth/login", LoginHandler(cfg, rdb))
		group.POST("/auth/logout", auth.AuthMiddleware(cfg, rdb), LogoutHandler(rdb))
		group.GET("/auth/me", auth.AuthMiddleware(cfg, rdb), MeHandler())

		// --- Plans ---
		group.POST("/plans", auth.AuthMiddleware(cfg, rdb), CreatePlanHandler())
		group.GET("/plans", auth.AuthMiddleware(cfg, rdb), ListPlansHandler())
		group.GET("/plans/:id", auth.AuthMiddleware(cfg, rdb), GetPlanHandler())

		// --- Weekly check-ins and progress ---
		group.POST("/plans/:id/checkins", auth.AuthMiddleware(cfg, rdb), SubmitCheckInHandler(tracker, gen))
		group.GET("/plans/:id/progress", auth.AuthMiddleware(cfg, rdb), ProgressHistoryHandler(tracker))
		group.POST("/plans/:id/adjust", auth.AuthMiddleware(cfg, rdb), AdjustCaloriesHandler(tracker))
	}
	return r
}
