package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/pocketbreak/backend/internal/api/handlers"
	"github.com/pocketbreak/backend/internal/config"
	"github.com/pocketbreak/backend/internal/ws"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", handlers.HealthCheck)

		// Auth endpoints
		auth := v1.Group("/auth")
		{
			auth.POST("/set-pin", handlers.SetPIN(db))
			auth.POST("/login", handlers.LoginWithPIN(db, cfg))
		}

		// Matchmaking endpoints
		queue := v1.Group("/queue")
		{
			queue.POST("/join", handlers.JoinQueue())
			queue.POST("/leave", handlers.LeaveQueue())
			queue.GET("/status", handlers.CheckQueueStatus())
		}

		// Match endpoints
		match := v1.Group("/match")
		{
			match.POST("/test", handlers.CreateTestMatch(cfg)) // Dev only
			match.GET("/:token", handlers.GetMatchState())
			match.GET("/:token/ws", func(c *gin.Context) { ws.HandleWebSocket(c) })
		}

		// Player endpoints
		player := v1.Group("/player")
		{
			player.GET("/:handle", handlers.GetPlayerProfile(db))
			player.PUT("/:handle/display-name", handlers.UpdateDisplayName(db))
		}
	}
}
