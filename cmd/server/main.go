package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pocketbreak/backend/internal/api"
	"github.com/pocketbreak/backend/internal/config"
	"github.com/pocketbreak/backend/internal/database"
	"github.com/pocketbreak/backend/internal/game"
	"github.com/pocketbreak/backend/internal/middleware"
	"github.com/pocketbreak/backend/internal/migrations"
	"github.com/pocketbreak/backend/internal/redis"
	"github.com/pocketbreak/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Initialize Match Manager with Redis and config
	game.InitializeManager(db, rdb, cfg)

	// Wire Redis into the WS layer and start the cross-node event subscriber
	ws.SetRedisClient(rdb, cfg)
	ws.StartMatchEventSubscriber(context.Background())

	// Start match expiry worker
	game.Manager.StartExpiryChecker(context.Background())

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.WebSocketCORSCheck(cfg))

	// Initialize API handlers
	api.SetupRoutes(router, db, rdb, cfg)

	// Start server
	log.Printf("Server starting on port %s (env=%s)", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
