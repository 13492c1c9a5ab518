package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/assetmarket/go-marketplace/shared/config"
	"github.com/assetmarket/go-marketplace/shared/middleware"
	"github.com/assetmarket/go-marketplace/shared/store"
	"github.com/assetmarket/go-marketplace/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize Redis for token claims caching
	if err := utils.InitRedis(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer utils.CloseRedis()

	// Initialize database
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := config.MigrateAll(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	st := store.New(db)

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Engagement service is healthy", nil)
	})

	// Every engagement route needs a logged-in, tenant-scoped caller.
	properties := router.Group("/properties")
	properties.Use(middleware.RequireAuth(), middleware.RequireTenant())
	{
		properties.POST("/:id/reviews", handleCreateReview(db, st))
		properties.GET("/:id/reviews", handleListReviews(db, st))
		properties.DELETE("/:id/reviews/:review_id", handleDeleteReview(db))

		properties.POST("/:id/favorite", handleAddFavorite(db, st))
		properties.DELETE("/:id/favorite", handleRemoveFavorite(db))

		properties.POST("/:id/viewings", handleCreateViewing(db, st))

		properties.POST("/:id/messages", handlePostMessage(db, st))
		properties.GET("/:id/messages", handleListMessages(db, st))
	}

	me := router.Group("")
	me.Use(middleware.RequireAuth(), middleware.RequireTenant())
	{
		me.GET("/favorites", handleListFavorites(db))
		me.GET("/viewings", handleListViewings(db))
	}

	viewingAdmin := router.Group("/viewings")
	viewingAdmin.Use(middleware.RequireAuth(), middleware.RequireTenant(), middleware.RequireAdmin())
	{
		viewingAdmin.PATCH("/:viewing_id", handleDecideViewing(db))
	}

	// Start server
	port := os.Getenv("ENGAGEMENT_SERVICE_PORT")
	if port == "" {
		port = "8003"
	}

	logrus.Infof("Engagement service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start engagement service:", err)
	}
}
