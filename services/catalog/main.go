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

	// Initialize Redis for category and claims caching
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

	// Initialize Kafka producer for listing events
	kafkaProducer, err := NewKafkaProducer(os.Getenv("KAFKA_BROKER"))
	if err != nil {
		log.Fatal("Failed to initialize Kafka producer:", err)
	}
	defer kafkaProducer.Close()

	// S3 image storage is optional; upload endpoints report unavailable when
	// the bucket is not configured.
	uploader, err := utils.NewS3Uploader()
	if err != nil {
		logrus.WithError(err).Warn("S3 uploader not configured, image uploads disabled")
	}

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Catalog service is healthy", nil)
	})

	// Category management: reads for any scoped caller, writes for admins.
	categories := router.Group("/categories")
	categories.Use(middleware.OptionalAuth(), middleware.RequireTenant())
	{
		categories.GET("", handleListCategories(st))
		categories.GET("/:id", handleGetCategory(st))
	}
	categoryAdmin := router.Group("/categories")
	categoryAdmin.Use(middleware.RequireAuth(), middleware.RequireTenant(), middleware.RequireAdmin())
	{
		categoryAdmin.POST("", handleCreateCategory(st))
		categoryAdmin.PUT("/:id", handleUpdateCategory(st))
		categoryAdmin.DELETE("/:id", handleDeleteCategory(st))
	}

	// Listings: browsing needs only a tenant scope, mutations need a login.
	properties := router.Group("/properties")
	properties.Use(middleware.OptionalAuth(), middleware.RequireTenant())
	{
		properties.GET("", handleSearchProperties(st))
		properties.GET("/:id", handleGetProperty(st))
	}
	propertyWrites := router.Group("/properties")
	propertyWrites.Use(middleware.RequireAuth(), middleware.RequireTenant())
	{
		propertyWrites.POST("", handleCreateProperty(st, kafkaProducer))
		propertyWrites.PUT("/:id", handleUpdateProperty(st, kafkaProducer))
		propertyWrites.PATCH("/:id/status", handleUpdateStatus(st, kafkaProducer))
		propertyWrites.DELETE("/:id", handleDeleteProperty(st, kafkaProducer))
		propertyWrites.POST("/:id/images", handleUploadImage(st, uploader))
	}

	// Start server
	port := os.Getenv("CATALOG_SERVICE_PORT")
	if port == "" {
		port = "8002"
	}

	logrus.Infof("Catalog service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start catalog service:", err)
	}
}
