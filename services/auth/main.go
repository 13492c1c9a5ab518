package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/assetmarket/go-marketplace/shared/config"
	"github.com/assetmarket/go-marketplace/shared/middleware"
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

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Auth service is healthy", nil)
	})

	auth := router.Group("/auth")
	{
		// Login resolves its tenant from the X-Tenant-ID header.
		auth.POST("/login", middleware.RequireTenant(), handleLogin(db))

		authenticated := auth.Group("")
		authenticated.Use(middleware.RequireAuth())
		{
			authenticated.GET("/me", handleMe())
			authenticated.POST("/change-password", handleChangePassword(db))
		}

		admin := auth.Group("/users")
		admin.Use(middleware.RequireAuth(), middleware.RequireAdmin())
		{
			admin.POST("", handleRegister(db))
			admin.GET("", handleListUsers(db))
			admin.DELETE("/:id", handleDeleteUser(db))
		}
	}

	// Start server
	port := os.Getenv("AUTH_SERVICE_PORT")
	if port == "" {
		port = "8001"
	}

	logrus.Infof("Auth service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start auth service:", err)
	}
}
