package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/assetmarket/go-marketplace/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize service clients
	serviceClients := &ServiceClients{
		AuthService:       NewServiceClient(os.Getenv("AUTH_SERVICE_URL")),
		TenantService:     NewServiceClient(os.Getenv("TENANT_SERVICE_URL")),
		CatalogService:    NewServiceClient(os.Getenv("CATALOG_SERVICE_URL")),
		EngagementService: NewServiceClient(os.Getenv("ENGAGEMENT_SERVICE_URL")),
		RedeliveryService: NewServiceClient(os.Getenv("REDELIVERY_SERVICE_URL")),
	}

	// Initialize Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Tenant-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "API Gateway is healthy", nil)
	})

	// Backend status endpoint
	router.GET("/status", func(c *gin.Context) {
		utils.OKResponse(c, "Service status", serviceClients.GetServiceStatus())
	})

	// Authentication and user management
	auth := router.Group("/auth")
	{
		auth.POST("/login", serviceClients.AuthService.ProxyRequest)
		auth.GET("/me", serviceClients.AuthService.ProxyRequest)
		auth.POST("/change-password", serviceClients.AuthService.ProxyRequest)
		auth.POST("/users", serviceClients.AuthService.ProxyRequest)
		auth.GET("/users", serviceClients.AuthService.ProxyRequest)
		auth.DELETE("/users/:id", serviceClients.AuthService.ProxyRequest)
	}

	// Tenant onboarding and self-management
	tenants := router.Group("/tenants")
	{
		tenants.POST("/onboard", serviceClients.TenantService.ProxyRequest)
		tenants.GET("/me", serviceClients.TenantService.ProxyRequest)
		tenants.PUT("/me", serviceClients.TenantService.ProxyRequest)
		tenants.DELETE("/me", serviceClients.TenantService.ProxyRequest)
	}

	// Category management
	categories := router.Group("/categories")
	{
		categories.GET("", serviceClients.CatalogService.ProxyRequest)
		categories.POST("", serviceClients.CatalogService.ProxyRequest)
		categories.GET("/:id", serviceClients.CatalogService.ProxyRequest)
		categories.PUT("/:id", serviceClients.CatalogService.ProxyRequest)
		categories.DELETE("/:id", serviceClients.CatalogService.ProxyRequest)
	}

	// Listings: the catalog owns the listing itself, engagement owns the
	// per-listing reviews, favorites, viewings and messages.
	properties := router.Group("/properties")
	{
		properties.GET("", serviceClients.CatalogService.ProxyRequest)
		properties.POST("", serviceClients.CatalogService.ProxyRequest)
		properties.GET("/:id", serviceClients.CatalogService.ProxyRequest)
		properties.PUT("/:id", serviceClients.CatalogService.ProxyRequest)
		properties.PATCH("/:id/status", serviceClients.CatalogService.ProxyRequest)
		properties.DELETE("/:id", serviceClients.CatalogService.ProxyRequest)
		properties.POST("/:id/images", serviceClients.CatalogService.ProxyRequest)

		properties.POST("/:id/reviews", serviceClients.EngagementService.ProxyRequest)
		properties.GET("/:id/reviews", serviceClients.EngagementService.ProxyRequest)
		properties.DELETE("/:id/reviews/:review_id", serviceClients.EngagementService.ProxyRequest)
		properties.POST("/:id/favorite", serviceClients.EngagementService.ProxyRequest)
		properties.DELETE("/:id/favorite", serviceClients.EngagementService.ProxyRequest)
		properties.POST("/:id/viewings", serviceClients.EngagementService.ProxyRequest)
		properties.POST("/:id/messages", serviceClients.EngagementService.ProxyRequest)
		properties.GET("/:id/messages", serviceClients.EngagementService.ProxyRequest)
	}

	// Caller-centric engagement views
	router.GET("/favorites", serviceClients.EngagementService.ProxyRequest)
	router.GET("/viewings", serviceClients.EngagementService.ProxyRequest)
	router.PATCH("/viewings/:viewing_id", serviceClients.EngagementService.ProxyRequest)

	// Redelivery statistics (monitoring)
	router.GET("/stats", serviceClients.RedeliveryService.ProxyRequest)

	// Start server
	port := os.Getenv("API_GATEWAY_PORT")
	if port == "" {
		port = "8080"
	}

	logrus.Infof("API Gateway starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start API Gateway:", err)
	}
}
