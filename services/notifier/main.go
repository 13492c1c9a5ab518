package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/assetmarket/go-marketplace/shared/config"
	"github.com/assetmarket/go-marketplace/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize database connection for the failed-delivery table
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	if err := config.MigrateAll(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize Kafka consumer
	kafkaConsumer, err := NewKafkaConsumer(os.Getenv("KAFKA_BROKER"), db)
	if err != nil {
		log.Fatal("Failed to initialize Kafka consumer:", err)
	}
	defer kafkaConsumer.Close()

	// Initialize chat-bot webhook client
	webhook := NewWebhookClient(os.Getenv("CHATBOT_WEBHOOK_URL"))

	// Start consuming listing events
	go kafkaConsumer.ConsumeListingEvents(webhook)

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Notifier service is healthy", nil)
	})

	// Delivery health for monitoring
	router.GET("/notifier/status", func(c *gin.Context) {
		utils.OKResponse(c, "Notifier status", webhook.Status())
	})

	// Start server
	port := os.Getenv("NOTIFIER_SERVICE_PORT")
	if port == "" {
		port = "8004"
	}

	logrus.Infof("Notifier service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start notifier service:", err)
	}
}
