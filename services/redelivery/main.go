package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/assetmarket/go-marketplace/shared/config"
	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/utils"
)

// Redeliverer retries parked listing-event notifications with exponential
// backoff until they deliver or run out of attempts.
type Redeliverer struct {
	db            *gorm.DB
	webhookURL    string
	httpClient    *http.Client
	maxRetries    int
	batchSize     int
	checkInterval time.Duration
}

// NewRedeliverer wires the redeliverer against the shared database.
func NewRedeliverer(db *gorm.DB) *Redeliverer {
	webhookURL := os.Getenv("CHATBOT_WEBHOOK_URL")

	return &Redeliverer{
		db:         db,
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries:    8,
		batchSize:     100,
		checkInterval: 30 * time.Second,
	}
}

// ProcessFailedNotifications polls for due deliveries and retries them.
func (rd *Redeliverer) ProcessFailedNotifications() {
	logrus.Info("Starting redelivery loop")

	for {
		var failed []models.FailedNotification
		err := rd.db.Where("status = ? AND next_retry_at <= ?", models.NotificationPending, time.Now()).
			Order("next_retry_at ASC").
			Limit(rd.batchSize).
			Find(&failed).Error

		if err != nil {
			logrus.WithError(err).Error("Error fetching failed notifications")
			time.Sleep(rd.checkInterval)
			continue
		}

		if len(failed) == 0 {
			time.Sleep(rd.checkInterval)
			continue
		}

		logrus.Infof("Retrying %d failed notifications", len(failed))
		for _, notification := range failed {
			if err := rd.retry(notification); err != nil {
				logrus.WithError(err).Errorf("Failed to retry notification %s", notification.ID)
			}
		}

		time.Sleep(rd.checkInterval)
	}
}

// retry resends one parked notification and updates its delivery state.
func (rd *Redeliverer) retry(notification models.FailedNotification) error {
	if err := rd.send(notification); err != nil {
		return rd.recordFailure(notification, err)
	}
	return rd.markResolved(notification)
}

// send posts the stored payload exactly as the notifier first sent it.
func (rd *Redeliverer) send(notification models.FailedNotification) error {
	var event map[string]interface{}
	if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
		return fmt.Errorf("stored payload is not valid JSON: %w", err)
	}

	payload := map[string]interface{}{
		"event_type": notification.EventType,
		"data":       event,
		"timestamp":  time.Now(),
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, rd.webhookURL+"/notify", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", notification.TenantID)

	resp, err := rd.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// recordFailure bumps the retry count and schedules the next attempt with
// exponential backoff: 1m, 2m, 4m, up to the retry cap.
func (rd *Redeliverer) recordFailure(notification models.FailedNotification, cause error) error {
	notification.RetryCount++
	notification.UpdatedAt = time.Now()

	if notification.RetryCount >= rd.maxRetries {
		now := time.Now()
		notification.Status = models.NotificationPermanentlyFailed
		notification.ResolvedAt = &now
		notification.ErrorMessage = fmt.Sprintf("Max retries reached: %s", cause.Error())
	} else {
		baseDelay := 1 * time.Minute
		delay := baseDelay * time.Duration(1<<(notification.RetryCount-1))
		nextRetryAt := time.Now().Add(delay)
		notification.NextRetryAt = &nextRetryAt
		notification.ErrorMessage = cause.Error()
	}

	return rd.db.Save(&notification).Error
}

func (rd *Redeliverer) markResolved(notification models.FailedNotification) error {
	now := time.Now()
	notification.Status = models.NotificationResolved
	notification.UpdatedAt = now
	notification.ResolvedAt = &now

	return rd.db.Save(&notification).Error
}

// Stats summarizes delivery states for the monitoring endpoint.
func (rd *Redeliverer) Stats() map[string]interface{} {
	var stats struct {
		Pending           int64 `json:"pending"`
		Resolved          int64 `json:"resolved"`
		PermanentlyFailed int64 `json:"permanently_failed"`
	}

	rd.db.Model(&models.FailedNotification{}).Where("status = ?", models.NotificationPending).Count(&stats.Pending)
	rd.db.Model(&models.FailedNotification{}).Where("status = ?", models.NotificationResolved).Count(&stats.Resolved)
	rd.db.Model(&models.FailedNotification{}).Where("status = ?", models.NotificationPermanentlyFailed).Count(&stats.PermanentlyFailed)

	return map[string]interface{}{
		"delivery_stats": stats,
		"config": map[string]interface{}{
			"max_retries":    rd.maxRetries,
			"batch_size":     rd.batchSize,
			"check_interval": rd.checkInterval.String(),
		},
	}
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize database
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := config.MigrateAll(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	redeliverer := NewRedeliverer(db)

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Redelivery service is healthy", nil)
	})

	// Redelivery statistics endpoint
	router.GET("/stats", func(c *gin.Context) {
		utils.OKResponse(c, "Redelivery stats", redeliverer.Stats())
	})

	// Start redelivery loop in background
	go redeliverer.ProcessFailedNotifications()

	// Start server
	port := os.Getenv("REDELIVERY_SERVICE_PORT")
	if port == "" {
		port = "8005"
	}

	logrus.Infof("Redelivery service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start redelivery service:", err)
	}
}
