package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/assetmarket/go-marketplace/shared/models"
)

// ListingEvent mirrors the message the catalog service publishes.
type ListingEvent struct {
	ID         uuid.UUID `json:"id"`
	TenantID   string    `json:"tenant_id"`
	PropertyID uuid.UUID `json:"property_id"`
	CategoryID uuid.UUID `json:"category_id"`
	Title      string    `json:"title"`
	Price      float64   `json:"price"`
	Status     string    `json:"status"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
}

// KafkaConsumer reads listing events and hands them to the webhook client.
type KafkaConsumer struct {
	reader *kafka.Reader
	db     *gorm.DB
}

// NewKafkaConsumer creates a consumer in the notifier's consumer group.
func NewKafkaConsumer(broker string, db *gorm.DB) (*KafkaConsumer, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          "listing-events",
		GroupID:        "notifier-service",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &KafkaConsumer{reader: reader, db: db}, nil
}

// ConsumeListingEvents forwards each event to the webhook. Failed deliveries
// are parked in failed_notifications for the redelivery service; the event is
// never dropped silently.
func (kc *KafkaConsumer) ConsumeListingEvents(webhook *WebhookClient) {
	logrus.Info("Starting listing events consumer")

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		msg, err := kc.reader.ReadMessage(ctx)
		cancel()

		if err != nil {
			if err == context.DeadlineExceeded {
				continue
			}
			logrus.WithError(err).Error("Error reading listing event")
			time.Sleep(1 * time.Second)
			continue
		}

		var event ListingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logrus.WithError(err).Error("Error unmarshaling listing event")
			continue
		}

		if err := webhook.SendListingEvent(event); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event_id":  event.ID,
				"tenant_id": event.TenantID,
			}).Warn("Webhook delivery failed, parking event for redelivery")
			if dlqErr := kc.parkFailedDelivery(msg.Value, event, err); dlqErr != nil {
				logrus.WithError(dlqErr).Error("Failed to park undelivered event")
			}
		}
	}
}

// parkFailedDelivery stores the undelivered event with its first retry a
// minute out.
func (kc *KafkaConsumer) parkFailedDelivery(raw []byte, event ListingEvent, cause error) error {
	nextRetryAt := time.Now().Add(1 * time.Minute)

	failed := models.FailedNotification{
		ID:           uuid.New(),
		EventID:      event.ID,
		TenantID:     event.TenantID,
		EventType:    event.EventType,
		Payload:      string(raw),
		ErrorMessage: cause.Error(),
		Status:       models.NotificationPending,
		NextRetryAt:  &nextRetryAt,
	}
	return kc.db.Create(&failed).Error
}

// Close closes the Kafka reader.
func (kc *KafkaConsumer) Close() error {
	if err := kc.reader.Close(); err != nil {
		return fmt.Errorf("failed to close listing events reader: %w", err)
	}
	return nil
}
