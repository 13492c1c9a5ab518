package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const listingTopic = "listing-events"

// ListingEvent is the message published for every catalog mutation.
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

// KafkaProducer publishes listing events through a worker pool so handlers
// never block on the broker.
type KafkaProducer struct {
	writer       *kafka.Writer
	eventChan    chan ListingEvent
	workerCount  int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

// NewKafkaProducer creates a producer with its worker pool already running.
func NewKafkaProducer(broker string) (*KafkaProducer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	kp := &KafkaProducer{
		writer:       writer,
		eventChan:    make(chan ListingEvent, 1000),
		workerCount:  10,
		shutdownChan: make(chan struct{}),
	}
	kp.startWorkers()

	return kp, nil
}

func (kp *KafkaProducer) startWorkers() {
	for i := 0; i < kp.workerCount; i++ {
		kp.wg.Add(1)
		go kp.eventWorker(i)
	}
	logrus.Infof("[Kafka] Started %d listing event workers", kp.workerCount)
}

func (kp *KafkaProducer) eventWorker(id int) {
	defer kp.wg.Done()

	for {
		select {
		case event := <-kp.eventChan:
			if err := kp.sendListingEventSync(event); err != nil {
				logrus.WithError(err).Errorf("[Kafka Worker %d] Failed to send listing event", id)
			}
		case <-kp.shutdownChan:
			return
		}
	}
}

// SendListingEvent queues a listing event without blocking. Events are dropped
// when the queue is full.
func (kp *KafkaProducer) SendListingEvent(event ListingEvent) error {
	select {
	case kp.eventChan <- event:
		return nil
	default:
		return fmt.Errorf("listing event queue full, event dropped")
	}
}

func (kp *KafkaProducer) sendListingEventSync(event ListingEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal listing event: %w", err)
	}

	// Keyed by tenant so one tenant's events stay ordered within a partition.
	msg := kafka.Message{
		Topic: listingTopic,
		Key:   []byte(event.TenantID),
		Value: message,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write listing event to Kafka: %w", err)
	}
	return nil
}

// Close drains the worker pool and closes the writer.
func (kp *KafkaProducer) Close() error {
	close(kp.shutdownChan)
	kp.wg.Wait()
	close(kp.eventChan)

	if err := kp.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	logrus.Info("[Kafka] Producer shut down")
	return nil
}
