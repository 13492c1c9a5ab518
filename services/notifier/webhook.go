package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/assetmarket/go-marketplace/shared/utils"
)

// WebhookClient forwards listing events to the tenant-facing chat bot. A
// circuit breaker keeps a dead endpoint from tying up the consumer loop.
type WebhookClient struct {
	endpoint    string
	httpClient  *http.Client
	breaker     *utils.CircuitBreaker
	lastSuccess time.Time
	lastError   error
	mutex       sync.RWMutex
}

// NewWebhookClient creates a webhook client for the given endpoint.
func NewWebhookClient(endpoint string) *WebhookClient {
	return &WebhookClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: utils.NewCircuitBreaker(5, 30*time.Second),
	}
}

// SendListingEvent posts one listing event to the chat-bot webhook.
func (c *WebhookClient) SendListingEvent(event ListingEvent) error {
	err := c.breaker.Call(func() error {
		return c.post(event)
	})

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err != nil {
		c.lastError = err
		return err
	}
	c.lastSuccess = time.Now()
	c.lastError = nil
	return nil
}

func (c *WebhookClient) post(event ListingEvent) error {
	payload := map[string]interface{}{
		"event_type": event.EventType,
		"data":       event,
		"timestamp":  time.Now(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal listing event: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint+"/notify", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", event.TenantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send listing event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Status exposes delivery health for the monitoring endpoint.
func (c *WebhookClient) Status() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	status := map[string]interface{}{
		"endpoint":      c.endpoint,
		"circuit_state": string(c.breaker.State()),
		"last_success":  c.lastSuccess,
	}
	if c.lastError != nil {
		status["last_error"] = c.lastError.Error()
	}
	return status
}
