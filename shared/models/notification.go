package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification delivery states for FailedNotification.Status.
const (
	NotificationPending           = "pending"
	NotificationResolved          = "resolved"
	NotificationPermanentlyFailed = "permanently_failed"
)

// FailedNotification is a listing event whose webhook delivery failed, parked
// for the redelivery service. Payload keeps the original event JSON so a retry
// sends exactly what the first attempt did.
type FailedNotification struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	EventID      uuid.UUID  `json:"event_id" gorm:"type:uuid;not null;index"`
	TenantID     string     `json:"tenant_id" gorm:"not null;index"`
	EventType    string     `json:"event_type" gorm:"not null"`
	Payload      string     `json:"payload" gorm:"type:text;not null"`
	ErrorMessage string     `json:"error_message" gorm:"not null"`
	RetryCount   int        `json:"retry_count" gorm:"default:0"`
	Status       string     `json:"status" gorm:"default:'pending';index"`
	NextRetryAt  *time.Time `json:"next_retry_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

func (FailedNotification) TableName() string {
	return "failed_notifications"
}
