package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyStatus is the listing lifecycle state.
type PropertyStatus string

const (
	StatusAvailable PropertyStatus = "AVAILABLE"
	StatusPending   PropertyStatus = "PENDING"
	StatusSold      PropertyStatus = "SOLD"
)

// Valid reports whether s is a known status.
func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusPending, StatusSold:
		return true
	}
	return false
}

// Property is a tenant's listing. The attribute bag is dynamically shaped:
// its keys must be a subset of the owning category's current schema, with all
// required fields present and every value matching its declared type. That
// invariant is enforced at write time only; schema edits never rewrite bags
// already stored.
type Property struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	TenantID    string         `json:"tenant_id" gorm:"not null;index"`
	CategoryID  uuid.UUID      `json:"category_id" gorm:"type:uuid;not null;index"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"not null"`
	Location    string         `json:"location" gorm:"not null"`
	Status      PropertyStatus `json:"status" gorm:"type:varchar(20);not null;default:'AVAILABLE'"`
	ImageURLs   []string       `json:"image_urls" gorm:"type:jsonb;serializer:json"`
	Attributes  map[string]any `json:"attributes" gorm:"type:jsonb;serializer:json"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (Property) TableName() string {
	return "properties"
}
