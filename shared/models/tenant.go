package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant represents an isolated organization on the platform. Every other row
// in the system carries the tenant's slug as its partition key; the slug is
// opaque, unique and immutable after onboarding.
type Tenant struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	Slug      string         `json:"slug" gorm:"uniqueIndex;not null"`
	Name      string         `json:"name" gorm:"uniqueIndex;not null"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	Users []User `json:"users,omitempty" gorm:"foreignKey:TenantID;references:Slug"`
}

func (Tenant) TableName() string {
	return "tenants"
}
