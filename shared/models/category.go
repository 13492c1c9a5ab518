package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/assetmarket/go-marketplace/shared/schema"
)

// Category groups a tenant's listings and declares, via its attribute schema,
// the shape every property in the group must satisfy. Names are unique within
// a tenant. The schema is mutable after properties exist; stored attribute bags
// are re-checked against the current schema only on the property's next write.
type Category struct {
	ID              uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	TenantID        string        `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_categories_tenant_name,priority:1"`
	Name            string        `json:"name" gorm:"not null;uniqueIndex:idx_categories_tenant_name,priority:2"`
	Description     string        `json:"description" gorm:"type:text"`
	AttributeSchema schema.Schema `json:"attribute_schema" gorm:"type:jsonb;serializer:json"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}
