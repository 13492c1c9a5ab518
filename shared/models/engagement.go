package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a 1-5 star rating left by a user on a property. One review per
// user per property.
type Review struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	TenantID   string    `json:"tenant_id" gorm:"not null;index"`
	PropertyID uuid.UUID `json:"property_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_property_user,priority:1"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_property_user,priority:2"`
	Username   string    `json:"username" gorm:"not null"`
	Rating     int       `json:"rating" gorm:"not null"`
	Comment    string    `json:"comment" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}

// Favorite marks a property saved by a user.
type Favorite struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	TenantID   string    `json:"tenant_id" gorm:"not null;index"`
	PropertyID uuid.UUID `json:"property_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_property,priority:2"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_property,priority:1"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// ViewingStatus is the scheduling state of a viewing request.
type ViewingStatus string

const (
	ViewingPending  ViewingStatus = "PENDING"
	ViewingApproved ViewingStatus = "APPROVED"
	ViewingDeclined ViewingStatus = "DECLINED"
)

// ViewingRequest is a user's request to visit a property at a given time.
type ViewingRequest struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	TenantID    string        `json:"tenant_id" gorm:"not null;index"`
	PropertyID  uuid.UUID     `json:"property_id" gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	RequestedAt time.Time     `json:"requested_at" gorm:"not null"`
	Status      ViewingStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	Notes       string        `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (ViewingRequest) TableName() string {
	return "viewing_requests"
}

// Message is one entry in a per-property inquiry thread between a user and the
// tenant's administrators.
type Message struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	TenantID   string    `json:"tenant_id" gorm:"not null;index"`
	PropertyID uuid.UUID `json:"property_id" gorm:"type:uuid;not null;index"`
	SenderID   uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;index"`
	Sender     string    `json:"sender" gorm:"not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
