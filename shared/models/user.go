package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole distinguishes tenant administrators from regular members.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// User represents a member of a tenant. Usernames and emails are unique within
// a tenant, not globally; two tenants may each have an "alice".
type User struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	TenantID    string     `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_users_tenant_username,priority:1"`
	Username    string     `json:"username" gorm:"not null;uniqueIndex:idx_users_tenant_username,priority:2"`
	Email       string     `json:"email" gorm:"not null"`
	Password    string     `json:"-" gorm:"not null"` // bcrypt hash, never serialized
	Role        UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID;references:Slug"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user can manage the tenant's catalog.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserInfo is the slice of user identity carried in JWT claims and the request
// context; handlers read it instead of hitting the users table per request.
type UserInfo struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     UserRole  `json:"role"`
	TenantID string    `json:"tenant_id"`
}

func (ui *UserInfo) IsAdmin() bool {
	return ui.Role == RoleAdmin
}
