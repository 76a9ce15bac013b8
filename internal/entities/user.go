package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleCustomer UserRole = "customer"
)

// User is a local account. UID is the stable identity used as the key under
// carts/{uid} and purchases/{uid} in the remote store; it is assigned at
// creation and never changes, so renaming a user cannot orphan entitlements.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UID          string         `gorm:"uniqueIndex;size:64" json:"uid"`
	Username     string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         UserRole       `gorm:"size:20;default:'customer'" json:"role"`
	APITokenHash string         `gorm:"index;size:64" json:"-"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
