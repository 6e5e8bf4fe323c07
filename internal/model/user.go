package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// JWT "typ" claim values. Refresh tokens cannot authorize API calls.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// User stores system users with role-based access.
// Role: "admin" | "staff"
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"type:varchar(20);not null"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
