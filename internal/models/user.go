package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is a participant, voter or admin. Users are created on first sign-in
// or first submission; there are no local passwords.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string         `gorm:"size:200" json:"name"`
	Image     string         `gorm:"size:500" json:"image"`
	Role      string         `gorm:"size:20;default:USER;not null" json:"role"`
	Provider  string         `gorm:"size:20" json:"provider"` // google, github, email
	IsActive  bool           `gorm:"default:true" json:"isActive"`
	LastLogin *time.Time     `json:"lastLogin"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
