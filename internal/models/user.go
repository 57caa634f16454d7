package models

import (
	"encoding/json"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStatus is the stored review state of an account.
type UserStatus string

const (
	StatusPending  UserStatus = "pending"
	StatusApproved UserStatus = "approved"
	StatusRejected UserStatus = "rejected"
)

// Valid reports whether s is one of the three stored statuses.
func (s UserStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// User is an account row: credentials plus the profile fields an
// administrator reviews. AccessExpiresAt is meaningful only while
// Status is approved; nil means the grant never expires.
type User struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	Username        string     `json:"username,omitempty"`
	HashedPassword  string     `json:"-" gorm:"column:hashed_password"`
	Role            string     `json:"role" gorm:"default:user"`
	Status          UserStatus `json:"status" gorm:"default:pending"`
	AccessExpiresAt *time.Time `json:"accessExpiresAt" gorm:"column:access_expires_at"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a server-generated identity.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdmin reports whether the account carries the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// Claims for JWT authentication
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}

// SessionResponse reports the caller's profile (when one exists) and
// the access state resolved for it. Also pushed as the profile topic's
// snapshot content.
type SessionResponse struct {
	User        *User  `json:"user,omitempty"`
	AccessState string `json:"accessState"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// UserStatusUpdate is the admin-side mutation of a profile's review
// state. AccessExpiresAt is kept raw so the service can distinguish
// an absent key (leave unchanged) from an explicit null (clear).
type UserStatusUpdate struct {
	Status          *UserStatus     `json:"status"`
	AccessExpiresAt json.RawMessage `json:"accessExpiresAt"`
}
