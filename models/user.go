package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"splitledger/ledger"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	FCMToken  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) ToLedger() ledger.User {
	return ledger.User{ID: u.ID, Name: u.Name, Email: u.Email, PushToken: u.FCMToken}
}

// Request structs
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

type PushTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// Response struct (what we return to clients)
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func NewUserResponse(u ledger.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}
