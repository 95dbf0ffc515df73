package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"splitledger/ledger"
)

type Group struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string        `gorm:"not null;size:100" json:"name"`
	Members   []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// GroupMember keeps the submitted member order in Position.
type GroupMember struct {
	GroupID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"groupId"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`
	Position int       `gorm:"not null" json:"position"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// ToLedger expects Members to be loaded in position order.
func (g *Group) ToLedger() ledger.Group {
	ids := make([]uuid.UUID, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ledger.Group{ID: g.ID, Name: g.Name, MemberIDs: ids}
}

// Request structs
type CreateGroupRequest struct {
	Name      string      `json:"name" binding:"required"`
	MemberIDs []uuid.UUID `json:"memberIds"`
}

// Response structs
type GroupResponse struct {
	ID        uuid.UUID             `json:"id"`
	Name      string                `json:"name"`
	MemberIDs []uuid.UUID           `json:"memberIds"`
	Members   []GroupMemberResponse `json:"members"`
}

type GroupMemberResponse struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
}
