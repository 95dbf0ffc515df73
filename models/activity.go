package models

import (
	"time"

	"github.com/google/uuid"

	"splitledger/ledger"
)

// Activity is a feed entry derived from one ledger event.
type Activity struct {
	Seq         uint64        `json:"seq"`
	Type        string        `json:"type"` // expense_added, settlement
	ReferenceID uuid.UUID     `json:"referenceId"`
	GroupID     *uuid.UUID    `json:"groupId,omitempty"`
	GroupName   string        `json:"groupName,omitempty"`
	UserID      uuid.UUID     `json:"userId"`
	UserName    string        `json:"userName"`
	Amount      ledger.Amount `json:"amount"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
}
