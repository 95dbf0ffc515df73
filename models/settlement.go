package models

import (
	"time"

	"github.com/google/uuid"

	"splitledger/ledger"
)

type CreateSettlementRequest struct {
	FromUserID uuid.UUID     `json:"fromUserId" binding:"required"`
	ToUserID   uuid.UUID     `json:"toUserId" binding:"required"`
	Amount     ledger.Amount `json:"amount"`
	Note       string        `json:"note"`
}

type SettlementResponse struct {
	ledger.Settlement
	Seq       uint64    `json:"seq"`
	FromName  string    `json:"fromName"`
	ToName    string    `json:"toName"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}
