package models

import (
	"time"

	"github.com/google/uuid"

	"splitledger/ledger"
)

// Request structs
type CreateExpenseRequest struct {
	GroupID     uuid.UUID        `json:"groupId" binding:"required"`
	Amount      ledger.Amount    `json:"amount"`
	Description string           `json:"description"`
	PaidBy      uuid.UUID        `json:"paidBy" binding:"required"`
	SplitType   ledger.SplitType `json:"splitType" binding:"required"`
	Splits      []ledger.Split   `json:"splits"` // optional for EQUAL: defaults to every member
}

func (r CreateExpenseRequest) ToLedger() ledger.NewExpense {
	return ledger.NewExpense{
		GroupID:     r.GroupID,
		Amount:      r.Amount,
		Description: r.Description,
		PaidBy:      r.PaidBy,
		SplitType:   r.SplitType,
		Splits:      r.Splits,
	}
}

// Response
type ExpenseResponse struct {
	ledger.Expense
	Seq       uint64          `json:"seq"`
	PayerName string          `json:"payerName"`
	Currency  string          `json:"currency"`
	Shares    []ShareResponse `json:"shares"`
	CreatedAt time.Time       `json:"createdAt"`
}

type ShareResponse struct {
	UserID   uuid.UUID     `json:"userId"`
	UserName string        `json:"userName"`
	Amount   ledger.Amount `json:"amount"`
}
