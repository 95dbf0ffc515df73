package models

import (
	"github.com/google/uuid"

	"splitledger/ledger"
)

// UserBalanceSummary is returned for GET /api/users/:id/balances
type UserBalanceSummary struct {
	ledger.Summary
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// GroupBalanceSummary is returned for GET /api/groups/:id/balances
type GroupBalanceSummary struct {
	GroupID    uuid.UUID     `json:"groupId"`
	GroupName  string        `json:"groupName"`
	Simplified bool          `json:"simplified"`
	Balances   []ledger.Debt `json:"balances"`
	TotalSpent ledger.Amount `json:"totalSpent"`
	Currency   string        `json:"currency"`
}

// OverallBalanceSummary is returned for GET /api/balances
type OverallBalanceSummary struct {
	Balances []ledger.Debt `json:"balances"`
	Currency string        `json:"currency"`
}
