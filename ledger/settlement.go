package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// SettlementProcessor validates payments between users and appends them.
//
// A settlement larger than what the payer currently owes is accepted as-is:
// the excess reverses the pair, so the payee then owes the payer. Nothing is
// clamped or rejected on that basis.
type SettlementProcessor struct {
	ledger *Ledger
	dir    Directory
}

func NewSettlementProcessor(l *Ledger, dir Directory) *SettlementProcessor {
	return &SettlementProcessor{ledger: l, dir: dir}
}

// RecordSettlement records that from paid to the given amount and returns
// the stored event.
func (p *SettlementProcessor) RecordSettlement(ctx context.Context, from, to uuid.UUID, amount Amount, note string) (Event, error) {
	if from == to {
		return Event{}, invalid(ReasonSameParty, "toUserId", "a user cannot settle with themselves")
	}
	if amount <= 0 {
		return Event{}, invalid(ReasonNonPositiveAmount, "amount", "amount must be greater than zero, got %s", amount)
	}
	if !amount.inRange() {
		return Event{}, tooLarge("amount", amount.String())
	}
	if _, err := p.dir.User(ctx, from); err != nil {
		return Event{}, err
	}
	if _, err := p.dir.User(ctx, to); err != nil {
		return Event{}, err
	}

	return p.ledger.Append(ctx, SettlementEvent(Settlement{
		ID:         uuid.New(),
		FromUserID: from,
		ToUserID:   to,
		Amount:     amount,
		Note:       strings.TrimSpace(note),
	}))
}
