package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// NewExpense is an expense as submitted by a caller.
type NewExpense struct {
	GroupID     uuid.UUID
	Amount      Amount
	Description string
	PaidBy      uuid.UUID
	SplitType   SplitType
	Splits      []Split
}

// ExpenseProcessor validates submitted expenses against their group and
// appends them to the ledger.
type ExpenseProcessor struct {
	ledger *Ledger
	dir    Directory
}

func NewExpenseProcessor(l *Ledger, dir Directory) *ExpenseProcessor {
	return &ExpenseProcessor{ledger: l, dir: dir}
}

// RecordExpense checks that the payer and every participant belong to the
// group, normalizes the split and appends the expense. An EQUAL expense
// submitted without splits is shared by every group member. The stored event
// is returned with its sequence number and timestamp.
func (p *ExpenseProcessor) RecordExpense(ctx context.Context, in NewExpense) (Event, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return Event{}, invalid(ReasonEmptyDescription, "description", "description is required")
	}

	g, err := p.dir.Group(ctx, in.GroupID)
	if err != nil {
		return Event{}, err
	}
	if !g.HasMember(in.PaidBy) {
		return Event{}, invalid(ReasonNotAMember, "paidBy", "payer %s is not a member of group %q", in.PaidBy, g.Name)
	}

	splits := in.Splits
	if len(splits) == 0 && in.SplitType == SplitEqual {
		splits = make([]Split, len(g.MemberIDs))
		for i, id := range g.MemberIDs {
			splits[i] = Split{UserID: id}
		}
	}

	shares, err := ValidateSplit(in.Amount, in.SplitType, splits, g.MemberIDs)
	if err != nil {
		return Event{}, err
	}

	return p.ledger.Append(ctx, ExpenseEvent(Expense{
		ID:          uuid.New(),
		GroupID:     g.ID,
		Amount:      in.Amount,
		Description: desc,
		PaidBy:      in.PaidBy,
		SplitType:   in.SplitType,
		Splits:      splits,
		Shares:      shares,
	}))
}
