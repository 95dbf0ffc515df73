package ledger

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	KindExpense    EventKind = "expense"
	KindSettlement EventKind = "settlement"
)

// Expense is an immutable record of a shared cost. Splits hold the input as
// submitted; Shares hold the normalized allocation that balances derive from.
type Expense struct {
	ID          uuid.UUID `json:"id"`
	GroupID     uuid.UUID `json:"groupId"`
	Amount      Amount    `json:"amount"`
	Description string    `json:"description"`
	PaidBy      uuid.UUID `json:"paidBy"`
	SplitType   SplitType `json:"splitType"`
	Splits      []Split   `json:"splits"`
	Shares      []Share   `json:"shares"`
}

// Settlement is a real-world payment reducing what FromUserID owes ToUserID.
type Settlement struct {
	ID         uuid.UUID `json:"id"`
	FromUserID uuid.UUID `json:"fromUserId"`
	ToUserID   uuid.UUID `json:"toUserId"`
	Amount     Amount    `json:"amount"`
	Note       string    `json:"note,omitempty"`
}

// Event is one entry of the ledger. Exactly one of Expense and Settlement is
// set, matching Kind. Seq and RecordedAt are assigned on append.
type Event struct {
	Seq        uint64      `json:"seq"`
	Kind       EventKind   `json:"kind"`
	RecordedAt time.Time   `json:"recordedAt"`
	Expense    *Expense    `json:"expense,omitempty"`
	Settlement *Settlement `json:"settlement,omitempty"`
}

func ExpenseEvent(e Expense) Event {
	return Event{Kind: KindExpense, Expense: &e}
}

func SettlementEvent(s Settlement) Event {
	return Event{Kind: KindSettlement, Settlement: &s}
}

// ID returns the id of the expense or settlement carried by the event.
func (e Event) ID() uuid.UUID {
	switch {
	case e.Expense != nil:
		return e.Expense.ID
	case e.Settlement != nil:
		return e.Settlement.ID
	}
	return uuid.Nil
}

// Involves reports whether userID pays, owes or receives anything in e.
func (e Event) Involves(userID uuid.UUID) bool {
	switch e.Kind {
	case KindExpense:
		if e.Expense.PaidBy == userID {
			return true
		}
		for _, s := range e.Expense.Shares {
			if s.UserID == userID {
				return true
			}
		}
	case KindSettlement:
		return e.Settlement.FromUserID == userID || e.Settlement.ToUserID == userID
	}
	return false
}

func (e Event) clone() Event {
	out := e
	if e.Expense != nil {
		exp := *e.Expense
		exp.Shares = slices.Clone(e.Expense.Shares)
		exp.Splits = nil
		if e.Expense.Splits != nil {
			exp.Splits = make([]Split, len(e.Expense.Splits))
		}
		for i, s := range e.Expense.Splits {
			exp.Splits[i] = Split{UserID: s.UserID}
			if s.Amount != nil {
				a := *s.Amount
				exp.Splits[i].Amount = &a
			}
			if s.Percentage != nil {
				p := *s.Percentage
				exp.Splits[i].Percentage = &p
			}
		}
		out.Expense = &exp
	}
	if e.Settlement != nil {
		s := *e.Settlement
		out.Settlement = &s
	}
	return out
}

// validate checks the structural invariants every stored event must hold,
// independent of group membership.
func (e Event) validate() error {
	switch e.Kind {
	case KindExpense:
		if e.Expense == nil || e.Settlement != nil {
			return invalid(ReasonInvalidEvent, "kind", "expense event must carry exactly one expense")
		}
		return e.Expense.validate()
	case KindSettlement:
		if e.Settlement == nil || e.Expense != nil {
			return invalid(ReasonInvalidEvent, "kind", "settlement event must carry exactly one settlement")
		}
		return e.Settlement.validate()
	}
	return invalid(ReasonInvalidEvent, "kind", "unknown event kind %q", string(e.Kind))
}

func (x *Expense) validate() error {
	if x.ID == uuid.Nil || x.GroupID == uuid.Nil || x.PaidBy == uuid.Nil {
		return invalid(ReasonInvalidEvent, "expense", "expense needs an id, a group and a payer")
	}
	if x.Amount <= 0 {
		return invalid(ReasonNonPositiveAmount, "amount", "amount must be greater than zero, got %s", x.Amount)
	}
	if !x.Amount.inRange() {
		return tooLarge("amount", x.Amount.String())
	}
	if !x.SplitType.Valid() {
		return invalid(ReasonInvalidSplitType, "splitType", "invalid split type: %q", string(x.SplitType))
	}
	if len(x.Shares) == 0 {
		return invalid(ReasonEmptyParticipants, "shares", "expense has no shares")
	}
	seen := make(map[uuid.UUID]struct{}, len(x.Shares))
	total := decimal.Zero
	for _, s := range x.Shares {
		if _, dup := seen[s.UserID]; dup {
			return invalid(ReasonDuplicateParticipant, "shares", "user %s has more than one share", s.UserID)
		}
		seen[s.UserID] = struct{}{}
		if s.Amount <= 0 {
			return invalid(ReasonNonPositiveAmount, "shares", "share for user %s must be positive", s.UserID)
		}
		total = total.Add(s.Amount.Decimal())
	}
	if !total.Equal(x.Amount.Decimal()) {
		return mismatch(ReasonTotalMismatch, "shares", "shares", total.StringFixed(2), x.Amount.String())
	}
	return nil
}

func (s *Settlement) validate() error {
	if s.ID == uuid.Nil || s.FromUserID == uuid.Nil || s.ToUserID == uuid.Nil {
		return invalid(ReasonInvalidEvent, "settlement", "settlement needs an id and both parties")
	}
	if s.FromUserID == s.ToUserID {
		return invalid(ReasonSameParty, "toUserId", "a user cannot settle with themselves")
	}
	if s.Amount <= 0 {
		return invalid(ReasonNonPositiveAmount, "amount", "amount must be greater than zero, got %s", s.Amount)
	}
	if !s.Amount.inRange() {
		return tooLarge("amount", s.Amount.String())
	}
	return nil
}
