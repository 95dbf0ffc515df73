package ledger

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

type Direction string

const (
	// DirectionOwe means the subject user owes the counterparty.
	DirectionOwe Direction = "OWE"
	// DirectionOwed means the counterparty owes the subject user.
	DirectionOwed Direction = "OWED"
)

// Balance is one entry of a user's balance list.
type Balance struct {
	CounterpartyID   uuid.UUID `json:"counterpartyId"`
	CounterpartyName string    `json:"counterpartyName"`
	Amount           Amount    `json:"amount"`
	Direction        Direction `json:"direction"`
}

// Summary is a user's balance list with its totals. Net is positive when the
// user is owed more than they owe.
type Summary struct {
	UserID     uuid.UUID `json:"userId"`
	Balances   []Balance `json:"balances"`
	TotalOwed  Amount    `json:"totalOwed"`
	TotalOwing Amount    `json:"totalOwing"`
	Net        Amount    `json:"net"`
}

// Debt is a canonical pairwise debt: From owes To a positive Amount.
type Debt struct {
	From     uuid.UUID `json:"from"`
	FromName string    `json:"fromName,omitempty"`
	To       uuid.UUID `json:"to"`
	ToName   string    `json:"toName,omitempty"`
	Amount   Amount    `json:"amount"`
}

// pair is an unordered user pair stored with lo < hi.
type pair struct{ lo, hi uuid.UUID }

// netDebts holds, per pair, the signed amount lo owes hi.
type netDebts map[pair]Amount

func (n netDebts) owes(debtor, creditor uuid.UUID, amount Amount) {
	if compareIDs(debtor, creditor) < 0 {
		n[pair{debtor, creditor}] += amount
		return
	}
	n[pair{creditor, debtor}] -= amount
}

func (n netDebts) apply(ev Event) {
	switch ev.Kind {
	case KindExpense:
		for _, s := range ev.Expense.Shares {
			if s.UserID != ev.Expense.PaidBy {
				n.owes(s.UserID, ev.Expense.PaidBy, s.Amount)
			}
		}
	case KindSettlement:
		// Overpaying flips the direction of the pair; it is not clamped.
		n.owes(ev.Settlement.FromUserID, ev.Settlement.ToUserID, -ev.Settlement.Amount)
	}
}

func (n netDebts) canonical() []Debt {
	out := make([]Debt, 0, len(n))
	for p, v := range n {
		switch {
		case v > 0:
			out = append(out, Debt{From: p.lo, To: p.hi, Amount: v})
		case v < 0:
			out = append(out, Debt{From: p.hi, To: p.lo, Amount: -v})
		}
	}
	sortDebts(out)
	return out
}

func sortDebts(debts []Debt) {
	slices.SortFunc(debts, func(a, b Debt) int {
		if c := compareIDs(a.From, b.From); c != 0 {
			return c
		}
		return compareIDs(a.To, b.To)
	})
}

// PairwiseDebts folds events, in order, into canonical pairwise debts. Pairs
// that net to zero are omitted.
func PairwiseDebts(events []Event) []Debt {
	n := make(netDebts)
	for _, ev := range events {
		n.apply(ev)
	}
	return n.canonical()
}

// NetPositions returns each user's signed position: positive when others owe
// the user overall. The positions of any event sequence sum to zero.
func NetPositions(events []Event) map[uuid.UUID]Amount {
	pos := make(map[uuid.UUID]Amount)
	for _, d := range PairwiseDebts(events) {
		pos[d.From] -= d.Amount
		pos[d.To] += d.Amount
	}
	return pos
}

// UserBalances derives userID's balance list from events. Counterparty names
// are left empty. Entries the user is owed come first, then entries the user
// owes, each by descending amount.
func UserBalances(userID uuid.UUID, events []Event) []Balance {
	n := make(netDebts)
	for _, ev := range events {
		if ev.Involves(userID) {
			n.apply(ev)
		}
	}

	var out []Balance
	for _, d := range n.canonical() {
		switch userID {
		case d.From:
			out = append(out, Balance{CounterpartyID: d.To, Amount: d.Amount, Direction: DirectionOwe})
		case d.To:
			out = append(out, Balance{CounterpartyID: d.From, Amount: d.Amount, Direction: DirectionOwed})
		}
	}
	slices.SortStableFunc(out, func(a, b Balance) int {
		if a.Direction != b.Direction {
			if a.Direction == DirectionOwed {
				return -1
			}
			return 1
		}
		if a.Amount != b.Amount {
			if a.Amount > b.Amount {
				return -1
			}
			return 1
		}
		return compareIDs(a.CounterpartyID, b.CounterpartyID)
	})
	return out
}

// Summarize totals a balance list.
func Summarize(userID uuid.UUID, balances []Balance) Summary {
	s := Summary{UserID: userID, Balances: balances}
	if s.Balances == nil {
		s.Balances = []Balance{}
	}
	for _, b := range balances {
		if b.Direction == DirectionOwed {
			s.TotalOwed += b.Amount
		} else {
			s.TotalOwing += b.Amount
		}
	}
	s.Net = s.TotalOwed - s.TotalOwing
	return s
}

// BalanceEngine answers balance queries against a ledger snapshot, resolving
// display names through the directory.
type BalanceEngine struct {
	ledger *Ledger
	dir    Directory
}

func NewBalanceEngine(l *Ledger, dir Directory) *BalanceEngine {
	return &BalanceEngine{ledger: l, dir: dir}
}

// BalancesFor returns the balance summary of userID.
func (b *BalanceEngine) BalancesFor(ctx context.Context, userID uuid.UUID) (Summary, error) {
	if _, err := b.dir.User(ctx, userID); err != nil {
		return Summary{}, err
	}

	balances := UserBalances(userID, b.ledger.snapshot())
	for i := range balances {
		u, err := b.dir.User(ctx, balances[i].CounterpartyID)
		if err != nil {
			return Summary{}, err
		}
		balances[i].CounterpartyName = u.Name
	}
	return Summarize(userID, balances), nil
}

// AllDebts returns every non-zero pairwise debt in the ledger.
func (b *BalanceEngine) AllDebts(ctx context.Context) ([]Debt, error) {
	debts := PairwiseDebts(b.ledger.snapshot())
	return debts, b.name(ctx, debts)
}

// GroupBalance is a group's debts together with what the group has spent,
// both read from the same ledger snapshot.
type GroupBalance struct {
	Debts      []Debt
	TotalSpent Amount
	Seq        uint64
}

// GroupDebts returns the pairwise debts between members of groupID, derived
// from the group's replay. With simplify set, the opt-in simplification
// replaces them; it changes who pays whom.
func (b *BalanceEngine) GroupDebts(ctx context.Context, groupID uuid.UUID, simplify bool) (GroupBalance, error) {
	g, err := b.dir.Group(ctx, groupID)
	if err != nil {
		return GroupBalance{}, err
	}

	snap := b.ledger.snapshot()
	events := forGroup(snap, groupID, g.MemberIDs)
	out := GroupBalance{Seq: uint64(len(snap))}
	for _, ev := range events {
		if ev.Kind == KindExpense {
			out.TotalSpent += ev.Expense.Amount
		}
	}

	all := PairwiseDebts(events)
	out.Debts = make([]Debt, 0, len(all))
	for _, d := range all {
		if g.HasMember(d.From) && g.HasMember(d.To) {
			out.Debts = append(out.Debts, d)
		}
	}
	if simplify {
		out.Debts = Simplify(out.Debts)
	}
	if err := b.name(ctx, out.Debts); err != nil {
		return GroupBalance{}, err
	}
	return out, nil
}

func (b *BalanceEngine) name(ctx context.Context, debts []Debt) error {
	names := make(map[uuid.UUID]string)
	lookup := func(id uuid.UUID) (string, error) {
		if n, ok := names[id]; ok {
			return n, nil
		}
		u, err := b.dir.User(ctx, id)
		if err != nil {
			return "", err
		}
		names[id] = u.Name
		return u.Name, nil
	}
	for i := range debts {
		var err error
		if debts[i].FromName, err = lookup(debts[i].From); err != nil {
			return err
		}
		if debts[i].ToName, err = lookup(debts[i].To); err != nil {
			return err
		}
	}
	return nil
}
