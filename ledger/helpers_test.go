package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx         context.Context
	dir         *MemoryDirectory
	ledger      *Ledger
	expenses    *ExpenseProcessor
	settlements *SettlementProcessor
	balances    *BalanceEngine
	a, b, c     User
	group       Group
}

// newFixture registers Alice, Bob and Carol in one group over an empty ledger.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := NewMemoryDirectory()

	a, err := dir.CreateUser(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)
	b, err := dir.CreateUser(ctx, "Bob", "bob@example.com")
	require.NoError(t, err)
	c, err := dir.CreateUser(ctx, "Carol", "carol@example.com")
	require.NoError(t, err)
	g, err := dir.CreateGroup(ctx, "Flat", []uuid.UUID{a.ID, b.ID, c.ID})
	require.NoError(t, err)

	l := New(opts...)
	return &fixture{
		ctx:         ctx,
		dir:         dir,
		ledger:      l,
		expenses:    NewExpenseProcessor(l, dir),
		settlements: NewSettlementProcessor(l, dir),
		balances:    NewBalanceEngine(l, dir),
		a:           a,
		b:           b,
		c:           c,
		group:       g,
	}
}

func (f *fixture) expense(t *testing.T, amount string, paidBy User, typ SplitType, splits ...Split) Expense {
	t.Helper()
	ev, err := f.expenses.RecordExpense(f.ctx, NewExpense{
		GroupID:     f.group.ID,
		Amount:      MustAmount(amount),
		Description: "dinner",
		PaidBy:      paidBy.ID,
		SplitType:   typ,
		Splits:      splits,
	})
	require.NoError(t, err)
	return *ev.Expense
}

func (f *fixture) settle(t *testing.T, from, to User, amount string) Settlement {
	t.Helper()
	ev, err := f.settlements.RecordSettlement(f.ctx, from.ID, to.ID, MustAmount(amount), "")
	require.NoError(t, err)
	return *ev.Settlement
}

func (f *fixture) summary(t *testing.T, u User) Summary {
	t.Helper()
	s, err := f.balances.BalancesFor(f.ctx, u.ID)
	require.NoError(t, err)
	return s
}

func entry(s Summary, counterparty uuid.UUID) (Balance, bool) {
	for _, b := range s.Balances {
		if b.CounterpartyID == counterparty {
			return b, true
		}
	}
	return Balance{}, false
}

func amountPtr(s string) *Amount {
	a := MustAmount(s)
	return &a
}

func percent(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func equalSplit(users ...User) []Split {
	out := make([]Split, len(users))
	for i, u := range users {
		out[i] = Split{UserID: u.ID}
	}
	return out
}

// fixedIDs returns n ids in ascending order.
func fixedIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.UUID{15: byte(i + 1)}
	}
	return ids
}

func percentOf(p int64) *decimal.Decimal {
	d := decimal.NewFromInt(p)
	return &d
}
