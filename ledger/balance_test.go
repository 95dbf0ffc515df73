package ledger

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioEqualExpense(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "90", f.a, SplitEqual, equalSplit(f.a, f.b, f.c)...)

	alice := f.summary(t, f.a)
	require.Len(t, alice.Balances, 2)
	for _, u := range []User{f.b, f.c} {
		b, ok := entry(alice, u.ID)
		require.True(t, ok)
		assert.Equal(t, MustAmount("30"), b.Amount)
		assert.Equal(t, DirectionOwed, b.Direction)
		assert.Equal(t, u.Name, b.CounterpartyName)
	}
	assert.Equal(t, MustAmount("60"), alice.TotalOwed)
	assert.Equal(t, MustAmount("60"), alice.Net)

	bob := f.summary(t, f.b)
	require.Len(t, bob.Balances, 1)
	assert.Equal(t, Balance{CounterpartyID: f.a.ID, CounterpartyName: "Alice", Amount: MustAmount("30"), Direction: DirectionOwe}, bob.Balances[0])
	assert.Equal(t, MustAmount("-30"), bob.Net)
}

func TestScenarioExactExpensePayerShareNetsOut(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "100", f.a, SplitExact,
		Split{UserID: f.a.ID, Amount: amountPtr("40")},
		Split{UserID: f.b.ID, Amount: amountPtr("30")},
		Split{UserID: f.c.ID, Amount: amountPtr("30")},
	)

	alice := f.summary(t, f.a)
	require.Len(t, alice.Balances, 2)
	for _, u := range []User{f.b, f.c} {
		b, ok := entry(alice, u.ID)
		require.True(t, ok)
		assert.Equal(t, MustAmount("30"), b.Amount)
		assert.Equal(t, DirectionOwed, b.Direction)
	}
}

func TestScenarioPercentageThenSettlement(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "50", f.a, SplitPercentage,
		Split{UserID: f.b.ID, Percentage: percent("60")},
		Split{UserID: f.c.ID, Percentage: percent("40")},
	)

	alice := f.summary(t, f.a)
	b, _ := entry(alice, f.b.ID)
	c, _ := entry(alice, f.c.ID)
	assert.Equal(t, MustAmount("30"), b.Amount)
	assert.Equal(t, MustAmount("20"), c.Amount)

	f.settle(t, f.b, f.a, "30")

	alice = f.summary(t, f.a)
	_, listed := entry(alice, f.b.ID)
	assert.False(t, listed, "settled pair must not be listed")
	c, ok := entry(alice, f.c.ID)
	require.True(t, ok)
	assert.Equal(t, MustAmount("20"), c.Amount)

	assert.Empty(t, f.summary(t, f.b).Balances)
}

func TestOverpaymentReversesThePair(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "60", f.a, SplitEqual, equalSplit(f.a, f.b)...)

	// Bob owes 30 but pays 50; the extra 20 is recorded, not rejected.
	f.settle(t, f.b, f.a, "50")

	alice := f.summary(t, f.a)
	require.Len(t, alice.Balances, 1)
	assert.Equal(t, DirectionOwe, alice.Balances[0].Direction)
	assert.Equal(t, f.b.ID, alice.Balances[0].CounterpartyID)
	assert.Equal(t, MustAmount("20"), alice.Balances[0].Amount)

	bob := f.summary(t, f.b)
	require.Len(t, bob.Balances, 1)
	assert.Equal(t, DirectionOwed, bob.Balances[0].Direction)
	assert.Equal(t, MustAmount("20"), bob.Balances[0].Amount)
}

func TestBalancesOrderedByDirectionThenAmount(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "30", f.a, SplitExact, Split{UserID: f.b.ID, Amount: amountPtr("30")})
	f.expense(t, "50", f.a, SplitExact, Split{UserID: f.c.ID, Amount: amountPtr("50")})
	f.expense(t, "10", f.b, SplitExact, Split{UserID: f.a.ID, Amount: amountPtr("10")})
	f.settle(t, f.b, f.a, "100")

	alice := f.summary(t, f.a)
	require.Len(t, alice.Balances, 2)
	assert.Equal(t, DirectionOwed, alice.Balances[0].Direction)
	assert.Equal(t, f.c.ID, alice.Balances[0].CounterpartyID)
	assert.Equal(t, DirectionOwe, alice.Balances[1].Direction)
	assert.Equal(t, MustAmount("80"), alice.Balances[1].Amount)
}

func TestBalancesForUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.balances.BalancesFor(f.ctx, uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestSettlementChangesOnlyItsPair(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "90", f.a, SplitEqual, equalSplit(f.a, f.b, f.c)...)
	f.expense(t, "40", f.c, SplitEqual, equalSplit(f.b, f.c)...)

	before := PairwiseDebts(f.ledger.Replay())
	f.settle(t, f.b, f.a, "12.34")
	after := PairwiseDebts(f.ledger.Replay())

	signed := func(debts []Debt, x, y uuid.UUID) Amount {
		for _, d := range debts {
			if d.From == x && d.To == y {
				return d.Amount
			}
			if d.From == y && d.To == x {
				return -d.Amount
			}
		}
		return 0
	}

	assert.Equal(t, MustAmount("12.34"), signed(before, f.b.ID, f.a.ID)-signed(after, f.b.ID, f.a.ID))
	assert.Equal(t, signed(before, f.c.ID, f.a.ID), signed(after, f.c.ID, f.a.ID))
	assert.Equal(t, signed(before, f.b.ID, f.c.ID), signed(after, f.b.ID, f.c.ID))
}

func TestMoneyIsConserved(t *testing.T) {
	f := newFixture(t)
	users := []User{f.a, f.b, f.c}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		payer := users[rng.Intn(len(users))]
		amount := Amount(rng.Intn(100000) + 3)

		switch rng.Intn(4) {
		case 0:
			other := users[(rng.Intn(2)+1+indexOf(users, payer))%len(users)]
			_, err := f.settlements.RecordSettlement(f.ctx, payer.ID, other.ID, amount, "")
			require.NoError(t, err)
		case 1:
			p := int64(rng.Intn(100))
			_, err := f.expenses.RecordExpense(f.ctx, NewExpense{
				GroupID: f.group.ID, Amount: amount, Description: "x", PaidBy: payer.ID, SplitType: SplitPercentage,
				Splits: []Split{
					{UserID: f.a.ID, Percentage: percentOf(p)},
					{UserID: f.b.ID, Percentage: percentOf(100 - p)},
				},
			})
			require.NoError(t, err)
		default:
			_, err := f.expenses.RecordExpense(f.ctx, NewExpense{
				GroupID: f.group.ID, Amount: amount, Description: "x", PaidBy: payer.ID, SplitType: SplitEqual,
			})
			require.NoError(t, err)
		}

		var total Amount
		for _, v := range NetPositions(f.ledger.Replay()) {
			total += v
		}
		require.Zero(t, total, "after event %d", i+1)
	}
}

func TestBalancesAreDeterministic(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "100", f.a, SplitEqual, equalSplit(f.a, f.b, f.c)...)
	f.expense(t, "33.33", f.b, SplitEqual, equalSplit(f.a, f.b, f.c)...)
	f.settle(t, f.c, f.a, "10")

	first := f.summary(t, f.a)
	second := f.summary(t, f.a)
	assert.Equal(t, first, second)

	events := f.ledger.Replay()
	assert.Equal(t, PairwiseDebts(events), PairwiseDebts(f.ledger.Replay()))
	assert.Equal(t, UserBalances(f.b.ID, events), UserBalances(f.b.ID, events))
}

func TestGroupDebts(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "90", f.a, SplitEqual, equalSplit(f.a, f.b, f.c)...)
	f.expense(t, "30", f.b, SplitExact, Split{UserID: f.c.ID, Amount: amountPtr("30")})

	other, err := f.dir.CreateGroup(f.ctx, "Trip", []uuid.UUID{f.a.ID, f.b.ID})
	require.NoError(t, err)
	_, err = f.expenses.RecordExpense(f.ctx, NewExpense{
		GroupID: other.ID, Amount: MustAmount("20"), Description: "fuel", PaidBy: f.b.ID, SplitType: SplitEqual,
	})
	require.NoError(t, err)

	t.Run("pairwise", func(t *testing.T) {
		gb, err := f.balances.GroupDebts(f.ctx, f.group.ID, false)
		require.NoError(t, err)
		assert.Equal(t, MustAmount("120"), gb.TotalSpent)
		assert.Equal(t, uint64(3), gb.Seq)
		assert.ElementsMatch(t, []Debt{
			{From: f.b.ID, FromName: "Bob", To: f.a.ID, ToName: "Alice", Amount: MustAmount("30")},
			{From: f.c.ID, FromName: "Carol", To: f.a.ID, ToName: "Alice", Amount: MustAmount("30")},
			{From: f.c.ID, FromName: "Carol", To: f.b.ID, ToName: "Bob", Amount: MustAmount("30")},
		}, gb.Debts)
	})

	t.Run("simplified", func(t *testing.T) {
		gb, err := f.balances.GroupDebts(f.ctx, f.group.ID, true)
		require.NoError(t, err)
		assert.Equal(t, MustAmount("120"), gb.TotalSpent)
		assert.Equal(t, []Debt{
			{From: f.c.ID, FromName: "Carol", To: f.a.ID, ToName: "Alice", Amount: MustAmount("60")},
		}, gb.Debts)
	})

	t.Run("other group only sees its own expenses", func(t *testing.T) {
		gb, err := f.balances.GroupDebts(f.ctx, other.ID, false)
		require.NoError(t, err)
		assert.Equal(t, MustAmount("20"), gb.TotalSpent)
		assert.Equal(t, []Debt{
			{From: f.a.ID, FromName: "Alice", To: f.b.ID, ToName: "Bob", Amount: MustAmount("10")},
		}, gb.Debts)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := f.balances.GroupDebts(f.ctx, uuid.New(), false)
		assert.True(t, IsNotFound(err))
	})

	t.Run("settlements move debts but not the total", func(t *testing.T) {
		f.settle(t, f.c, f.a, "30")
		gb, err := f.balances.GroupDebts(f.ctx, f.group.ID, false)
		require.NoError(t, err)
		assert.Equal(t, MustAmount("120"), gb.TotalSpent)
		assert.Equal(t, uint64(4), gb.Seq)
		assert.Len(t, gb.Debts, 2)
	})
}

func TestAllDebtsNamesParties(t *testing.T) {
	f := newFixture(t)
	f.expense(t, "20", f.b, SplitEqual, equalSplit(f.a, f.b)...)

	debts, err := f.balances.AllDebts(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []Debt{{From: f.a.ID, FromName: "Alice", To: f.b.ID, ToName: "Bob", Amount: MustAmount("10")}}, debts)
}

func indexOf(users []User, u User) int {
	for i, x := range users {
		if x.ID == u.ID {
			return i
		}
	}
	return -1
}
