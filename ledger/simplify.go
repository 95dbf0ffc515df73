package ledger

import (
	"github.com/google/uuid"
)

type position struct {
	userID uuid.UUID
	amount Amount
}

// Simplify replaces debts with a settlement plan that leaves every user's
// net position unchanged while using fewer transfers. It repeatedly matches
// the largest debtor with the largest creditor, breaking ties by ascending
// user id. The result no longer reflects strict pairwise history.
func Simplify(debts []Debt) []Debt {
	net := make(map[uuid.UUID]Amount)
	for _, d := range debts {
		net[d.From] -= d.Amount
		net[d.To] += d.Amount
	}

	var creditors, debtors []position
	for id, amt := range net {
		switch {
		case amt > 0:
			creditors = append(creditors, position{id, amt})
		case amt < 0:
			debtors = append(debtors, position{id, -amt})
		}
	}

	var out []Debt
	for {
		ci, di := largest(creditors), largest(debtors)
		if ci < 0 || di < 0 {
			break
		}
		amt := min(creditors[ci].amount, debtors[di].amount)
		out = append(out, Debt{From: debtors[di].userID, To: creditors[ci].userID, Amount: amt})
		creditors[ci].amount -= amt
		debtors[di].amount -= amt
	}
	return out
}

// largest returns the index of the biggest remaining position, or -1.
func largest(ps []position) int {
	best := -1
	for i, p := range ps {
		if p.amount <= 0 {
			continue
		}
		if best < 0 || p.amount > ps[best].amount ||
			(p.amount == ps[best].amount && compareIDs(p.userID, ps[best].userID) < 0) {
			best = i
		}
	}
	return best
}
