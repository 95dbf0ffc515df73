package ledger

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SplitType selects how a list of splits is interpreted.
type SplitType string

const (
	SplitEqual      SplitType = "EQUAL"
	SplitExact      SplitType = "EXACT"
	SplitPercentage SplitType = "PERCENTAGE"
)

func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitExact, SplitPercentage:
		return true
	}
	return false
}

// Split is one participant entry as submitted by the caller. Amount is read
// only for EXACT splits and Percentage only for PERCENTAGE splits.
type Split struct {
	UserID     uuid.UUID        `json:"userId"`
	Amount     *Amount          `json:"amount,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

// Share is a participant's normalized portion of an expense.
type Share struct {
	UserID uuid.UUID `json:"userId"`
	Amount Amount    `json:"amount"`
}

// percentTolerance mirrors the one-unit amount tolerance for percentage sums.
var percentTolerance = decimal.New(1, -2)

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// ValidateSplit checks a proposed allocation of amount among splits and
// returns the normalized shares, ordered by ascending user id. Every share is
// positive and the shares sum exactly to amount. Rounding remainders go one
// minimum unit at a time to participants in ascending user-id order.
//
// Failures are returned as *ValidationError.
func ValidateSplit(amount Amount, splitType SplitType, splits []Split, eligible []uuid.UUID) ([]Share, error) {
	if amount <= 0 {
		return nil, invalid(ReasonNonPositiveAmount, "amount", "amount must be greater than zero, got %s", amount)
	}
	if !amount.inRange() {
		return nil, tooLarge("amount", amount.String())
	}
	if !splitType.Valid() {
		return nil, invalid(ReasonInvalidSplitType, "splitType", "invalid split type: %q", string(splitType))
	}
	if len(splits) == 0 {
		return nil, invalid(ReasonEmptyParticipants, "splits", "at least one participant is required")
	}

	allowed := make(map[uuid.UUID]struct{}, len(eligible))
	for _, id := range eligible {
		allowed[id] = struct{}{}
	}
	seen := make(map[uuid.UUID]struct{}, len(splits))
	for i, s := range splits {
		field := fmt.Sprintf("splits[%d].userId", i)
		if _, ok := allowed[s.UserID]; !ok {
			return nil, invalid(ReasonNotAMember, field, "user %s is not a member of this group", s.UserID)
		}
		if _, dup := seen[s.UserID]; dup {
			return nil, invalid(ReasonDuplicateParticipant, field, "user %s appears more than once", s.UserID)
		}
		seen[s.UserID] = struct{}{}
	}

	ordered := slices.Clone(splits)
	slices.SortFunc(ordered, func(a, b Split) int { return compareIDs(a.UserID, b.UserID) })

	switch splitType {
	case SplitEqual:
		return equalShares(amount, ordered)
	case SplitExact:
		return exactShares(amount, ordered)
	default:
		return percentageShares(amount, ordered)
	}
}

func equalShares(amount Amount, splits []Split) ([]Share, error) {
	n := Amount(len(splits))
	if n < 2 {
		return nil, &ValidationError{
			Reason:   ReasonTooFewParticipants,
			Field:    "splits",
			Message:  fmt.Sprintf("an equal split needs at least 2 participants, got %d", n),
			Computed: fmt.Sprint(n),
			Expected: "2",
		}
	}
	if amount < n {
		return nil, invalid(ReasonAmountTooSmall, "amount", "amount %s is too small to split among %d participants", amount, n)
	}

	base, rem := amount/n, amount%n
	shares := make([]Share, len(splits))
	for i, s := range splits {
		shares[i] = Share{UserID: s.UserID, Amount: base}
		if Amount(i) < rem {
			shares[i].Amount += MinUnit
		}
	}
	return shares, nil
}

func exactShares(amount Amount, splits []Split) ([]Share, error) {
	total := decimal.Zero
	shares := make([]Share, len(splits))
	for i, s := range splits {
		field := fmt.Sprintf("splits[%d].amount", i)
		if s.Amount == nil {
			return nil, invalid(ReasonMissingAmount, field, "an exact split needs an amount for user %s", s.UserID)
		}
		if *s.Amount < 0 {
			return nil, invalid(ReasonNonPositiveAmount, field, "split amount must not be negative, got %s", *s.Amount)
		}
		if !s.Amount.inRange() {
			return nil, tooLarge(field, s.Amount.String())
		}
		total = total.Add(s.Amount.Decimal())
		shares[i] = Share{UserID: s.UserID, Amount: *s.Amount}
	}

	if total.Sub(amount.Decimal()).Abs().GreaterThan(MinUnit.Decimal()) {
		return nil, mismatch(ReasonTotalMismatch, "splits", "split amounts", total.StringFixed(2), amount.String())
	}
	diff := amount - Amount(total.Mul(hundred).IntPart())
	if err := distribute(shares, diff, positive(shares)); err != nil {
		return nil, err
	}
	return compact(shares), nil
}

func percentageShares(amount Amount, splits []Split) ([]Share, error) {
	total := decimal.Zero
	for i, s := range splits {
		field := fmt.Sprintf("splits[%d].percentage", i)
		if s.Percentage == nil {
			return nil, invalid(ReasonMissingPercentage, field, "a percentage split needs a percentage for user %s", s.UserID)
		}
		if s.Percentage.IsNegative() || s.Percentage.GreaterThan(hundred) {
			return nil, invalid(ReasonPercentageOutOfRange, field, "percentage must be between 0 and 100, got %s", s.Percentage.String())
		}
		total = total.Add(*s.Percentage)
	}
	if total.Sub(hundred).Abs().GreaterThan(percentTolerance) {
		return nil, mismatch(ReasonPercentageTotalMismatch, "splits", "percentages", total.String(), hundred.String())
	}

	cents := decimal.NewFromInt(int64(amount))
	shares := make([]Share, len(splits))
	var candidates []int
	var allocated Amount
	for i, s := range splits {
		floor := Amount(cents.Mul(*s.Percentage).Div(hundred).Floor().IntPart())
		shares[i] = Share{UserID: s.UserID, Amount: floor}
		allocated += floor
		if s.Percentage.IsPositive() {
			candidates = append(candidates, i)
		}
	}
	if err := distribute(shares, amount-allocated, candidates); err != nil {
		return nil, err
	}
	return compact(shares), nil
}

// distribute spreads remainder over shares[candidates] one minimum unit at a
// time, cycling in candidate order. A negative remainder is taken back the
// same way without driving any share below zero.
func distribute(shares []Share, remainder Amount, candidates []int) error {
	for remainder != 0 {
		moved := false
		for _, i := range candidates {
			if remainder == 0 {
				break
			}
			switch {
			case remainder > 0:
				shares[i].Amount += MinUnit
				remainder -= MinUnit
				moved = true
			case shares[i].Amount > 0:
				shares[i].Amount -= MinUnit
				remainder += MinUnit
				moved = true
			}
		}
		if !moved {
			return invalid(ReasonAmountTooSmall, "amount", "cannot allocate remaining %s among participants", remainder)
		}
	}
	return nil
}

func positive(shares []Share) []int {
	idx := make([]int, 0, len(shares))
	for i, s := range shares {
		if s.Amount > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// compact drops zero shares; a participant allocated nothing owes nothing.
func compact(shares []Share) []Share {
	out := shares[:0]
	for _, s := range shares {
		if s.Amount > 0 {
			out = append(out, s)
		}
	}
	return out
}
