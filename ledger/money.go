package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value counted in minimum currency units (cents).
type Amount int64

// MinUnit is the smallest representable amount and the ledger's rounding unit.
const MinUnit Amount = 1

// MaxAmount bounds every amount the ledger accepts: 10,000,000,000,000.00.
// Totals over many amounts are summed in decimal so they cannot wrap.
const MaxAmount Amount = 1_000_000_000_000_000

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(int64(MaxAmount))
)

func (a Amount) inRange() bool {
	return a >= -MaxAmount && a <= MaxAmount
}

func tooLarge(field, value string) *ValidationError {
	return invalid(ReasonAmountTooLarge, field, "amount %s exceeds the maximum of %s", value, MaxAmount)
}

// NewAmount converts a decimal currency value into an Amount. Values with
// more than two fractional digits are rejected rather than rounded, and so
// are values beyond MaxAmount in either direction.
func NewAmount(d decimal.Decimal) (Amount, error) {
	cents := d.Mul(hundred)
	if !cents.IsInteger() {
		return 0, &ValidationError{
			Reason:  ReasonAmountPrecision,
			Field:   "amount",
			Message: fmt.Sprintf("amount %s has more than two fractional digits", d.String()),
		}
	}
	if cents.Abs().GreaterThan(maxCents) {
		return 0, tooLarge("amount", d.StringFixed(2))
	}
	return Amount(cents.IntPart()), nil
}

// ParseAmount parses a decimal string such as "12.50".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, &ValidationError{
			Reason:  ReasonAmountPrecision,
			Field:   "amount",
			Message: fmt.Sprintf("invalid amount %q", s),
		}
	}
	return NewAmount(d)
}

// MustAmount is ParseAmount for constants; it panics on bad input.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

// String renders the amount with exactly two fractional digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// MarshalJSON encodes the amount as a JSON number with two fractional digits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return &ValidationError{
			Reason:  ReasonAmountPrecision,
			Field:   "amount",
			Message: fmt.Sprintf("invalid amount %s", string(b)),
		}
	}
	v, err := NewAmount(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
