package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Reason is a machine-readable validation failure code.
type Reason string

const (
	ReasonNonPositiveAmount       Reason = "non_positive_amount"
	ReasonAmountPrecision         Reason = "amount_precision"
	ReasonAmountTooSmall          Reason = "amount_too_small"
	ReasonAmountTooLarge          Reason = "amount_too_large"
	ReasonEmptyParticipants       Reason = "empty_participants"
	ReasonTooFewParticipants      Reason = "too_few_participants"
	ReasonDuplicateParticipant    Reason = "duplicate_participant"
	ReasonNotAMember              Reason = "not_a_member"
	ReasonMissingAmount           Reason = "missing_amount"
	ReasonMissingPercentage       Reason = "missing_percentage"
	ReasonPercentageOutOfRange    Reason = "percentage_out_of_range"
	ReasonTotalMismatch           Reason = "total_mismatch"
	ReasonPercentageTotalMismatch Reason = "percentage_total_mismatch"
	ReasonInvalidSplitType        Reason = "invalid_split_type"
	ReasonSameParty               Reason = "same_party"
	ReasonEmptyMembers            Reason = "empty_members"
	ReasonEmptyName               Reason = "empty_name"
	ReasonEmptyEmail              Reason = "empty_email"
	ReasonEmptyDescription        Reason = "empty_description"
	ReasonEmailTaken              Reason = "email_taken"
	ReasonInvalidEvent            Reason = "invalid_event"
)

// ValidationError reports a rejected command. Computed and Expected carry the
// offending values when the failure is a mismatch between two totals.
type ValidationError struct {
	Reason   Reason `json:"reason"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
	Computed string `json:"computed,omitempty"`
	Expected string `json:"expected,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(reason Reason, field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Reason:  reason,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func mismatch(reason Reason, field, what, computed, expected string) *ValidationError {
	return &ValidationError{
		Reason:   reason,
		Field:    field,
		Message:  fmt.Sprintf("%s total %s, expected %s", what, computed, expected),
		Computed: computed,
		Expected: expected,
	}
}

// NotFoundError reports a reference to an unknown user, group or event.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ErrConcurrencyConflict is returned when another writer appended to the
// journal at the sequence number this ledger assigned.
var ErrConcurrencyConflict = errors.New("ledger: concurrent append conflict")

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
