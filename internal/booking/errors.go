package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrResourceNotFound is returned when the referenced resource does not
	// exist in the catalog.
	ErrResourceNotFound = errors.New("booking: resource not found")
	// ErrReservationNotFound is returned when the referenced reservation does
	// not exist.
	ErrReservationNotFound = errors.New("booking: reservation not found")
	// ErrIllegalTransition is returned when a status change violates the
	// lifecycle state machine.
	ErrIllegalTransition = errors.New("booking: illegal status transition")
	// ErrUnauthorized is returned when the acting principal lacks permission
	// for an operation.
	ErrUnauthorized = errors.New("booking: unauthorized")
	// ErrPersistence is returned for transaction-level storage failures. No
	// partial writes survive on this path.
	ErrPersistence = errors.New("booking: persistence failure")
)

// Rule identifies which validation rule rejected a candidate interval.
type Rule string

const (
	RuleInvalidTimestamp Rule = "invalid_timestamp"
	RuleTooSoon          Rule = "too_soon"
	RuleInvalidRange     Rule = "invalid_range"
	RuleTooShort         Rule = "too_short"
	RuleTooLong          Rule = "too_long"
	RuleOutsideHours     Rule = "outside_hours"
)

// RuleError is a typed validator rejection. It carries the failed rule so a
// UI can render an actionable message; the core itself formats no prose
// beyond the diagnostic Message.
type RuleError struct {
	Rule    Rule
	Message string
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return fmt.Sprintf("booking: validation failed (%s)", e.Rule)
	}
	return fmt.Sprintf("booking: %s (%s)", e.Message, e.Rule)
}

func newRuleError(rule Rule, format string, args ...any) *RuleError {
	return &RuleError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports that the candidate interval collides with existing
// approved reservations. Conflicts always carries at least one entry.
type ConflictError struct {
	Conflicts []Reservation
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	ids := make([]string, 0, len(e.Conflicts))
	for _, r := range e.Conflicts {
		ids = append(ids, r.ID)
	}
	return fmt.Sprintf("booking: slot conflict with %s", strings.Join(ids, ", "))
}

// ErrorKind maps sentinel and structured errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrResourceNotFound):
		return "resource_not_found"
	case errors.Is(err, ErrReservationNotFound):
		return "reservation_not_found"
	case errors.Is(err, ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	}

	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return string(ruleErr.Rule)
	}

	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return "slot_conflict"
	}

	return "unexpected"
}
