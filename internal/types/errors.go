package types

import "errors"

// Error kind sentinels for the taxonomy in spec.md §7. Wrap with
// fmt.Errorf("...: %w", ErrX) at call sites so errors.Is still matches.
var (
	// ErrInvalidRule: compile-time — malformed condition, unknown
	// operator, arity violation, unresolvable field reference.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrInvalidFact: assert-time — required field missing, type-impossible
	// value. Rejects one fact; the batch continues.
	ErrInvalidFact = errors.New("invalid fact")

	// ErrCalculatorError: firing-time — missing required input, wrong
	// kind, out-of-range, business-rule violation, arithmetic overflow.
	ErrCalculatorError = errors.New("calculator error")

	// ErrResourceExhausted: memory ceiling hit or firing budget exceeded.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrBudgetExceeded is the specific ErrResourceExhausted cause for a
	// firing-budget overrun (spec.md §4.6), kept distinct so callers can
	// tell "too much memory" from "mutually productive rules".
	ErrBudgetExceeded = errors.New("firing budget exceeded")

	// ErrCancelled: cooperative cancellation succeeded; network left
	// consistent.
	ErrCancelled = errors.New("cancelled")

	// ErrInvariantViolation: an internal consistency check failed. Fatal;
	// the session must be discarded.
	ErrInvariantViolation = errors.New("invariant violation")
)

// CalculatorErrorCode enumerates the structured reasons a calculator can
// fail (spec.md §4.7, §8 scenario 6).
type CalculatorErrorCode string

const (
	ErrCodeMissingRequiredField CalculatorErrorCode = "MissingRequiredField"
	ErrCodeWrongKind            CalculatorErrorCode = "WrongKind"
	ErrCodeOutOfRange           CalculatorErrorCode = "OutOfRange"
	ErrCodeBusinessRuleViolation CalculatorErrorCode = "BusinessRuleViolation"
	ErrCodeOverflow              CalculatorErrorCode = "Overflow"
)

// CalculatorError is the structured error returned by a calculator
// function in place of a result (spec.md §4.7 option (b)).
type CalculatorError struct {
	Code    CalculatorErrorCode
	Message string
	Field   string // the offending input name, if applicable
}

func (e *CalculatorError) Error() string {
	if e.Field != "" {
		return string(e.Code) + ": " + e.Message + " (field " + e.Field + ")"
	}
	return string(e.Code) + ": " + e.Message
}

func (e *CalculatorError) Unwrap() error { return ErrCalculatorError }
