// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrRateLimited signals upstream throttling. It is cycle-scoped: once seen,
	// the remaining fetches of the cycle are abandoned.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable signals a single-symbol transient failure.
	ErrUnavailable = errors.New("quote unavailable")
	// ErrRuleNotFound is returned when a rule vanished between the snapshot and
	// the write-back.
	ErrRuleNotFound = errors.New("rule not found")
	// ErrInvalidRule rejects a malformed rule before it enters the active set.
	ErrInvalidRule = errors.New("invalid rule")

	ErrStoreUnavailable = errors.New("rule store unavailable")
	ErrConfigInvalid    = errors.New("invalid configuration")
)

// QuoteError wraps an upstream quote failure with the symbol and HTTP status
// that produced it.
type QuoteError struct {
	Symbol string
	Status int
	Err    error
}

func (e *QuoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("quote error [%s] status %d: %v", e.Symbol, e.Status, e.Err)
	}
	return fmt.Sprintf("quote error [%s]: %v", e.Symbol, e.Err)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// NewQuoteError creates a new QuoteError.
func NewQuoteError(symbol string, status int, err error) *QuoteError {
	return &QuoteError{
		Symbol: symbol,
		Status: status,
		Err:    err,
	}
}

// RuleError reports a rule that failed validation.
type RuleError struct {
	RuleID  string
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("invalid rule [%s]: %s: %s", e.RuleID, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid rule: %s: %s", e.Field, e.Message)
}

func (e *RuleError) Unwrap() error {
	return ErrInvalidRule
}

// NewRuleError creates a new RuleError.
func NewRuleError(ruleID, field, message string) *RuleError {
	return &RuleError{
		RuleID:  ruleID,
		Field:   field,
		Message: message,
	}
}

// IsRateLimited reports whether err is, or wraps, ErrRateLimited.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsUnavailable reports whether err is, or wraps, ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
