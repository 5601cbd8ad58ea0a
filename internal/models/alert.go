// Package models defines the core data types shared across the engine.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "watchlist-sentinel/internal/errors"
)

// Condition is the comparison applied to a live price against the threshold.
type Condition string

const (
	// ConditionGreater fires when the price is strictly above the threshold.
	ConditionGreater Condition = "greater"
	// ConditionLess fires when the price is strictly below the threshold.
	ConditionLess Condition = "less"
)

// Frequency controls how often a matching rule may actually notify.
type Frequency string

const (
	// FrequencyOncePerDay allows at most one notification per 24 hours.
	FrequencyOncePerDay Frequency = "once_per_day"
	// FrequencyOncePerHour allows at most one notification per hour.
	FrequencyOncePerHour Frequency = "once_per_hour"
	// FrequencyRealTime never suppresses a match.
	FrequencyRealTime Frequency = "real_time"
)

// DefaultFrequency is applied when a rule is created without one.
const DefaultFrequency = FrequencyOncePerDay

// Window returns the minimum elapsed time between two fires, or zero for
// real-time rules.
func (f Frequency) Window() time.Duration {
	switch f {
	case FrequencyOncePerHour:
		return time.Hour
	case FrequencyOncePerDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// AlertRule is a user-defined price alert on a single symbol.
type AlertRule struct {
	ID              string
	OwnerID         string
	Name            string
	Symbol          string
	Company         string
	Condition       Condition
	Threshold       decimal.Decimal
	Frequency       Frequency
	LastTriggeredAt *time.Time
	CreatedAt       time.Time
}

// Normalize applies the canonical form the store expects: uppercase symbol,
// trimmed name and company, default frequency.
func (r *AlertRule) Normalize() {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	r.Name = strings.TrimSpace(r.Name)
	r.Company = strings.TrimSpace(r.Company)
	if r.Frequency == "" {
		r.Frequency = DefaultFrequency
	}
}

// Validate checks the rule invariants. Rules that fail validation must never
// reach the active set.
func (r *AlertRule) Validate() error {
	if r.Symbol == "" {
		return apperrors.NewRuleError(r.ID, "symbol", "must not be empty")
	}
	if r.Condition != ConditionGreater && r.Condition != ConditionLess {
		return apperrors.NewRuleError(r.ID, "condition", "must be greater or less")
	}
	if !r.Threshold.IsPositive() {
		return apperrors.NewRuleError(r.ID, "threshold", "must be positive")
	}
	switch r.Frequency {
	case FrequencyOncePerDay, FrequencyOncePerHour, FrequencyRealTime:
	default:
		return apperrors.NewRuleError(r.ID, "frequency", "unknown frequency")
	}
	return nil
}
