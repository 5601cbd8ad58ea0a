// Package engine implements alert evaluation: condition matching, notification
// throttling, and the cycle scheduler that ties them to the quote source and
// the rule store.
package engine

import (
	"github.com/shopspring/decimal"

	"watchlist-sentinel/internal/models"
)

// Matches reports whether a quoted price satisfies a rule's condition.
//
// Both comparisons are strict: a price exactly at the threshold never matches,
// so a run of stable quotes sitting on the threshold cannot fire repeatedly.
func Matches(price float64, condition models.Condition, threshold decimal.Decimal) bool {
	p := decimal.NewFromFloat(price)
	switch condition {
	case models.ConditionGreater:
		return p.GreaterThan(threshold)
	case models.ConditionLess:
		return p.LessThan(threshold)
	default:
		return false
	}
}
