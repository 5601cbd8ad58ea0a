package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotificationEvent is emitted for every rule the engine allows to fire.
// The engine does not persist events; delivery belongs to the sink.
type NotificationEvent struct {
	RuleID       string
	RuleName     string
	OwnerID      string
	Symbol       string
	Company      string
	MatchedPrice float64
	Condition    Condition
	Threshold    decimal.Decimal
	FiredAt      time.Time
}
