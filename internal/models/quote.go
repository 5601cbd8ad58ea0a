package models

import "time"

// Quote is a single observed price for a symbol.
type Quote struct {
	Symbol        string
	Price         float64
	ChangePercent float64
	ObservedAt    time.Time
}
