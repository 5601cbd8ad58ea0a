package engine

import (
	"time"

	"watchlist-sentinel/internal/models"
)

// Allowed reports whether a fresh match may produce a notification.
//
// The window is measured from the previous fire, not from cycle start: a
// once-per-day rule that fired at 09:00 is not eligible again before 09:00
// the next day, no matter how many intervening cycles also matched. A rule
// that has never fired is always eligible.
func Allowed(frequency models.Frequency, lastTriggeredAt *time.Time, now time.Time) bool {
	if frequency == models.FrequencyRealTime {
		return true
	}
	if lastTriggeredAt == nil {
		return true
	}
	return now.Sub(*lastTriggeredAt) >= frequency.Window()
}
