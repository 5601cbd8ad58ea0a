package engine

import (
	"testing"
	"time"

	"watchlist-sentinel/internal/models"
)

func TestAllowed(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	hourAgo := now.Add(-time.Hour)
	tenMinAgo := now.Add(-10 * time.Minute)
	dayAgo := now.Add(-24 * time.Hour)
	almostDayAgo := now.Add(-24*time.Hour + time.Second)

	tests := []struct {
		name      string
		frequency models.Frequency
		last      *time.Time
		want      bool
	}{
		{"real_time never fired", models.FrequencyRealTime, nil, true},
		{"real_time just fired", models.FrequencyRealTime, &tenMinAgo, true},
		{"hourly never fired", models.FrequencyOncePerHour, nil, true},
		{"hourly fired 10m ago", models.FrequencyOncePerHour, &tenMinAgo, false},
		{"hourly fired exactly 1h ago", models.FrequencyOncePerHour, &hourAgo, true},
		{"daily never fired", models.FrequencyOncePerDay, nil, true},
		{"daily fired 10m ago", models.FrequencyOncePerDay, &tenMinAgo, false},
		{"daily fired just under 24h ago", models.FrequencyOncePerDay, &almostDayAgo, false},
		{"daily fired exactly 24h ago", models.FrequencyOncePerDay, &dayAgo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Allowed(tt.frequency, tt.last, now)
			if got != tt.want {
				t.Errorf("Allowed(%s, %v, %v) = %v, want %v",
					tt.frequency, tt.last, now, got, tt.want)
			}
		})
	}
}

func TestWindowMeasuredFromPreviousFire(t *testing.T) {
	// A daily rule that fired at 09:00 stays ineligible through the day and
	// becomes eligible again at 09:00 the next day, not at cycle boundaries.
	fired := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{time.Minute, time.Hour, 12 * time.Hour, 23 * time.Hour} {
		if Allowed(models.FrequencyOncePerDay, &fired, fired.Add(offset)) {
			t.Errorf("daily rule allowed %v after fire", offset)
		}
	}
	if !Allowed(models.FrequencyOncePerDay, &fired, fired.Add(24*time.Hour)) {
		t.Error("daily rule must be eligible 24h after fire")
	}
}
