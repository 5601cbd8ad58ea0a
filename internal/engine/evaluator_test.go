package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"watchlist-sentinel/internal/models"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		condition models.Condition
		threshold float64
		want      bool
	}{
		{"greater above", 151.20, models.ConditionGreater, 150.00, true},
		{"greater below", 149.99, models.ConditionGreater, 150.00, false},
		{"greater at threshold", 150.00, models.ConditionGreater, 150.00, false},
		{"less below", 99.50, models.ConditionLess, 100.00, true},
		{"less above", 100.01, models.ConditionLess, 100.00, false},
		{"less at threshold", 100.00, models.ConditionLess, 100.00, false},
		{"unknown condition", 151.20, models.Condition("between"), 150.00, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Matches(tt.price, tt.condition, decimal.NewFromFloat(tt.threshold))
			if got != tt.want {
				t.Errorf("Matches(%v, %s, %v) = %v, want %v",
					tt.price, tt.condition, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestMatchesNeitherDirectionInsideBand(t *testing.T) {
	// Two rules on the same symbol, one above and one below the quote.
	price := 650.0
	if Matches(price, models.ConditionGreater, decimal.NewFromInt(700)) {
		t.Error("greater@700 must not match at 650")
	}
	if Matches(price, models.ConditionLess, decimal.NewFromInt(600)) {
		t.Error("less@600 must not match at 650")
	}
}
