package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"watchlist-sentinel/internal/models"
)

// Property: for any valid rule, creating it and reading it back through the
// active-set snapshot produces an equivalent rule. The threshold in particular
// must round-trip exactly, since the evaluator's strict comparison depends on
// the stored value being the value the user entered.
func TestProperty_RuleRoundTripConsistency(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rules_property.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "TSLA", "GOOG", "MSFT", "AMZN", "NVDA", "META", "NFLX"}
	conditionGen := gen.OneConstOf(models.ConditionGreater, models.ConditionLess)
	frequencyGen := gen.OneConstOf(models.FrequencyOncePerDay, models.FrequencyOncePerHour, models.FrequencyRealTime)
	// Two-decimal prices in cents, so the exact stored value is known.
	centsGen := gen.Int64Range(1, 100_000_00)

	properties.Property("Rule round-trip: create then snapshot produces equivalent rule", prop.ForAll(
		func(symbolIdx int, condition models.Condition, frequency models.Frequency, cents int64) bool {
			ctx := context.Background()

			rule := &models.AlertRule{
				OwnerID:   "owner-prop",
				Name:      "prop rule",
				Symbol:    symbols[symbolIdx%len(symbols)],
				Condition: condition,
				Threshold: decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)),
				Frequency: frequency,
			}
			if err := store.CreateRule(ctx, rule); err != nil {
				t.Logf("Failed to create rule: %v", err)
				return false
			}

			rules, err := store.ActiveRules(ctx)
			if err != nil {
				t.Logf("Failed to snapshot rules: %v", err)
				return false
			}

			for _, got := range rules {
				if got.ID != rule.ID {
					continue
				}
				if got.Symbol != rule.Symbol {
					t.Logf("Symbol mismatch: %q vs %q", got.Symbol, rule.Symbol)
					return false
				}
				if got.Condition != condition || got.Frequency != frequency {
					t.Logf("Condition/frequency mismatch: %+v", got)
					return false
				}
				if !got.Threshold.Equal(rule.Threshold) {
					t.Logf("Threshold mismatch: stored=%s original=%s", got.Threshold, rule.Threshold)
					return false
				}
				return true
			}
			t.Logf("Created rule %s missing from snapshot", rule.ID)
			return false
		},
		gen.IntRange(0, len(symbols)-1),
		conditionGen,
		frequencyGen,
		centsGen,
	))

	// Recording a fire for a freshly created rule must always stick: the next
	// snapshot carries the exact timestamp.
	properties.Property("RecordFired: timestamp is visible in the next snapshot", prop.ForAll(
		func(symbolIdx int, minuteOffset int) bool {
			ctx := context.Background()

			rule := &models.AlertRule{
				OwnerID:   "owner-prop",
				Name:      "fire prop",
				Symbol:    symbols[symbolIdx%len(symbols)],
				Condition: models.ConditionGreater,
				Threshold: decimal.NewFromInt(100),
				Frequency: models.FrequencyOncePerDay,
			}
			if err := store.CreateRule(ctx, rule); err != nil {
				t.Logf("Failed to create rule: %v", err)
				return false
			}

			firedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC).Add(time.Duration(minuteOffset) * time.Minute)
			if err := store.RecordFired(ctx, rule.ID, firedAt); err != nil {
				t.Logf("Failed to record fire: %v", err)
				return false
			}

			rules, err := store.ActiveRules(ctx)
			if err != nil {
				t.Logf("Failed to snapshot rules: %v", err)
				return false
			}
			for _, got := range rules {
				if got.ID != rule.ID {
					continue
				}
				return got.LastTriggeredAt != nil && got.LastTriggeredAt.Equal(firedAt)
			}
			return false
		},
		gen.IntRange(0, len(symbols)-1),
		gen.IntRange(0, 60*24*30),
	))

	properties.TestingRun(t)
}
