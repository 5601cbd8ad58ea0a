package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "watchlist-sentinel/internal/errors"
	"watchlist-sentinel/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sentinel_test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRule(symbol string) *models.AlertRule {
	return &models.AlertRule{
		OwnerID:   "owner-1",
		Name:      symbol + " breakout",
		Symbol:    symbol,
		Company:   symbol + " Inc",
		Condition: models.ConditionGreater,
		Threshold: decimal.NewFromFloat(150.00),
		Frequency: models.FrequencyOncePerDay,
	}
}

func TestCreateAndListRules(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rule := sampleRule("aapl")
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if rule.ID == "" {
		t.Fatal("expected a generated rule ID")
	}

	rules, err := s.ListRules(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}

	got := rules[0]
	if got.Symbol != "AAPL" {
		t.Errorf("symbol not normalized: %q", got.Symbol)
	}
	if !got.Threshold.Equal(decimal.NewFromFloat(150.00)) {
		t.Errorf("threshold round-trip mismatch: %s", got.Threshold)
	}
	if got.LastTriggeredAt != nil {
		t.Error("fresh rule must have no last-triggered timestamp")
	}
}

func TestCreateRuleRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rule *models.AlertRule
	}{
		{"empty symbol", &models.AlertRule{OwnerID: "o", Condition: models.ConditionGreater, Threshold: decimal.NewFromInt(1)}},
		{"bad condition", &models.AlertRule{OwnerID: "o", Symbol: "AAPL", Condition: "between", Threshold: decimal.NewFromInt(1)}},
		{"zero threshold", &models.AlertRule{OwnerID: "o", Symbol: "AAPL", Condition: models.ConditionLess, Threshold: decimal.Zero}},
		{"negative threshold", &models.AlertRule{OwnerID: "o", Symbol: "AAPL", Condition: models.ConditionLess, Threshold: decimal.NewFromInt(-5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateRule(ctx, tt.rule)
			if !errors.Is(err, apperrors.ErrInvalidRule) {
				t.Errorf("expected ErrInvalidRule, got %v", err)
			}
		})
	}

	rules, err := s.ActiveRules(ctx)
	if err != nil {
		t.Fatalf("ActiveRules: %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("invalid rules must never reach the active set, found %d", len(rules))
	}
}

func TestActiveRulesOrderedByCreation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, sym := range []string{"MSFT", "AAPL", "GOOG"} {
		rule := sampleRule(sym)
		rule.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.CreateRule(ctx, rule); err != nil {
			t.Fatalf("CreateRule(%s): %v", sym, err)
		}
	}

	rules, err := s.ActiveRules(ctx)
	if err != nil {
		t.Fatalf("ActiveRules: %v", err)
	}
	var got []string
	for _, r := range rules {
		got = append(got, r.Symbol)
	}
	want := []string{"MSFT", "AAPL", "GOOG"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", got, want)
		}
	}
}

func TestRecordFired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rule := sampleRule("AAPL")
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	firedAt := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	if err := s.RecordFired(ctx, rule.ID, firedAt); err != nil {
		t.Fatalf("RecordFired: %v", err)
	}

	rules, _ := s.ActiveRules(ctx)
	if rules[0].LastTriggeredAt == nil {
		t.Fatal("last-triggered timestamp not persisted")
	}
	if !rules[0].LastTriggeredAt.Equal(firedAt) {
		t.Errorf("LastTriggeredAt = %v, want %v", rules[0].LastTriggeredAt, firedAt)
	}
}

func TestRecordFiredAfterDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rule := sampleRule("AAPL")
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if err := s.DeleteRule(ctx, rule.OwnerID, rule.ID); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}

	err := s.RecordFired(ctx, rule.ID, time.Now())
	if !errors.Is(err, apperrors.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}

	// The conditional UPDATE must not resurrect the row.
	rules, _ := s.ActiveRules(ctx)
	if len(rules) != 0 {
		t.Errorf("deleted rule reappeared: %+v", rules)
	}
}

func TestUpdateRulePreservesThrottleState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rule := sampleRule("AAPL")
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	firedAt := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	if err := s.RecordFired(ctx, rule.ID, firedAt); err != nil {
		t.Fatalf("RecordFired: %v", err)
	}

	rule.Threshold = decimal.NewFromFloat(175.50)
	rule.Frequency = models.FrequencyOncePerHour
	if err := s.UpdateRule(ctx, rule); err != nil {
		t.Fatalf("UpdateRule: %v", err)
	}

	rules, _ := s.ActiveRules(ctx)
	got := rules[0]
	if !got.Threshold.Equal(decimal.NewFromFloat(175.50)) {
		t.Errorf("threshold not updated: %s", got.Threshold)
	}
	if got.Frequency != models.FrequencyOncePerHour {
		t.Errorf("frequency not updated: %s", got.Frequency)
	}
	if got.LastTriggeredAt == nil || !got.LastTriggeredAt.Equal(firedAt) {
		t.Errorf("edit must not touch the last-triggered timestamp, got %v", got.LastTriggeredAt)
	}
}

func TestDeleteRuleScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rule := sampleRule("AAPL")
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	if err := s.DeleteRule(ctx, "someone-else", rule.ID); !errors.Is(err, apperrors.ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound for foreign owner, got %v", err)
	}
	if err := s.DeleteRule(ctx, rule.OwnerID, rule.ID); err != nil {
		t.Fatalf("DeleteRule by owner: %v", err)
	}
}

func TestListRulesScopedToOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mine := sampleRule("AAPL")
	if err := s.CreateRule(ctx, mine); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	other := sampleRule("TSLA")
	other.OwnerID = "owner-2"
	if err := s.CreateRule(ctx, other); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	rules, err := s.ListRules(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(rules) != 1 || rules[0].Symbol != "AAPL" {
		t.Errorf("unexpected listing: %+v", rules)
	}
}
