// Package store provides rule persistence interfaces and implementations.
package store

import (
	"context"
	"fmt"
	"time"

	"watchlist-sentinel/internal/models"
)

// RuleStore is the engine's view of alert-rule persistence.
//
// ActiveRules returns a snapshot of every non-deleted rule; ordering is stable
// (creation time) so grouping by symbol is deterministic within one cycle.
// RecordFired is the only mutation the engine performs: it is conditional on
// the rule still existing and returns ErrRuleNotFound when the rule vanished
// between snapshot and write-back. It must never resurrect a deleted rule.
//
// The remaining methods are the owner-facing CRUD surface used by the CLI.
type RuleStore interface {
	ActiveRules(ctx context.Context) ([]models.AlertRule, error)
	RecordFired(ctx context.Context, ruleID string, firedAt time.Time) error

	CreateRule(ctx context.Context, rule *models.AlertRule) error
	UpdateRule(ctx context.Context, rule *models.AlertRule) error
	DeleteRule(ctx context.Context, ownerID, ruleID string) error
	ListRules(ctx context.Context, ownerID string) ([]models.AlertRule, error)

	Close() error
}

// NewRuleID generates a unique rule identifier.
func NewRuleID() string {
	return fmt.Sprintf("RULE-%d", time.Now().UnixNano())
}
