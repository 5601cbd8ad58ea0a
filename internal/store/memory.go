package store

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "watchlist-sentinel/internal/errors"
	"watchlist-sentinel/internal/models"
)

// MemoryStore is an in-memory RuleStore used in tests and single-shot runs.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string]models.AlertRule
}

// NewMemoryStore creates an empty in-memory rule store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rules: make(map[string]models.AlertRule)}
}

// ActiveRules returns a snapshot of every rule ordered by creation time.
func (s *MemoryStore) ActiveRules(ctx context.Context) ([]models.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]models.AlertRule, 0, len(s.rules))
	for _, r := range s.rules {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].ID < rules[j].ID
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
	return rules, nil
}

// RecordFired stamps a rule's last-triggered time if the rule still exists.
func (s *MemoryStore) RecordFired(ctx context.Context, ruleID string, firedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[ruleID]
	if !ok {
		return apperrors.ErrRuleNotFound
	}
	fired := firedAt
	rule.LastTriggeredAt = &fired
	s.rules[ruleID] = rule
	return nil
}

// CreateRule validates, normalizes and stores a rule.
func (s *MemoryStore) CreateRule(ctx context.Context, rule *models.AlertRule) error {
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.ID == "" {
		rule.ID = NewRuleID()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.ID] = *rule
	return nil
}

// UpdateRule updates the owner-editable fields of a rule.
func (s *MemoryStore) UpdateRule(ctx context.Context, rule *models.AlertRule) error {
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rules[rule.ID]
	if !ok || existing.OwnerID != rule.OwnerID {
		return apperrors.ErrRuleNotFound
	}
	existing.Name = rule.Name
	existing.Condition = rule.Condition
	existing.Threshold = rule.Threshold
	existing.Frequency = rule.Frequency
	s.rules[rule.ID] = existing
	return nil
}

// DeleteRule removes a rule owned by ownerID.
func (s *MemoryStore) DeleteRule(ctx context.Context, ownerID, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rules[ruleID]
	if !ok || existing.OwnerID != ownerID {
		return apperrors.ErrRuleNotFound
	}
	delete(s.rules, ruleID)
	return nil
}

// ListRules returns the rules owned by ownerID, newest first.
func (s *MemoryStore) ListRules(ctx context.Context, ownerID string) ([]models.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rules []models.AlertRule
	for _, r := range s.rules {
		if r.OwnerID == ownerID {
			rules = append(rules, r)
		}
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].CreatedAt.After(rules[j].CreatedAt)
	})
	return rules, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
