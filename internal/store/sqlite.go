package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	apperrors "watchlist-sentinel/internal/errors"
	"watchlist-sentinel/internal/models"
)

// SQLiteStore implements RuleStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed rule store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS alert_rules (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		company TEXT,
		condition TEXT NOT NULL,
		threshold TEXT NOT NULL,
		frequency TEXT NOT NULL,
		last_triggered_at DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_alert_rules_owner ON alert_rules(owner_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_alert_rules_symbol ON alert_rules(symbol);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ActiveRules returns every stored rule ordered by creation time.
func (s *SQLiteStore) ActiveRules(ctx context.Context) ([]models.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, symbol, company, condition, threshold, frequency, last_triggered_at, created_at
		FROM alert_rules ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// RecordFired stamps a rule's last-triggered time. The UPDATE is conditional
// on the row still existing, so a rule deleted mid-cycle is never recreated.
func (s *SQLiteStore) RecordFired(ctx context.Context, ruleID string, firedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alert_rules SET last_triggered_at = ? WHERE id = ?
	`, firedAt.UTC(), ruleID)
	if err != nil {
		return fmt.Errorf("failed to record fire: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to record fire: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

// CreateRule validates, normalizes and inserts a rule, generating an ID when
// the caller did not supply one.
func (s *SQLiteStore) CreateRule(ctx context.Context, rule *models.AlertRule) error {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_rules (id, owner_id, name, symbol, company, condition, threshold, frequency, last_triggered_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rule.ID, rule.OwnerID, rule.Name, rule.Symbol, rule.Company,
		string(rule.Condition), rule.Threshold.String(), string(rule.Frequency),
		nullableTime(rule.LastTriggeredAt), rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

// UpdateRule updates the owner-editable fields of a rule. The last-triggered
// timestamp is engine-owned and deliberately left untouched.
func (s *SQLiteStore) UpdateRule(ctx context.Context, rule *models.AlertRule) error {
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE alert_rules SET name = ?, condition = ?, threshold = ?, frequency = ?
		WHERE id = ? AND owner_id = ?
	`, rule.Name, string(rule.Condition), rule.Threshold.String(), string(rule.Frequency),
		rule.ID, rule.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

// DeleteRule removes a rule owned by ownerID.
func (s *SQLiteStore) DeleteRule(ctx context.Context, ownerID, ruleID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM alert_rules WHERE id = ? AND owner_id = ?
	`, ruleID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.ErrRuleNotFound
	}
	return nil
}

// ListRules returns the rules owned by ownerID, newest first.
func (s *SQLiteStore) ListRules(ctx context.Context, ownerID string) ([]models.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, symbol, company, condition, threshold, frequency, last_triggered_at, created_at
		FROM alert_rules WHERE owner_id = ? ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRules(rows *sql.Rows) ([]models.AlertRule, error) {
	var rules []models.AlertRule
	for rows.Next() {
		var (
			r         models.AlertRule
			company   sql.NullString
			condition string
			threshold string
			frequency string
			lastFired sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Name, &r.Symbol, &company,
			&condition, &threshold, &frequency, &lastFired, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		r.Company = company.String
		r.Condition = models.Condition(condition)
		r.Frequency = models.Frequency(frequency)

		t, err := decimal.NewFromString(threshold)
		if err != nil {
			return nil, fmt.Errorf("failed to parse threshold for rule %s: %w", r.ID, err)
		}
		r.Threshold = t

		if lastFired.Valid {
			fired := lastFired.Time
			r.LastTriggeredAt = &fired
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
