package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	apperrors "watchlist-sentinel/internal/errors"
	"watchlist-sentinel/internal/models"
	"watchlist-sentinel/internal/quote"
	"watchlist-sentinel/internal/store"
)

// Sink receives notification events for rules the engine allowed to fire.
// Delivery is fire-and-forget: a sink failure never affects throttle state.
type Sink interface {
	SendAlert(ctx context.Context, event models.NotificationEvent) error
}

// CycleStats summarizes one evaluation cycle.
type CycleStats struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Rules       int       `json:"rules"`
	Symbols     int       `json:"symbols"`
	Quotes      int       `json:"quotes"`
	RateLimited int       `json:"rate_limited"`
	Unavailable int       `json:"unavailable"`
	Matches     int       `json:"matches"`
	Fired       int       `json:"fired"`
	Suppressed  int       `json:"suppressed"`
}

// ErrCycleInProgress is returned when a cycle is requested while the previous
// one has not finished. Cycles never overlap on a single engine instance.
var ErrCycleInProgress = errors.New("evaluation cycle already in progress")

// Engine runs evaluation cycles: snapshot rules, fetch quotes, evaluate,
// throttle, emit, persist.
type Engine struct {
	store   store.RuleStore
	fetcher *quote.Fetcher
	sink    Sink
	logger  zerolog.Logger

	now func() time.Time

	running atomic.Bool

	mu        sync.RWMutex
	lastStats *CycleStats
}

// New creates an engine over the given store, batch fetcher and sink.
func New(ruleStore store.RuleStore, fetcher *quote.Fetcher, sink Sink, logger zerolog.Logger) *Engine {
	return &Engine{
		store:   ruleStore,
		fetcher: fetcher,
		sink:    sink,
		logger:  logger.With().Str("component", "engine").Logger(),
		now:     time.Now,
	}
}

// LastStats returns the stats of the most recently completed cycle, or nil if
// no cycle has run yet.
func (e *Engine) LastStats() *CycleStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastStats == nil {
		return nil
	}
	stats := *e.lastStats
	return &stats
}

// RunCycle executes one full evaluation cycle.
//
// The rule snapshot is read at the start of the cycle, after any previous
// cycle's persistence completed, so fires recorded in cycle N are visible to
// cycle N+1. A failure to obtain the snapshot aborts the whole cycle; every
// other failure is contained to its symbol or rule.
func (e *Engine) RunCycle(ctx context.Context) (CycleStats, error) {
	if !e.running.CompareAndSwap(false, true) {
		return CycleStats{}, ErrCycleInProgress
	}
	defer e.running.Store(false)

	stats := CycleStats{StartedAt: e.now()}

	rules, err := e.store.ActiveRules(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to load rule snapshot, skipping cycle")
		return stats, fmt.Errorf("loading rule snapshot: %w", err)
	}
	stats.Rules = len(rules)

	symbols := distinctSymbols(rules)
	stats.Symbols = len(symbols)

	// FETCH: all fetches complete (or are abandoned under rate limiting)
	// before any rule is evaluated.
	results := e.fetcher.FetchBatch(ctx, symbols)
	for _, res := range results {
		switch {
		case res.Err == nil:
			stats.Quotes++
		case apperrors.IsRateLimited(res.Err):
			stats.RateLimited++
		default:
			stats.Unavailable++
		}
	}

	if err := ctx.Err(); err != nil {
		e.finish(&stats)
		return stats, err
	}

	// EVALUATE / THROTTLE / EMIT / PERSIST, rule by rule.
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			e.finish(&stats)
			return stats, err
		}
		e.evaluateRule(ctx, rule, results, &stats)
	}

	e.finish(&stats)
	e.logger.Info().
		Int("rules", stats.Rules).
		Int("symbols", stats.Symbols).
		Int("quotes", stats.Quotes).
		Int("rate_limited", stats.RateLimited).
		Int("unavailable", stats.Unavailable).
		Int("matches", stats.Matches).
		Int("fired", stats.Fired).
		Int("suppressed", stats.Suppressed).
		Msg("evaluation cycle complete")

	return stats, nil
}

func (e *Engine) evaluateRule(ctx context.Context, rule models.AlertRule, results map[string]quote.Result, stats *CycleStats) {
	res, ok := results[rule.Symbol]
	if !ok || res.Err != nil {
		// No usable quote this cycle: the rule is skipped, not failed. The
		// next successful cycle re-evaluates it.
		return
	}

	if !Matches(res.Quote.Price, rule.Condition, rule.Threshold) {
		return
	}
	stats.Matches++

	firedAt := e.now()
	if !Allowed(rule.Frequency, rule.LastTriggeredAt, firedAt) {
		stats.Suppressed++
		e.logger.Debug().
			Str("rule", rule.ID).
			Str("symbol", rule.Symbol).
			Str("frequency", string(rule.Frequency)).
			Msg("match suppressed by throttle")
		return
	}

	event := models.NotificationEvent{
		RuleID:       rule.ID,
		RuleName:     rule.Name,
		OwnerID:      rule.OwnerID,
		Symbol:       rule.Symbol,
		Company:      rule.Company,
		MatchedPrice: res.Quote.Price,
		Condition:    rule.Condition,
		Threshold:    rule.Threshold,
		FiredAt:      firedAt,
	}

	// Emit before persisting. If the write-back fails we may notify again
	// next cycle; a duplicate costs far less than a lost notification.
	if err := e.sink.SendAlert(ctx, event); err != nil {
		e.logger.Warn().Err(err).Str("rule", rule.ID).Msg("notification delivery failed")
	}
	stats.Fired++

	if err := e.store.RecordFired(ctx, rule.ID, firedAt); err != nil {
		if errors.Is(err, apperrors.ErrRuleNotFound) {
			// Rule deleted between snapshot and write-back. The event is
			// already out; nothing to roll back.
			e.logger.Debug().Str("rule", rule.ID).Msg("rule deleted mid-cycle, fire not recorded")
			return
		}
		e.logger.Warn().Err(err).Str("rule", rule.ID).Msg("failed to record fire")
	}
}

func (e *Engine) finish(stats *CycleStats) {
	stats.FinishedAt = e.now()
	e.mu.Lock()
	s := *stats
	e.lastStats = &s
	e.mu.Unlock()
}

// distinctSymbols collects the distinct symbols of a rule snapshot in
// first-seen order.
func distinctSymbols(rules []models.AlertRule) []string {
	seen := make(map[string]struct{}, len(rules))
	symbols := make([]string, 0, len(rules))
	for _, r := range rules {
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		symbols = append(symbols, r.Symbol)
	}
	return symbols
}
