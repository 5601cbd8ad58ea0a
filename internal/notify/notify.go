// Package notify delivers notification events to the configured channels.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"watchlist-sentinel/internal/config"
	"watchlist-sentinel/internal/models"
)

// Notifier is the engine's notification sink.
type Notifier interface {
	SendAlert(ctx context.Context, event models.NotificationEvent) error
}

// Channel is a single delivery channel.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification is a rendered message, ready for any channel.
type Notification struct {
	Title     string
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// MultiNotifier fans an event out to every enabled channel.
type MultiNotifier struct {
	channels []Channel
	logger   zerolog.Logger
	mu       sync.RWMutex
}

// NewMultiNotifier creates a notifier with the channels enabled in cfg.
func NewMultiNotifier(cfg config.NotificationConfig, logger zerolog.Logger) *MultiNotifier {
	mn := &MultiNotifier{
		logger: logger.With().Str("component", "notify").Logger(),
	}

	if cfg.Terminal {
		mn.channels = append(mn.channels, NewTerminalChannel())
	}
	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookChannel(cfg.Webhook))
	}
	if cfg.Telegram.Enabled {
		mn.channels = append(mn.channels, NewTelegramChannel(cfg.Telegram))
	}
	if cfg.Email.Enabled {
		mn.channels = append(mn.channels, NewEmailChannel(cfg.Email))
	}

	return mn
}

// AddChannel adds a delivery channel.
func (mn *MultiNotifier) AddChannel(ch Channel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// SendAlert renders the event and sends it to every enabled channel. Channel
// failures are collected but do not stop the remaining channels.
func (mn *MultiNotifier) SendAlert(ctx context.Context, event models.NotificationEvent) error {
	n := render(event)

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	for _, ch := range channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Send(ctx, n); err != nil {
			mn.logger.Warn().Err(err).Str("channel", ch.Name()).Str("rule", event.RuleID).
				Msg("channel delivery failed")
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// render formats an event the way the watchlist card showed it.
func render(event models.NotificationEvent) Notification {
	op := ">"
	if event.Condition == models.ConditionLess {
		op = "<"
	}

	title := fmt.Sprintf("Price Alert: %s", event.Symbol)
	if event.RuleName != "" {
		title = fmt.Sprintf("Price Alert: %s (%s)", event.Symbol, event.RuleName)
	}

	message := fmt.Sprintf("%s (%s) is trading at $%.2f, alert condition: price %s $%s",
		companyOrSymbol(event), event.Symbol, event.MatchedPrice, op, event.Threshold.StringFixed(2))

	return Notification{
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"rule_id":       event.RuleID,
			"owner_id":      event.OwnerID,
			"symbol":        event.Symbol,
			"company":       event.Company,
			"matched_price": event.MatchedPrice,
			"condition":     string(event.Condition),
			"threshold":     event.Threshold.String(),
			"fired_at":      event.FiredAt.Format(time.RFC3339),
		},
		Timestamp: event.FiredAt,
	}
}

func companyOrSymbol(event models.NotificationEvent) string {
	if event.Company != "" {
		return event.Company
	}
	return event.Symbol
}

// NoOpNotifier discards every event (for tests and disabled setups).
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// SendAlert does nothing.
func (n *NoOpNotifier) SendAlert(ctx context.Context, event models.NotificationEvent) error {
	return nil
}
