package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"watchlist-sentinel/internal/config"
	"watchlist-sentinel/internal/models"
)

func sampleEvent() models.NotificationEvent {
	return models.NotificationEvent{
		RuleID:       "RULE-1",
		RuleName:     "breakout",
		OwnerID:      "owner-1",
		Symbol:       "AAPL",
		Company:      "Apple Inc",
		MatchedPrice: 151.20,
		Condition:    models.ConditionGreater,
		Threshold:    decimal.NewFromFloat(150.00),
		FiredAt:      time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
	}
}

func TestRender(t *testing.T) {
	n := render(sampleEvent())

	if n.Title != "Price Alert: AAPL (breakout)" {
		t.Errorf("Title = %q", n.Title)
	}
	if !strings.Contains(n.Message, "$151.20") {
		t.Errorf("message missing matched price: %q", n.Message)
	}
	if !strings.Contains(n.Message, "> $150.00") {
		t.Errorf("message missing condition: %q", n.Message)
	}
	if n.Data["symbol"] != "AAPL" {
		t.Errorf("Data[symbol] = %v", n.Data["symbol"])
	}
}

func TestRenderLessCondition(t *testing.T) {
	event := sampleEvent()
	event.Condition = models.ConditionLess
	event.Threshold = decimal.NewFromFloat(120.50)

	n := render(event)
	if !strings.Contains(n.Message, "< $120.50") {
		t.Errorf("message missing less condition: %q", n.Message)
	}
}

type stubChannel struct {
	mu      sync.Mutex
	name    string
	enabled bool
	err     error
	sent    []Notification
}

func (s *stubChannel) Name() string    { return s.name }
func (s *stubChannel) IsEnabled() bool { return s.enabled }
func (s *stubChannel) Send(ctx context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.err
}

func TestMultiNotifierFansOut(t *testing.T) {
	mn := NewMultiNotifier(config.NotificationConfig{}, zerolog.Nop())
	a := &stubChannel{name: "a", enabled: true}
	b := &stubChannel{name: "b", enabled: true}
	disabled := &stubChannel{name: "c", enabled: false}
	mn.AddChannel(a)
	mn.AddChannel(b)
	mn.AddChannel(disabled)

	if err := mn.SendAlert(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("SendAlert: %v", err)
	}

	if len(a.sent) != 1 || len(b.sent) != 1 {
		t.Errorf("enabled channels not reached: a=%d b=%d", len(a.sent), len(b.sent))
	}
	if len(disabled.sent) != 0 {
		t.Error("disabled channel received a notification")
	}
}

func TestMultiNotifierChannelFailureDoesNotStopOthers(t *testing.T) {
	mn := NewMultiNotifier(config.NotificationConfig{}, zerolog.Nop())
	failing := &stubChannel{name: "failing", enabled: true, err: errors.New("boom")}
	healthy := &stubChannel{name: "healthy", enabled: true}
	mn.AddChannel(failing)
	mn.AddChannel(healthy)

	err := mn.SendAlert(context.Background(), sampleEvent())
	if err == nil {
		t.Fatal("expected an aggregated error")
	}
	if !strings.Contains(err.Error(), "failing") {
		t.Errorf("error should name the failing channel: %v", err)
	}
	if len(healthy.sent) != 1 {
		t.Error("healthy channel skipped after a sibling failure")
	}
}

func TestWebhookChannelPostsJSON(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
	}))
	defer srv.Close()

	ch := NewWebhookChannel(config.WebhookConfig{Enabled: true, URL: srv.URL})
	n := render(sampleEvent())
	if err := ch.Send(context.Background(), n); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got["title"] != n.Title {
		t.Errorf("title = %v, want %q", got["title"], n.Title)
	}
}

func TestWebhookChannelRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
	}))
	defer srv.Close()

	ch := NewWebhookChannel(config.WebhookConfig{Enabled: true, URL: srv.URL})
	if err := ch.Send(context.Background(), render(sampleEvent())); err != nil {
		t.Fatalf("Send should succeed after retries: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWebhookChannelDisabledWithoutURL(t *testing.T) {
	ch := NewWebhookChannel(config.WebhookConfig{Enabled: true, URL: ""})
	if ch.IsEnabled() {
		t.Error("channel must be disabled without a URL")
	}
}
