// Package quote wraps the upstream price-quote API. It issues one request per
// symbol, distinguishes rate limiting from transient failure, and abandons the
// rest of a batch once the provider signals rate limiting.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"watchlist-sentinel/internal/config"
	apperrors "watchlist-sentinel/internal/errors"
	"watchlist-sentinel/internal/models"
)

// Source fetches the current quote for a single symbol.
type Source interface {
	FetchQuote(ctx context.Context, symbol string) (models.Quote, error)
}

// quoteResponse mirrors the upstream quote payload.
type quoteResponse struct {
	Current       float64 `json:"c"`
	ChangePercent float64 `json:"dp"`
	Timestamp     int64   `json:"t"`
}

// Client is an HTTP quote source.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a quote client from configuration.
func NewClient(cfg config.QuoteConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		timeout: cfg.FetchTimeout,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		logger: logger.With().Str("component", "quote").Logger(),
	}
}

// FetchQuote fetches the current quote for a symbol.
//
// HTTP 429 maps to ErrRateLimited; any other failure (non-200 status, network
// error, timeout, empty payload) maps to ErrUnavailable. The distinction
// matters: rate limiting abandons the rest of the cycle's batch, while an
// unavailable symbol is simply skipped.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Quote{}, apperrors.NewQuoteError(symbol, 0, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Str("symbol", symbol).Err(err).Msg("quote request failed")
		return models.Quote{}, apperrors.NewQuoteError(symbol, 0,
			fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn().Str("symbol", symbol).Msg("upstream rate limit reached")
		return models.Quote{}, apperrors.NewQuoteError(symbol, resp.StatusCode, apperrors.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return models.Quote{}, apperrors.NewQuoteError(symbol, resp.StatusCode, apperrors.ErrUnavailable)
	}

	var payload quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Quote{}, apperrors.NewQuoteError(symbol, resp.StatusCode,
			fmt.Errorf("%w: decoding response: %v", apperrors.ErrUnavailable, err))
	}

	// The provider returns an all-zero payload for unknown symbols.
	if payload.Current == 0 {
		return models.Quote{}, apperrors.NewQuoteError(symbol, resp.StatusCode,
			fmt.Errorf("%w: empty quote", apperrors.ErrUnavailable))
	}

	observedAt := time.Now()
	if payload.Timestamp > 0 {
		observedAt = time.Unix(payload.Timestamp, 0)
	}

	return models.Quote{
		Symbol:        symbol,
		Price:         payload.Current,
		ChangePercent: payload.ChangePercent,
		ObservedAt:    observedAt,
	}, nil
}
