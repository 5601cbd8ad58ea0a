package quote

import (
	"context"
	"sync"
	"sync/atomic"

	apperrors "watchlist-sentinel/internal/errors"
	"watchlist-sentinel/internal/models"
)

// Result is the outcome of one symbol's fetch within a batch. Exactly one of
// Quote or Err is meaningful.
type Result struct {
	Quote models.Quote
	Err   error
}

// Fetcher fetches a batch of symbols through a Source with bounded
// parallelism. It holds no state across batches; every batch starts cold.
type Fetcher struct {
	src         Source
	concurrency int
}

// NewFetcher creates a batch fetcher. Concurrency values below one are
// treated as one.
func NewFetcher(src Source, concurrency int) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fetcher{src: src, concurrency: concurrency}
}

// FetchBatch fetches one quote per distinct symbol, preserving first-seen
// order when dispatching. Once any fetch reports rate limiting, symbols not
// yet dispatched are marked rate limited without a request: the provider has
// told us further calls in this batch would burn budget for nothing.
func (f *Fetcher) FetchBatch(ctx context.Context, symbols []string) map[string]Result {
	symbols = dedupe(symbols)
	results := make(map[string]Result, len(symbols))
	if len(symbols) == 0 {
		return results
	}

	var (
		mu      sync.Mutex
		limited atomic.Bool
		wg      sync.WaitGroup
	)

	jobs := make(chan string)

	workers := f.concurrency
	if workers > len(symbols) {
		workers = len(symbols)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				res := f.fetchOne(ctx, symbol, &limited)
				mu.Lock()
				results[symbol] = res
				mu.Unlock()
			}
		}()
	}

	for _, symbol := range symbols {
		jobs <- symbol
	}
	close(jobs)
	wg.Wait()

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, symbol string, limited *atomic.Bool) Result {
	if limited.Load() {
		return Result{Err: apperrors.NewQuoteError(symbol, 0, apperrors.ErrRateLimited)}
	}
	if ctx.Err() != nil {
		return Result{Err: apperrors.NewQuoteError(symbol, 0, apperrors.ErrUnavailable)}
	}

	q, err := f.src.FetchQuote(ctx, symbol)
	if err != nil {
		if apperrors.IsRateLimited(err) {
			limited.Store(true)
		}
		return Result{Err: err}
	}
	return Result{Quote: q}
}

// dedupe removes duplicate symbols while keeping first-seen order, so the
// dispatch order within a cycle is deterministic.
func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
