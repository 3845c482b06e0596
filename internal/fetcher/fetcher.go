package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"marketfetcher/internal/cache"
	"marketfetcher/internal/table"
)

const (
	// DefaultMaxRetries bounds the retry loop for one fetch.
	DefaultMaxRetries = 5
	// DefaultBaseDelay is the backoff unit; attempt n sleeps BaseDelay * 2^n.
	DefaultBaseDelay = 3 * time.Second
)

// Source is the external market-data provider boundary. Download may fail,
// may return an empty table, and may return a multi-ticker-shaped table
// with qualified column names; the fetcher handles all three.
type Source interface {
	Download(ctx context.Context, ticker string, q Query) (*table.Table, error)
}

// Config tunes the retry loop.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Fetcher runs the cache -> fetch-with-retry -> cache pipeline for a single
// logical request. Cache hits short-circuit the network entirely; misses
// enter a bounded retry loop with exponential backoff applied before every
// attempt, including the first, to throttle bursts against the provider.
type Fetcher struct {
	src        Source
	store      *cache.Store
	log        logrus.FieldLogger
	maxRetries int
	baseDelay  time.Duration

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Fetcher. A non-positive retry count falls back to the
// default; a zero BaseDelay disables backoff (useful in tests), while a
// negative one falls back to the default.
func New(src Source, store *cache.Store, log logrus.FieldLogger, cfg Config) *Fetcher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	return &Fetcher{
		src:        src,
		store:      store,
		log:        log,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		sleep:      sleepContext,
	}
}

// FetchInterval retrieves interval-mode data: a rolling period (default
// "max") of bars at the given interval, cached under (ticker, interval).
func (f *Fetcher) FetchInterval(ctx context.Context, ticker, interval, period string) (*table.Table, error) {
	if err := ValidateInterval(interval); err != nil {
		return nil, err
	}
	if period == "" {
		period = "max"
	}

	key := cache.IntervalKey(ticker, interval)
	q := Query{Interval: interval, Period: period, AutoAdjust: true, PrePost: false}
	return f.fetch(ctx, ticker, key, q, func(t *table.Table) bool {
		return f.store.Put(t, key)
	})
}

// FetchRange retrieves range-mode data: daily bars from start up to end,
// cached under (ticker, start, end). Storing the result sweeps
// any older entry for the same (ticker, start) with a different end.
func (f *Fetcher) FetchRange(ctx context.Context, ticker, start, end string) (*table.Table, error) {
	if err := ValidateDate(start); err != nil {
		return nil, err
	}
	if err := ValidateDate(end); err != nil {
		return nil, err
	}

	key := cache.RangeKey(ticker, start, end)
	q := Query{Start: start, End: end, Interval: "1d", AutoAdjust: true, PrePost: false}
	return f.fetch(ctx, ticker, key, q, func(t *table.Table) bool {
		return f.store.PutRange(t, ticker, start, end)
	})
}

// fetch is the shared skeleton behind both addressing modes; only the key
// and the store operation differ.
func (f *Fetcher) fetch(ctx context.Context, ticker, key string, q Query, persist func(*table.Table) bool) (*table.Table, error) {
	if cached := f.store.Get(key); cached != nil {
		f.log.WithFields(logrus.Fields{"ticker": ticker, "key": key}).Debug("cache hit")
		return cached, nil
	}

	log := f.log.WithFields(logrus.Fields{"ticker": ticker, "key": key})
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if err := f.sleep(ctx, f.backoff(attempt)); err != nil {
			return nil, err
		}

		t, err := f.src.Download(ctx, ticker, q)
		if err != nil {
			kind, retryable := errorFields(err)
			log.WithError(err).WithFields(logrus.Fields{
				"attempt":    attempt + 1,
				"error_type": kind,
				"retryable":  retryable,
			}).Error("fetch attempt failed")
			if attempt == f.maxRetries-1 {
				return nil, fmt.Errorf("fetch for %s failed after %d attempts: %w", ticker, f.maxRetries, err)
			}
			continue
		}

		if !t.Empty() {
			result := t.SliceTicker(ticker)
			result.NormalizeDates()
			// A failed cache write is logged inside the store; the data we
			// already hold still goes back to the caller.
			persist(result)
			return result, nil
		}

		log.WithField("attempt", attempt+1).Warn("provider returned no data")
	}
	return nil, fmt.Errorf("no data for %s after %d attempts", ticker, f.maxRetries)
}

// backoff returns the delay applied before the given zero-based attempt.
func (f *Fetcher) backoff(attempt int) time.Duration {
	return f.baseDelay * (1 << attempt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
