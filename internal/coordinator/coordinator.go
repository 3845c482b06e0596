package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"marketfetcher/internal/fetcher"
	"marketfetcher/internal/table"
)

// Request describes one per-ticker fetch task. Start and End select
// range-mode; otherwise Interval selects interval-mode with a rolling
// "max" period.
type Request struct {
	Ticker   string
	Start    string
	End      string
	Interval string
}

// Result is the outcome of one request. If Err is not nil, Table should be
// considered invalid.
type Result struct {
	Ticker string
	Table  *table.Table
	Err    error
}

// Coordinator runs fetch requests on a bounded worker pool. Tasks are
// independent; the cache store they share does its own locking, and the
// slow parts (backoff, network) run concurrently across workers.
type Coordinator struct {
	fetch   *fetcher.Fetcher
	workers int
	log     logrus.FieldLogger
}

// New creates a Coordinator with the given pool size (minimum 1).
func New(f *fetcher.Fetcher, workers int, log logrus.FieldLogger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{
		fetch:   f,
		workers: workers,
		log:     log,
	}
}

// Run executes all requests and returns one result per request, in no
// particular order. Cancelling the context stops submission of new tasks;
// tasks already picked up finish (or fail) naturally and unsubmitted
// requests come back with the context's error.
func (c *Coordinator) Run(ctx context.Context, reqs []Request) ([]Result, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no requests to run")
	}

	jobs := make(chan Request)
	results := make(chan Result, len(reqs))

	var wg sync.WaitGroup
	workers := c.workers
	if workers > len(reqs) {
		workers = len(reqs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				results <- c.execute(ctx, req)
			}
		}()
	}

	// Feed jobs, stopping as soon as the context is cancelled.
	go func() {
		defer close(jobs)
		for _, req := range reqs {
			select {
			case <-ctx.Done():
				results <- Result{Ticker: req.Ticker, Err: ctx.Err()}
			case jobs <- req:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Result, 0, len(reqs))
	for res := range results {
		if res.Err != nil {
			c.log.WithError(res.Err).WithField("ticker", res.Ticker).Error("fetch failed")
		} else {
			c.log.WithFields(logrus.Fields{"ticker": res.Ticker, "rows": res.Table.Len()}).Info("fetch succeeded")
		}
		out = append(out, res)
	}
	return out, nil
}

func (c *Coordinator) execute(ctx context.Context, req Request) Result {
	var (
		t   *table.Table
		err error
	)
	if req.Start != "" && req.End != "" {
		t, err = c.fetch.FetchRange(ctx, req.Ticker, req.Start, req.End)
	} else {
		t, err = c.fetch.FetchInterval(ctx, req.Ticker, req.Interval, "max")
	}
	return Result{Ticker: req.Ticker, Table: t, Err: err}
}
