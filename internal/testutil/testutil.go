package testutil

import (
	"context"
	"sync/atomic"
	"time"

	"marketfetcher/internal/fetcher"
	"marketfetcher/internal/table"
)

// MockSource is a mock implementation of the fetcher.Source interface for
// testing. It counts calls so tests can assert how often the network was
// (or wasn't) hit.
type MockSource struct {
	DownloadFunc func(ctx context.Context, ticker string, q fetcher.Query) (*table.Table, error)

	calls atomic.Int64
}

// Download implements the Source interface
func (m *MockSource) Download(ctx context.Context, ticker string, q fetcher.Query) (*table.Table, error) {
	m.calls.Add(1)
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, ticker, q)
	}
	return DailyTable(ticker, 5), nil
}

// Calls returns how many times Download was invoked.
func (m *MockSource) Calls() int {
	return int(m.calls.Load())
}

// DailyTable builds a small OHLCV table with n consecutive daily rows whose
// values are derived from the ticker, so cross-ticker mixups show up in
// assertions.
func DailyTable(ticker string, n int) *table.Table {
	t := table.New("Open", "High", "Low", "Close", "Volume")
	base := 0.0
	for _, r := range ticker {
		base += float64(r)
	}
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		px := base + float64(i)
		t.AppendRow(day.AddDate(0, 0, i), px, px+1, px-1, px+0.5, 1000+float64(i))
	}
	return t
}
