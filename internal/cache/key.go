package cache

import (
	"sort"
	"strings"
	"time"
)

// Accepted layouts when normalizing date-like parameter values. Anything
// that parses is rewritten as YYYY-MM-DD; anything else is kept verbatim.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"01/02/2006",
}

// NormalizeDate rewrites a date-like string to YYYY-MM-DD with the
// time-of-day stripped. Malformed input is returned unchanged so that key
// derivation never fails outright on an odd value.
func NormalizeDate(value string) string {
	s := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return value
}

// DeriveKey builds the canonical cache key for a ticker and parameter set:
// the sanitized ticker followed by "name=value" pairs in lexicographic
// name order, joined with underscores. Equal parameter mappings produce
// identical keys regardless of how they were assembled, and date-like
// values are normalized first so equivalent spellings of the same date
// collide on purpose.
func DeriveKey(ticker string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names)+1)
	parts = append(parts, sanitize(ticker))
	for _, name := range names {
		parts = append(parts, name+"="+sanitize(NormalizeDate(params[name])))
	}
	return strings.Join(parts, "_")
}

// IntervalKey addresses interval-mode entries: one rolling-window entry per
// (ticker, interval).
func IntervalKey(ticker, interval string) string {
	return DeriveKey(ticker, map[string]string{"interval": interval})
}

// RangeKey addresses range-mode entries by ticker and bounded date range.
func RangeKey(ticker, start, end string) string {
	return DeriveKey(ticker, map[string]string{"start": start, "end": end})
}

// rangeSiblingPattern matches every range-mode key sharing (ticker, start),
// whatever its end date. Used to sweep superseded entries.
func rangeSiblingPattern(ticker, start string) string {
	return sanitize(ticker) + "_end=*_start=" + sanitize(NormalizeDate(start))
}

// sanitize replaces characters that are unsafe in file names. Separators
// used by the key format itself are left alone; tickers like "BTC-USD",
// "^GSPC" or "GC=F" survive as-is.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, s)
}
