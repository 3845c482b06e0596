package fetcher

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Query enumerates the options forwarded to the data source. The two
// addressing modes are mutually exclusive: interval-mode sets Interval and
// Period and leaves Start/End empty; range-mode sets Start and End with
// Interval fixed to daily. AutoAdjust and PrePost are normalization flags
// the fetcher pins on every call.
type Query struct {
	Interval   string
	Period     string
	Start      string // YYYY-MM-DD
	End        string // YYYY-MM-DD
	AutoAdjust bool
	PrePost    bool
}

// validIntervals are the provider's supported bar sizes.
var validIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true,
	"60m": true, "90m": true, "1h": true, "1d": true, "5d": true,
	"1wk": true, "1mo": true, "3mo": true,
}

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateInterval reports whether interval is a supported bar size.
func ValidateInterval(interval string) error {
	if !validIntervals[interval] {
		return NewValidationError(fmt.Sprintf("invalid interval %q, supported intervals: %s", interval, supportedIntervals()))
	}
	return nil
}

// ValidateDate reports whether a date string is well-formed YYYY-MM-DD.
func ValidateDate(date string) error {
	if !dateFormat.MatchString(date) {
		return NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	return nil
}

func supportedIntervals() string {
	names := make([]string, 0, len(validIntervals))
	for name := range validIntervals {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
