package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Table is a time-indexed set of named numeric columns, typically
// Open/High/Low/Close/Volume observations keyed by calendar date.
// Values[i] holds the series for Columns[i] and has one entry per date.
type Table struct {
	Dates   []time.Time
	Columns []string
	Values  [][]float64
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.Values = make([][]float64, len(t.Columns))
	return t
}

// AppendRow appends one observation. The number of values must match the
// number of columns.
func (t *Table) AppendRow(date time.Time, values ...float64) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	t.Dates = append(t.Dates, date)
	for i, v := range values {
		t.Values[i] = append(t.Values[i], v)
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Dates)
}

// Empty reports whether the table holds no observations.
func (t *Table) Empty() bool {
	return t == nil || len(t.Dates) == 0 || len(t.Columns) == 0
}

// Clone returns a deep copy. Mutating the copy never affects the original,
// which lets the cache hand out results without exposing its own state.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := &Table{
		Dates:   append([]time.Time(nil), t.Dates...),
		Columns: append([]string(nil), t.Columns...),
		Values:  make([][]float64, len(t.Values)),
	}
	for i, col := range t.Values {
		c.Values[i] = append([]float64(nil), col...)
	}
	return c
}

// NormalizeDates strips the time-of-day from every date, leaving UTC
// midnight. Intraday timestamps from the provider collapse to their
// calendar date.
func (t *Table) NormalizeDates() {
	for i, d := range t.Dates {
		y, m, day := d.UTC().Date()
		t.Dates[i] = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
}

// Column returns the series for the named column, or nil if absent.
func (t *Table) Column(name string) []float64 {
	for i, c := range t.Columns {
		if c == name {
			return t.Values[i]
		}
	}
	return nil
}

// SliceTicker collapses a multi-ticker-shaped table down to the requested
// ticker. Providers that serve several tickers in one response qualify
// column names as "Name_TICKER"; those matching the ticker are kept with
// the suffix stripped, other tickers' series for the same base names are
// dropped, and any remaining columns pass through untouched. A table with
// no columns qualified for the ticker is returned as-is, so a flat column
// that merely contains an underscore survives.
func (t *Table) SliceTicker(ticker string) *Table {
	if t == nil || ticker == "" {
		return t
	}
	suffix := "_" + ticker
	kept := make(map[string]bool)
	for _, c := range t.Columns {
		if strings.HasSuffix(c, suffix) {
			kept[strings.TrimSuffix(c, suffix)] = true
		}
	}
	if len(kept) == 0 {
		return t
	}
	out := &Table{Dates: append([]time.Time(nil), t.Dates...)}
	for i, c := range t.Columns {
		name := c
		if strings.HasSuffix(c, suffix) {
			name = strings.TrimSuffix(c, suffix)
		} else if idx := strings.LastIndex(c, "_"); idx >= 0 && kept[c[:idx]] {
			// another ticker's series for a base name we already kept
			continue
		}
		out.Columns = append(out.Columns, name)
		out.Values = append(out.Values, append([]float64(nil), t.Values[i]...))
	}
	return out
}

// MinDate returns the earliest date in the table.
func (t *Table) MinDate() time.Time {
	return boundDate(t.Dates, func(a, b time.Time) bool { return a.Before(b) })
}

// MaxDate returns the latest date in the table.
func (t *Table) MaxDate() time.Time {
	return boundDate(t.Dates, func(a, b time.Time) bool { return a.After(b) })
}

func boundDate(dates []time.Time, better func(a, b time.Time) bool) time.Time {
	var out time.Time
	for _, d := range dates {
		if out.IsZero() || better(d, out) {
			out = d
		}
	}
	return out
}

// Equal reports whether two tables hold the same columns, dates, and
// values. A nil table equals another nil or empty table.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t.Empty() && o.Empty()
	}
	if t.Len() != o.Len() || len(t.Columns) != len(o.Columns) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Dates {
		if !t.Dates[i].Equal(o.Dates[i]) {
			return false
		}
	}
	for i := range t.Values {
		for j := range t.Values[i] {
			if t.Values[i][j] != o.Values[i][j] {
				return false
			}
		}
	}
	return true
}

// SortByDate orders rows by ascending date.
func (t *Table) SortByDate() {
	if t.Len() < 2 {
		return
	}
	idx := make([]int, t.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return t.Dates[idx[a]].Before(t.Dates[idx[b]]) })

	dates := make([]time.Time, t.Len())
	values := make([][]float64, len(t.Values))
	for c := range values {
		values[c] = make([]float64, t.Len())
	}
	for pos, i := range idx {
		dates[pos] = t.Dates[i]
		for c := range t.Values {
			values[c][pos] = t.Values[c][i]
		}
	}
	t.Dates = dates
	t.Values = values
}

// WriteCSV writes the table as CSV with a Date column followed by the
// table's columns, dates formatted as YYYY-MM-DD.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"Date"}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	row := make([]string, len(header))
	for i, d := range t.Dates {
		row[0] = d.Format("2006-01-02")
		for c := range t.Columns {
			row[c+1] = strconv.FormatFloat(t.Values[c][i], 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
