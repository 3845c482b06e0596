package table

import (
	"strings"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAppendRow_LengthMismatch(t *testing.T) {
	tbl := New("Open", "Close")
	if err := tbl.AppendRow(date(2023, 1, 2), 1.0); err == nil {
		t.Error("AppendRow() accepted a short row")
	}
	if err := tbl.AppendRow(date(2023, 1, 2), 1.0, 2.0); err != nil {
		t.Errorf("AppendRow() returned unexpected error: %v", err)
	}
}

func TestEmpty(t *testing.T) {
	var nilTable *Table
	if !nilTable.Empty() {
		t.Error("nil table should be empty")
	}
	if !New("Open").Empty() {
		t.Error("table with no rows should be empty")
	}

	tbl := New("Open")
	tbl.AppendRow(date(2023, 1, 2), 1.0)
	if tbl.Empty() {
		t.Error("table with a row should not be empty")
	}
}

func TestClone_Independent(t *testing.T) {
	tbl := New("Open", "Close")
	tbl.AppendRow(date(2023, 1, 2), 1.0, 2.0)

	c := tbl.Clone()
	c.Values[0][0] = 99
	c.Columns[0] = "Tampered"
	c.Dates[0] = date(1999, 1, 1)

	if tbl.Values[0][0] != 1.0 || tbl.Columns[0] != "Open" || !tbl.Dates[0].Equal(date(2023, 1, 2)) {
		t.Error("mutating the clone changed the original")
	}
}

func TestNormalizeDates(t *testing.T) {
	tbl := New("Close")
	tbl.AppendRow(time.Date(2023, 3, 15, 9, 30, 15, 0, time.UTC), 1.0)
	tbl.AppendRow(time.Date(2023, 3, 16, 16, 0, 0, 0, time.UTC), 2.0)

	tbl.NormalizeDates()

	for i, want := range []time.Time{date(2023, 3, 15), date(2023, 3, 16)} {
		if !tbl.Dates[i].Equal(want) {
			t.Errorf("Dates[%d] = %v, want %v", i, tbl.Dates[i], want)
		}
	}
}

func TestSliceTicker_MultiTickerShape(t *testing.T) {
	tbl := New("Open_AAPL", "Close_AAPL", "Open_MSFT", "Close_MSFT")
	tbl.AppendRow(date(2023, 1, 2), 1.0, 2.0, 3.0, 4.0)

	out := tbl.SliceTicker("AAPL")
	if len(out.Columns) != 2 || out.Columns[0] != "Open" || out.Columns[1] != "Close" {
		t.Fatalf("SliceTicker() columns = %v, want [Open Close]", out.Columns)
	}
	if out.Values[0][0] != 1.0 || out.Values[1][0] != 2.0 {
		t.Errorf("SliceTicker() picked wrong series: %v", out.Values)
	}
}

func TestSliceTicker_PlainShapeUntouched(t *testing.T) {
	tbl := New("Open", "Close")
	tbl.AppendRow(date(2023, 1, 2), 1.0, 2.0)

	out := tbl.SliceTicker("AAPL")
	if !out.Equal(tbl) {
		t.Error("SliceTicker() modified a single-ticker table")
	}
}

func TestSliceTicker_KeepsFlatUnderscoreColumns(t *testing.T) {
	tbl := New("Close_AAPL", "Adj_Close", "Close_MSFT")
	tbl.AppendRow(date(2023, 1, 2), 1.0, 2.0, 3.0)

	out := tbl.SliceTicker("AAPL")
	if len(out.Columns) != 2 || out.Columns[0] != "Close" || out.Columns[1] != "Adj_Close" {
		t.Fatalf("SliceTicker() columns = %v, want [Close Adj_Close]", out.Columns)
	}
	if out.Values[0][0] != 1.0 || out.Values[1][0] != 2.0 {
		t.Errorf("SliceTicker() picked wrong series: %v", out.Values)
	}
}

func TestEqual_NilTables(t *testing.T) {
	var a, b *Table
	if !a.Equal(b) {
		t.Error("two nil tables should be equal")
	}
	if !a.Equal(New("Open")) {
		t.Error("a nil table should equal an empty one")
	}

	filled := New("Open")
	filled.AppendRow(date(2023, 1, 2), 1.0)
	if a.Equal(filled) || filled.Equal(a) {
		t.Error("a nil table should not equal a populated one")
	}
}

func TestSliceTicker_NoMatchKeepsOriginal(t *testing.T) {
	tbl := New("Open_MSFT", "Close_MSFT")
	tbl.AppendRow(date(2023, 1, 2), 1.0, 2.0)

	out := tbl.SliceTicker("AAPL")
	if !out.Equal(tbl) {
		t.Error("SliceTicker() with no matching columns should keep the table")
	}
}

func TestSortByDate(t *testing.T) {
	tbl := New("Close")
	tbl.AppendRow(date(2023, 1, 4), 3.0)
	tbl.AppendRow(date(2023, 1, 2), 1.0)
	tbl.AppendRow(date(2023, 1, 3), 2.0)

	tbl.SortByDate()

	for i, want := range []float64{1.0, 2.0, 3.0} {
		if tbl.Values[0][i] != want {
			t.Errorf("Values[0][%d] = %v, want %v", i, tbl.Values[0][i], want)
		}
	}
}

func TestMinMaxDate(t *testing.T) {
	tbl := New("Close")
	tbl.AppendRow(date(2023, 1, 4), 1.0)
	tbl.AppendRow(date(2023, 1, 2), 2.0)

	if !tbl.MinDate().Equal(date(2023, 1, 2)) {
		t.Errorf("MinDate() = %v", tbl.MinDate())
	}
	if !tbl.MaxDate().Equal(date(2023, 1, 4)) {
		t.Errorf("MaxDate() = %v", tbl.MaxDate())
	}
}

func TestWriteCSV(t *testing.T) {
	tbl := New("Open", "Close")
	tbl.AppendRow(date(2023, 1, 2), 100.5, 101.0)
	tbl.AppendRow(date(2023, 1, 3), 101.25, 102.0)

	var sb strings.Builder
	if err := tbl.WriteCSV(&sb); err != nil {
		t.Fatalf("WriteCSV() returned unexpected error: %v", err)
	}

	want := "Date,Open,Close\n2023-01-02,100.5,101\n2023-01-03,101.25,102\n"
	if sb.String() != want {
		t.Errorf("WriteCSV() = %q, want %q", sb.String(), want)
	}
}
