package cache

import (
	"testing"
)

func TestDeriveKey_OrderIndependent(t *testing.T) {
	a := map[string]string{}
	a["start"] = "2023-01-01"
	a["interval"] = "1d"

	b := map[string]string{}
	b["interval"] = "1d"
	b["start"] = "2023-01-01"

	keyA := DeriveKey("AAPL", a)
	keyB := DeriveKey("AAPL", b)
	if keyA != keyB {
		t.Errorf("DeriveKey() order-dependent: %q != %q", keyA, keyB)
	}

	expected := "AAPL_interval=1d_start=2023-01-01"
	if keyA != expected {
		t.Errorf("DeriveKey() = %q, want %q", keyA, expected)
	}
}

func TestDeriveKey_DistinctParams(t *testing.T) {
	keys := map[string]bool{
		DeriveKey("AAPL", map[string]string{"interval": "1d"}):                          true,
		DeriveKey("AAPL", map[string]string{"interval": "1h"}):                          true,
		DeriveKey("MSFT", map[string]string{"interval": "1d"}):                          true,
		DeriveKey("AAPL", map[string]string{"start": "2023-01-01", "end": "2023-06-30"}): true,
		DeriveKey("AAPL", map[string]string{"start": "2023-01-01", "end": "2023-12-31"}): true,
	}
	if len(keys) != 5 {
		t.Errorf("expected 5 distinct keys, got %d", len(keys))
	}
}

func TestDeriveKey_DateNormalization(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"already normalized", "2023-01-02", "2023-01-02"},
		{"with time of day", "2023-01-02 15:04:05", "2023-01-02"},
		{"slash separated", "2023/01/02", "2023-01-02"},
		{"us style", "01/02/2023", "2023-01-02"},
		{"not a date", "max", "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveKey("BTC-USD", map[string]string{"start": tt.value})
			want := "BTC-USD_start=" + tt.want
			if got != want {
				t.Errorf("DeriveKey() = %q, want %q", got, want)
			}
		})
	}
}

func TestRangeKey(t *testing.T) {
	key := RangeKey("AAPL", "2023-01-01", "2023-06-30")
	expected := "AAPL_end=2023-06-30_start=2023-01-01"
	if key != expected {
		t.Errorf("RangeKey() = %q, want %q", key, expected)
	}
}

func TestIntervalKey(t *testing.T) {
	key := IntervalKey("ETH-USD", "1h")
	expected := "ETH-USD_interval=1h"
	if key != expected {
		t.Errorf("IntervalKey() = %q, want %q", key, expected)
	}
}

func TestDeriveKey_SanitizesHostileCharacters(t *testing.T) {
	key := DeriveKey("BRK/B", map[string]string{"interval": "1d"})
	expected := "BRK-B_interval=1d"
	if key != expected {
		t.Errorf("DeriveKey() = %q, want %q", key, expected)
	}
}

func TestNormalizeDate_MalformedFallsBack(t *testing.T) {
	if got := NormalizeDate("2023-13-45"); got != "2023-13-45" {
		t.Errorf("NormalizeDate() = %q, want raw string back", got)
	}
}
