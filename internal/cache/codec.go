package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"marketfetcher/internal/table"
)

// formatVersion is bumped whenever the on-disk envelope changes shape.
// Entries written under another version are treated as misses and swept.
const formatVersion = 1

// envelope is the persisted representation of a table: explicit and
// versioned so corruption can be detected structurally instead of relying
// on a decoder blowing up halfway through an opaque blob.
type envelope struct {
	Version int         `json:"version"`
	Columns []string    `json:"columns"`
	Dates   []string    `json:"dates"`
	Values  [][]float64 `json:"values"`
}

// encode serializes a table into the versioned envelope.
func encode(t *table.Table) ([]byte, error) {
	env := envelope{
		Version: formatVersion,
		Columns: t.Columns,
		Dates:   make([]string, len(t.Dates)),
		Values:  t.Values,
	}
	for i, d := range t.Dates {
		env.Dates[i] = d.Format("2006-01-02")
	}
	data, err := json.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return data, nil
}

// decode deserializes and structurally validates a persisted entry. Any
// deviation from the expected shape is an error: the caller treats that as
// a corrupt entry and sweeps it.
func decode(data []byte) (*table.Table, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("unsupported cache format version %d", env.Version)
	}
	if len(env.Dates) == 0 || len(env.Columns) == 0 {
		return nil, fmt.Errorf("cache entry holds no data")
	}
	if len(env.Values) != len(env.Columns) {
		return nil, fmt.Errorf("cache entry has %d value series for %d columns", len(env.Values), len(env.Columns))
	}
	t := &table.Table{
		Columns: env.Columns,
		Dates:   make([]time.Time, len(env.Dates)),
		Values:  env.Values,
	}
	for i, s := range env.Dates {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("cache entry has malformed date %q: %w", s, err)
		}
		t.Dates[i] = d
	}
	for i, col := range env.Values {
		if len(col) != len(env.Dates) {
			return nil, fmt.Errorf("cache entry column %q has %d values for %d dates", env.Columns[i], len(col), len(env.Dates))
		}
	}
	return t, nil
}
