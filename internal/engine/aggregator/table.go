package aggregator

import (
	"PcapSpectra/internal/model"
	"sort"
)

// SeriesTable maps group keys to append-only series of observations.
// It has a single writer and needs no locking.
type SeriesTable struct {
	series map[string][]model.Observation
}

// NewSeriesTable creates an empty table.
func NewSeriesTable() *SeriesTable {
	return &SeriesTable{series: make(map[string][]model.Observation)}
}

// Append adds obs at the end of the series of key.
func (t *SeriesTable) Append(key string, obs model.Observation) {
	t.series[key] = append(t.series[key], obs)
}

// Series returns the observations of key in insertion order.
// The returned slice must not be modified.
func (t *SeriesTable) Series(key string) []model.Observation {
	return t.series[key]
}

// Len is the number of distinct keys.
func (t *SeriesTable) Len() int {
	return len(t.series)
}

// Keys returns the keys in lexical order.
func (t *SeriesTable) Keys() []string {
	keys := make([]string, 0, len(t.series))
	for k := range t.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total sums the values of the series of key.
func (t *SeriesTable) Total(key string) uint64 {
	var total uint64
	for _, obs := range t.series[key] {
		total += obs.Value
	}
	return total
}

// Range calls fn for every key until fn returns false. Order is unspecified.
func (t *SeriesTable) Range(fn func(key string, series []model.Observation) bool) {
	for k, s := range t.series {
		if !fn(k, s) {
			return
		}
	}
}

// Copy returns a deep copy of the table.
func (t *SeriesTable) Copy() *SeriesTable {
	c := &SeriesTable{series: make(map[string][]model.Observation, len(t.series))}
	for k, s := range t.series {
		c.series[k] = append([]model.Observation(nil), s...)
	}
	return c
}
