package summary

import (
	"PcapSpectra/internal/engine/aggregator"
	"PcapSpectra/internal/model"
	"errors"
	"math"
	"sort"
	"strconv"
)

// ErrNoData is returned when a table has no keys at all.
// A table whose totals are all zero is still summarized normally.
var ErrNoData = errors.New("no data")

// Summarize computes per-key totals and shares of the grand total, sorted by
// descending total with ties broken by ascending key.
func Summarize(table *aggregator.SeriesTable) ([]model.SummaryEntry, error) {
	if table == nil || table.Len() == 0 {
		return nil, ErrNoData
	}

	entries := make([]model.SummaryEntry, 0, table.Len())
	table.Range(func(key string, series []model.Observation) bool {
		var total uint64
		for _, obs := range series {
			total += obs.Value
		}
		entries = append(entries, model.SummaryEntry{Key: key, Total: total})
		return true
	})
	return FromTotals(entries)
}

// FromTotals fills in the shares of entries whose totals are already known
// and sorts them like Summarize. The slice is modified in place.
func FromTotals(entries []model.SummaryEntry) ([]model.SummaryEntry, error) {
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	grandTotal := GrandTotal(entries)
	for i := range entries {
		entries[i].Percent = Percent(entries[i].Total, grandTotal)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// Percent returns total as a percentage of grand, rounded to two decimals.
func Percent(total, grand uint64) float64 {
	if grand == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(grand)*10000) / 100
}

// FormatPercent renders p the way summaries are printed, e.g. "12.50%".
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + "%"
}

// GrandTotal sums the totals of entries.
func GrandTotal(entries []model.SummaryEntry) uint64 {
	var sum uint64
	for _, e := range entries {
		sum += e.Total
	}
	return sum
}
