package report

import (
	"PcapSpectra/internal/engine/aggregator"
	"PcapSpectra/internal/engine/summary"
	"PcapSpectra/internal/model"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Build converts a finished snapshot into the versioned report document.
// The report works on a copy, so it stays valid if the snapshot changes later.
func Build(snap *aggregator.Snapshot, stats model.RunStats, source string) (*model.Report, error) {
	snap = snap.Copy()
	rep := &model.Report{
		Version:    model.ReportVersion,
		Mode:       snap.Mode(),
		Source:     source,
		Stats:      stats,
		NoData:     snap.Empty(),
		Dimensions: make([]model.DimensionReport, 0, len(aggregator.Dimensions)),
	}

	for _, d := range aggregator.Dimensions {
		table := snap.Table(d)
		dim := model.DimensionReport{
			Name:    d.Name(),
			Title:   d.Title(),
			Summary: []model.SummaryEntry{},
			Series:  make(map[string][]model.Observation, table.Len()),
		}

		entries, err := summary.Summarize(table)
		switch {
		case errors.Is(err, summary.ErrNoData):
		case err != nil:
			return nil, fmt.Errorf("failed to summarize %s: %w", d.Name(), err)
		default:
			dim.Summary = entries
		}

		table.Range(func(key string, series []model.Observation) bool {
			dim.Series[key] = series
			return true
		})
		rep.Dimensions = append(rep.Dimensions, dim)
	}
	return rep, nil
}

// EncodeJSON writes rep as indented JSON.
func EncodeJSON(w io.Writer, rep *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// DecodeJSON reads a report written by EncodeJSON and checks its version.
func DecodeJSON(r io.Reader) (*model.Report, error) {
	var rep model.Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	if rep.Version != model.ReportVersion {
		return nil, fmt.Errorf("unsupported report version %d", rep.Version)
	}
	return &rep, nil
}
