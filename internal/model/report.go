package model

// ReportVersion is bumped whenever the Report layout changes incompatibly.
const ReportVersion = 1

// RunStats counts what happened to the frames of one pass.
type RunStats struct {
	Frames   uint64 `json:"frames"`
	Rejected uint64 `json:"rejected"` // not decodable
	Excluded uint64 `json:"excluded"` // dropped by a blacklist
	Accepted uint64 `json:"accepted"`
}

// SummaryEntry is one row of a sorted dimension summary.
type SummaryEntry struct {
	Key     string  `json:"key"`
	Total   uint64  `json:"total"`
	Percent float64 `json:"percent"`
}

// DimensionReport carries the summary and the full series of one grouping dimension.
type DimensionReport struct {
	Name    string                   `json:"name"`
	Title   string                   `json:"title"`
	Summary []SummaryEntry           `json:"summary"`
	Series  map[string][]Observation `json:"series"`
}

// Report is the stable document handed to writers, the HTML renderer and the API.
type Report struct {
	Version    int               `json:"version"`
	Mode       Mode              `json:"mode"`
	Source     string            `json:"source,omitempty"`
	Stats      RunStats          `json:"stats"`
	NoData     bool              `json:"no_data"`
	Dimensions []DimensionReport `json:"dimensions"`
}

// Dimension returns the named dimension report, or nil.
func (r *Report) Dimension(name string) *DimensionReport {
	for i := range r.Dimensions {
		if r.Dimensions[i].Name == name {
			return &r.Dimensions[i]
		}
	}
	return nil
}
