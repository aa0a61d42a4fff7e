package reconcile

import "StrikeSentinel/internal/model"

// SideSummary counts field availability for one side.
type SideSummary struct {
	Rows int `json:"rows"`
	// Quoted counts rows with both bid and ask present.
	Quoted   int `json:"quoted"`
	WithVol  int `json:"with_volume"`
	NotFound int `json:"not_found"`
	Suspect  int `json:"suspect"`
}

// Summary aggregates a Result for status display.
type Summary struct {
	Matched int         `json:"matched"`
	Total   int         `json:"total"`
	CE      SideSummary `json:"ce"`
	PE      SideSummary `json:"pe"`
}

// Summarize computes the aggregate counts of r.
func Summarize(r Result) Summary {
	s := Summary{Matched: r.MatchCount, Total: r.Total}
	for _, row := range r.Rows {
		side := &s.CE
		if row.Side == model.SidePE {
			side = &s.PE
		}
		side.Rows++
		if row.Fields.HasQuote() {
			side.Quoted++
		}
		if row.Fields.Volume != model.NA {
			side.WithVol++
		}
		if !row.Status.Found() {
			side.NotFound++
		}
		if row.Suspect() {
			side.Suspect++
		}
	}
	return s
}

// Side returns the rows of r belonging to side, in order.
func (r Result) Side(side model.Side) []model.ReconciledRow {
	var out []model.ReconciledRow
	for _, row := range r.Rows {
		if row.Side == side {
			out = append(out, row)
		}
	}
	return out
}
