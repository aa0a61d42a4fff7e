package model

import "time"

// NA is the sentinel used for any field that is missing or not matched.
const NA = "NA"

// RowData holds one side's quote fields exactly as the source renders them.
type RowData struct {
	Volume string `json:"volume"`
	BidQty string `json:"bid_qty"`
	Bid    string `json:"bid"`
	Ask    string `json:"ask"`
	AskQty string `json:"ask_qty"`
}

// AllNA returns a RowData with every field set to NA.
func AllNA() RowData {
	return RowData{Volume: NA, BidQty: NA, Bid: NA, Ask: NA, AskQty: NA}
}

// HasQuote reports whether both bid and ask are available.
func (r RowData) HasQuote() bool {
	return r.Bid != NA && r.Ask != NA
}

// StrikeRow is one extracted option-chain row carrying both sides of a strike.
type StrikeRow struct {
	Key string  `json:"key"`
	CE  RowData `json:"ce"`
	PE  RowData `json:"pe"`
}

// Side returns the fields of the requested side.
func (r StrikeRow) Side(s Side) RowData {
	if s == SidePE {
		return r.PE
	}
	return r.CE
}

// Snapshot is an immutable, insertion-ordered view of one successful fetch.
// A zero or nil Snapshot is the valid "nothing fetched yet" state.
type Snapshot struct {
	FetchedAt time.Time
	keys      []string
	rows      map[string]StrikeRow
}

// NewSnapshot builds a Snapshot from rows in extraction order. A repeated key
// keeps its first position and takes the latest row.
func NewSnapshot(rows []StrikeRow, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		FetchedAt: fetchedAt,
		keys:      make([]string, 0, len(rows)),
		rows:      make(map[string]StrikeRow, len(rows)),
	}
	for _, r := range rows {
		if _, seen := s.rows[r.Key]; !seen {
			s.keys = append(s.keys, r.Key)
		}
		s.rows[r.Key] = r
	}
	return s
}

// Keys returns the source keys in insertion order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Row looks up a row by its exact source key.
func (s *Snapshot) Row(key string) (StrikeRow, bool) {
	if s == nil {
		return StrikeRow{}, false
	}
	r, ok := s.rows[key]
	return r, ok
}

// Len returns the number of distinct keys.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Empty reports whether the snapshot holds no rows.
func (s *Snapshot) Empty() bool { return s.Len() == 0 }
