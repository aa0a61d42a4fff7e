package model

// MatchStatus records which matching tier resolved a target strike.
type MatchStatus string

const (
	MatchExact      MatchStatus = "EXACT"
	MatchNormalized MatchStatus = "NORMALIZED"
	MatchSuffix     MatchStatus = "SUFFIX"
	MatchNotFound   MatchStatus = "NOT_FOUND"
)

// Found reports whether any tier matched.
func (m MatchStatus) Found() bool { return m != MatchNotFound && m != "" }

// ReconciledRow is one target strike joined against the live snapshot.
// It is derived on every read and never stored.
type ReconciledRow struct {
	TargetStrike  string      `json:"target_strike"`
	DisplayStrike string      `json:"display_strike"`
	Side          Side        `json:"side"`
	Status        MatchStatus `json:"status"`
	MatchedKey    string      `json:"matched_key,omitempty"`
	Fields        RowData     `json:"fields"`
}

// Suspect reports whether the row was matched only by the loose suffix tier,
// so MatchedKey may belong to a different strike than TargetStrike.
func (r ReconciledRow) Suspect() bool { return r.Status == MatchSuffix }
