package model

// Side identifies the option side of a strike.
type Side string

const (
	SideCE Side = "CE"
	SidePE Side = "PE"
)

// StrikeList is an ordered list of canonical strike identifiers ("112,250.00") for one side.
type StrikeList []string

// Clone returns an independent copy of the list.
func (l StrikeList) Clone() StrikeList {
	if l == nil {
		return nil
	}
	out := make(StrikeList, len(l))
	copy(out, l)
	return out
}
