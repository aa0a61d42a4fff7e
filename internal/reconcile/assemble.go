// Package reconcile joins the target strike lists against the live snapshot.
package reconcile

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"StrikeSentinel/internal/matcher"
	"StrikeSentinel/internal/model"
)

// Result is the display-ready reconciliation of both strike lists.
type Result struct {
	Rows       []model.ReconciledRow `json:"rows"`
	MatchCount int                   `json:"match_count"`
	Total      int                   `json:"total"`
}

// Assemble matches every CE strike then every PE strike against snap.
// It is pure: the same inputs always give the same rows and count.
func Assemble(ce, pe model.StrikeList, snap *model.Snapshot) Result {
	keys := snap.Keys()
	res := Result{Rows: make([]model.ReconciledRow, 0, len(ce)+len(pe))}

	add := func(side model.Side, list model.StrikeList) {
		for _, strike := range list {
			row := model.ReconciledRow{
				TargetStrike:  strike,
				DisplayStrike: DisplayStrike(strike),
				Side:          side,
				Fields:        model.AllNA(),
			}
			key, status := matcher.Match(strike, keys)
			row.Status = status
			if status.Found() {
				src, _ := snap.Row(key)
				row.MatchedKey = key
				row.Fields = src.Side(side)
				res.MatchCount++
			}
			res.Rows = append(res.Rows, row)
		}
	}
	add(model.SideCE, ce)
	add(model.SidePE, pe)

	res.Total = len(res.Rows)
	return res
}

// DisplayStrike renders a strike as a grouped integer ("112,250"). Strikes
// that are not whole numbers are returned unchanged.
func DisplayStrike(strike string) string {
	cleaned := strings.ReplaceAll(strings.ReplaceAll(strike, ".00", ""), ",", "")
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return strike
	}
	return humanize.Comma(n)
}
