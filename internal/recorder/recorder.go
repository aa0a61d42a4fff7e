package recorder

import "StrikeSentinel/internal/model"

// Recorder journals fetch outcomes for later analysis.
type Recorder interface {
	RecordFetch(o *model.FetchOutcome) error
	// RecentFetches returns up to limit outcomes, newest first.
	RecentFetches(limit int) ([]model.FetchOutcome, error)
	Close() error
}
