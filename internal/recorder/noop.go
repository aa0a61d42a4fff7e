package recorder

import "StrikeSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordFetch(_ *model.FetchOutcome) error { return nil }
func (n *NoopRecorder) RecentFetches(_ int) ([]model.FetchOutcome, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
