package model

import "time"

// TriggerType indicates what started a fetch.
type TriggerType string

const (
	TriggerManual TriggerType = "MANUAL"
	TriggerAuto   TriggerType = "AUTO"
)

// ErrorKind classifies a failed fetch attempt.
type ErrorKind string

const (
	ErrNavigation  ErrorKind = "NAVIGATION"
	ErrSelection   ErrorKind = "SELECTION"
	ErrTimeout     ErrorKind = "TIMEOUT"
	ErrEmptyResult ErrorKind = "EMPTY_RESULT"
	ErrPipeline    ErrorKind = "PIPELINE"
)

// FetchOutcome is the result of one fetch attempt. Only the latest one is kept.
type FetchOutcome struct {
	ID        string        `json:"id"`
	Trigger   TriggerType   `json:"trigger"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	RowCount  int           `json:"row_count"`
	Expiry    string        `json:"expiry,omitempty"`
}
