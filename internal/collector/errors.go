package collector

import (
	"context"
	"errors"
	"fmt"

	"StrikeSentinel/internal/model"
)

// FetchError is a failed pipeline step.
type FetchError struct {
	Kind model.ErrorKind
	Step string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed [%s]: %v", e.Step, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed [%s]", e.Step, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// stepError classifies err from step; deadline expiry always maps to TIMEOUT.
func stepError(kind model.ErrorKind, step string, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = model.ErrTimeout
	}
	return &FetchError{Kind: kind, Step: step, Err: err}
}

// KindOf returns the ErrorKind carried by err, or PIPELINE for anything unclassified.
func KindOf(err error) model.ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return model.ErrPipeline
}
