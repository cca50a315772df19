package preparer

import (
	"github.com/ka2n/csswrap/api/fetch"
)

type ErrorCode string

const (
	ErrUnknownSource ErrorCode = "UnknownSource"
	ErrAlreadyUsed   ErrorCode = "AlreadyUsed"
	ErrStore         ErrorCode = "Store"
)

// RootError reports that the resource under validation could not be used.
// It aborts the run; the caller turns it into an exception output.
type RootError struct {
	Outcome fetch.Outcome
}

func (e *RootError) Error() string {
	return "cannot prepare " + e.Outcome.URI + ": " + e.Classification()
}

// Classification is invalid-content-type:<type>, http<status> or curl<code>.
func (e *RootError) Classification() string {
	return e.Outcome.Classification()
}

func (e *RootError) Unwrap() error {
	return e.Outcome.Err
}
