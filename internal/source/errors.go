package source

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned to callers whose request completed after a newer
// request was issued. Its result was discarded.
var ErrSuperseded = errors.New("request superseded by a newer update")

// ErrNoSource is returned by Refresh before any source reference is known.
var ErrNoSource = errors.New("no source reference configured")

// FetchError reports a transport or HTTP failure reaching a remote endpoint.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError reports an update payload that is well-formed JSON but
// cannot be turned into a RecordSet.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid update payload: %s: %v", e.Reason, e.Err)
	}
	return "invalid update payload: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }
