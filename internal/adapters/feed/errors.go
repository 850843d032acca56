package feed

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the score feed.
var (
	// ErrMissingInput means the feed itself is absent. It is fatal to an
	// update and distinct from a feed that holds zero records.
	ErrMissingInput = errors.New("score feed missing")

	// ErrMalformedRecord is wrapped by every MalformedRecordError.
	ErrMalformedRecord = errors.New("malformed score record")

	// ErrInvalidSource is returned when a source is configured incompletely.
	ErrInvalidSource = errors.New("invalid feed source")
)

// MalformedRecordError describes one record that could not be parsed. It is
// recovered locally: the record is skipped and the batch continues.
type MalformedRecordError struct {
	// Origin names where the record came from, e.g. a path or topic/partition/offset.
	Origin string
	// Line is the 1-based line (or array element) number within the origin.
	Line   int
	Raw    string
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("malformed record at %s:%d: %s", e.Origin, e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap lets errors.Is match both ErrMalformedRecord and the cause.
func (e *MalformedRecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRecord}
	}
	return []error{ErrMalformedRecord, e.Err}
}
