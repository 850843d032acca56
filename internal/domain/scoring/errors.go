package scoring

import "errors"

// Sentinel error kinds for scoring.
var (
	ErrNoPredictions  = errors.New("no predictions")
	ErrLengthMismatch = errors.New("length mismatch")
	ErrEmptyMask      = errors.New("mask selects no samples")
	ErrBadTensor      = errors.New("malformed tensor")
	ErrMissingSecret  = errors.New("hidden label variable not set")
	ErrBadPredictions = errors.New("malformed predictions file")
	ErrNoScores       = errors.New("no scores found in output")
)
