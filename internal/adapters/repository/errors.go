package repository

import "errors"

// Sentinel kinds for leaderboard persistence errors.
var (
	ErrNotFound     = errors.New("team not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")

	// ErrPersist wraps any failure to durably replace the document. Nothing
	// is committed when it is returned.
	ErrPersist = errors.New("persist leaderboard failed")

	// ErrCorruptState means a persisted document exists but cannot be used.
	ErrCorruptState = errors.New("persisted leaderboard is corrupt")
)
