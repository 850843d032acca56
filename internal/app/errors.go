package service

import "errors"

// Sentinel kinds for update failures.
var (
	ErrRead    = errors.New("read score feed")
	ErrLoad    = errors.New("load leaderboard")
	ErrPersist = errors.New("persist leaderboard")
	ErrRender  = errors.New("render leaderboard")
)
