// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// ScoreRecord is one evaluation result for one team in one run.
type ScoreRecord struct {
	Team         string  `validate:"required"`
	ChallengeAcc float64 `validate:"gte=0,lte=1"`
	OriginalAcc  float64 `validate:"gte=0,lte=1"`
	Gap          float64
	// Timestamp is set when a merge accepts the record.
	Timestamp time.Time
}

// Entry is the retained best-to-date record for one team.
type Entry struct {
	ScoreRecord
	Rank int
}

// Key returns the identity used to deduplicate the entry.
func (e Entry) Key() string { return TeamKey(e.Team) }

// State is the persisted leaderboard aggregate.
type State struct {
	// LastUpdated is nil until the first merge.
	LastUpdated *time.Time
	Submissions []Entry
}

// EmptyState returns the state of a leaderboard that has never been updated.
func EmptyState() State {
	return State{Submissions: []Entry{}}
}

// Clone returns a deep copy so callers can mutate the result freely.
func (s State) Clone() State {
	out := State{Submissions: make([]Entry, len(s.Submissions))}
	copy(out.Submissions, s.Submissions)
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		out.LastUpdated = &t
	}
	return out
}

// Len reports the number of teams on the leaderboard.
func (s State) Len() int { return len(s.Submissions) }

// TeamKey folds a team name into its matching identity. Comparison is
// case-insensitive under Unicode case folding; surrounding space is ignored.
func TeamKey(team string) string {
	return cases.Fold().String(strings.TrimSpace(team))
}

// SameTeam reports whether a and b name the same team.
func SameTeam(a, b string) bool {
	return TeamKey(a) == TeamKey(b)
}
