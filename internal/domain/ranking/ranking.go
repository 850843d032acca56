// Package ranking orders leaderboard entries and assigns standard
// competition ranks ("1224"): tied scores share a rank and the next distinct
// score takes its 1-based position.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/graphboard/internal/domain/model"
)

// Compare orders a before b when it has the higher challenge accuracy, then
// the earlier timestamp, then the smaller team key. The last key makes the
// order total so equal inputs always sort the same way.
func Compare(a, b model.Entry) int {
	if c := cmp.Compare(b.ChallengeAcc, a.ChallengeAcc); c != 0 {
		return c
	}
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(a.Key(), b.Key())
}

// Less reports whether a sorts before b.
func Less(a, b model.Entry) bool { return Compare(a, b) < 0 }

// Sort orders entries in place.
func Sort(entries []model.Entry) {
	slices.SortStableFunc(entries, Compare)
}

// Assign sets Rank on entries that are already sorted. A new rank is issued
// only when the score is strictly below the previous one.
func Assign(entries []model.Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].ChallengeAcc < entries[i-1].ChallengeAcc {
			rank = i + 1
		}
		entries[i].Rank = rank
	}
}

// Rank returns a sorted, ranked copy of entries.
func Rank(entries []model.Entry) []model.Entry {
	out := slices.Clone(entries)
	if out == nil {
		out = []model.Entry{}
	}
	Sort(out)
	Assign(out)
	return out
}

// Top returns at most n leading entries of an already ranked slice.
func Top(entries []model.Entry, n int) []model.Entry {
	if n < 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
