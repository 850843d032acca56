package testfeed

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/graphboard/internal/domain/model"
)

// ErrInvariant is wrapped by every verification failure.
var ErrInvariant = errors.New("leaderboard invariant violated")

// Verify checks a ranked state built from feed, starting from an empty
// leaderboard. It reports every violation found.
func Verify(state model.State, feed Feed, tolerance float64) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...)))
	}

	if len(state.Submissions) != len(feed.Best) {
		fail("%d entries for %d teams", len(state.Submissions), len(feed.Best))
	}
	if len(state.Submissions) > 0 && state.LastUpdated == nil {
		fail("last_updated is null on a non-empty board")
	}

	seen := make(map[string]bool, len(state.Submissions))
	for i, e := range state.Submissions {
		key := e.Key()
		if seen[key] {
			fail("team %q appears twice", e.Team)
		}
		seen[key] = true

		if best, ok := feed.Best[key]; !ok {
			fail("team %q was never submitted", e.Team)
		} else if e.ChallengeAcc != best {
			fail("team %q holds %.6f, best was %.6f", e.Team, e.ChallengeAcc, best)
		}

		if want := math.Abs(e.ChallengeAcc - e.OriginalAcc); math.Abs(e.Gap-want) > tolerance {
			fail("team %q gap %.6f, want %.6f", e.Team, e.Gap, want)
		}

		if i == 0 {
			if e.Rank != 1 {
				fail("first entry has rank %d", e.Rank)
			}
			continue
		}
		prev := state.Submissions[i-1]
		switch {
		case e.ChallengeAcc > prev.ChallengeAcc:
			fail("entry %d (%.6f) outranks entry %d (%.6f)", i, e.ChallengeAcc, i-1, prev.ChallengeAcc)
		case e.ChallengeAcc == prev.ChallengeAcc && e.Rank != prev.Rank:
			fail("tied entries %d and %d have ranks %d and %d", i-1, i, prev.Rank, e.Rank)
		case e.ChallengeAcc < prev.ChallengeAcc && e.Rank != i+1:
			fail("entry %d has rank %d, want %d", i, e.Rank, i+1)
		}
	}
	return errors.Join(errs...)
}
