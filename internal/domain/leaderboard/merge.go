// Package leaderboard merges score records into the persisted leaderboard,
// keeping the best result per team.
package leaderboard

import (
	"math"
	"time"

	"github.com/okian/graphboard/internal/domain/model"
)

// DefaultGapTolerance is the largest accepted difference between a supplied
// gap and |challenge - original|.
const DefaultGapTolerance = 1e-6

// Repair describes a gap that was recomputed because it disagreed with the
// accuracies it was reported with.
type Repair struct {
	Team      string
	Supplied  float64
	Corrected float64
}

// Discard is a record that did not beat the team's retained best.
type Discard struct {
	Record model.ScoreRecord
	Best   float64
}

// Result is the outcome of one merge. Merge never logs or writes; callers use
// the diagnostics to report what happened.
type Result struct {
	State     model.State
	Updated   []string
	Discarded []Discard
	Repairs   []Repair
	// Collapsed lists loaded entries folded into an earlier entry of the
	// same team.
	Collapsed []model.Entry
}

// Merger applies batches of score records to a leaderboard state.
type Merger struct {
	tolerance float64
	clock     func() time.Time
}

// NewMerger creates a Merger.
func NewMerger(opts ...Option) *Merger {
	m := &Merger{
		tolerance: DefaultGapTolerance,
		clock:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RepairGap returns rec with a gap consistent with its accuracies. The second
// result is non-nil when the supplied gap was replaced.
func RepairGap(rec model.ScoreRecord, tolerance float64) (model.ScoreRecord, *Repair) {
	want := math.Abs(rec.ChallengeAcc - rec.OriginalAcc)
	if !math.IsNaN(rec.Gap) && math.Abs(rec.Gap-want) <= tolerance {
		return rec, nil
	}
	r := &Repair{Team: rec.Team, Supplied: rec.Gap, Corrected: want}
	rec.Gap = want
	return rec, r
}

// Merge folds records into state. A record replaces a team's entry only when
// its challenge accuracy is strictly higher; the first-seen spelling of the
// team name is kept. Stored entries that share a team key are collapsed
// first. The returned state is not ranked.
func (m *Merger) Merge(state model.State, records []model.ScoreRecord) Result {
	next := state.Clone()
	res := Result{}
	index := make(map[string]int, len(next.Submissions))
	next.Submissions, res.Collapsed = collapse(next.Submissions, index)
	updated := make(map[string]bool)

	for _, rec := range records {
		rec, repair := RepairGap(rec, m.tolerance)
		if repair != nil {
			res.Repairs = append(res.Repairs, *repair)
		}

		key := model.TeamKey(rec.Team)
		i, ok := index[key]
		switch {
		case !ok:
			rec.Timestamp = m.clock()
			index[key] = len(next.Submissions)
			next.Submissions = append(next.Submissions, model.Entry{ScoreRecord: rec})
		case rec.ChallengeAcc > next.Submissions[i].ChallengeAcc:
			cur := &next.Submissions[i]
			cur.ChallengeAcc = rec.ChallengeAcc
			cur.OriginalAcc = rec.OriginalAcc
			cur.Gap = rec.Gap
			cur.Timestamp = m.clock()
		default:
			res.Discarded = append(res.Discarded, Discard{Record: rec, Best: next.Submissions[i].ChallengeAcc})
			continue
		}

		if !updated[key] {
			updated[key] = true
			res.Updated = append(res.Updated, next.Submissions[index[key]].Team)
		}
	}

	now := m.clock()
	next.LastUpdated = &now
	res.State = next
	return res
}

// collapse keeps one entry per team key, filling index with the positions of
// the kept entries. The survivor has the higher challenge accuracy, then the
// earlier timestamp, and always carries the first-seen spelling.
func collapse(entries []model.Entry, index map[string]int) (kept, dropped []model.Entry) {
	kept = entries[:0]
	for _, e := range entries {
		key := e.Key()
		i, ok := index[key]
		if !ok {
			index[key] = len(kept)
			kept = append(kept, e)
			continue
		}
		cur := &kept[i]
		if e.ChallengeAcc > cur.ChallengeAcc ||
			(e.ChallengeAcc == cur.ChallengeAcc && e.Timestamp.Before(cur.Timestamp)) {
			team := cur.Team
			dropped = append(dropped, *cur)
			*cur = e
			cur.Team = team
			continue
		}
		dropped = append(dropped, e)
	}
	return kept, dropped
}
