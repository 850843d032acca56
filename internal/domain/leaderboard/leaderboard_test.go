package leaderboard_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/graphboard/internal/domain/leaderboard"
	"github.com/okian/graphboard/internal/domain/model"
)

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func rec(team string, c, o, g float64) model.ScoreRecord {
	return model.ScoreRecord{Team: team, ChallengeAcc: c, OriginalAcc: o, Gap: g}
}

func byTeam(s model.State) map[string]model.Entry {
	out := make(map[string]model.Entry, len(s.Submissions))
	for _, e := range s.Submissions {
		out[e.Team] = e
	}
	return out
}

type memStore struct {
	state   model.State
	saved   int
	saveErr error
	loadErr error
}

func (s *memStore) Load(context.Context) (model.State, error) {
	if s.loadErr != nil {
		return model.State{}, s.loadErr
	}
	return s.state.Clone(), nil
}

func (s *memStore) Save(_ context.Context, st model.State) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved++
	s.state = st.Clone()
	return nil
}

func TestMerge(t *testing.T) {
	Convey("Given a merger with a deterministic clock", t, func() {
		m := leaderboard.NewMerger(leaderboard.WithClock(tickingClock()))

		Convey("When merging into an empty state", func() {
			res := m.Merge(model.EmptyState(), []model.ScoreRecord{rec("alice", 0.90, 0.70, 0.20)})
			ranked := leaderboard.NewAggregator(nil).Rank(res.State)

			Convey("Then exactly one entry exists with rank 1", func() {
				So(ranked.Submissions, ShouldHaveLength, 1)
				So(ranked.Submissions[0].Team, ShouldEqual, "alice")
				So(ranked.Submissions[0].Rank, ShouldEqual, 1)
				So(ranked.LastUpdated, ShouldNotBeNil)
				So(res.Updated, ShouldResemble, []string{"alice"})
				So(res.Repairs, ShouldBeEmpty)
			})
		})

		Convey("When a record carries a wrong gap", func() {
			res := m.Merge(model.EmptyState(), []model.ScoreRecord{rec("dave", 0.80, 0.60, 0.05)})

			Convey("Then the gap is corrected and the record accepted", func() {
				So(res.State.Submissions, ShouldHaveLength, 1)
				So(res.State.Submissions[0].Gap, ShouldAlmostEqual, 0.20, 1e-9)
				So(res.Repairs, ShouldHaveLength, 1)
				So(res.Repairs[0].Team, ShouldEqual, "dave")
				So(res.Repairs[0].Supplied, ShouldEqual, 0.05)
				So(res.Repairs[0].Corrected, ShouldAlmostEqual, 0.20, 1e-9)
			})
		})

		Convey("When a gap is within tolerance", func() {
			res := m.Merge(model.EmptyState(), []model.ScoreRecord{rec("erin", 0.8, 0.6, 0.2000000001)})

			Convey("Then it is kept as supplied", func() {
				So(res.Repairs, ShouldBeEmpty)
				So(res.State.Submissions[0].Gap, ShouldEqual, 0.2000000001)
			})
		})

		Convey("When a later record for a team is worse", func() {
			first := m.Merge(model.EmptyState(), []model.ScoreRecord{rec("bob", 0.9, 0.8, 0.1)})
			second := m.Merge(first.State, []model.ScoreRecord{rec("bob", 0.5, 0.5, 0)})

			Convey("Then the existing best stands", func() {
				So(second.State.Submissions[0].ChallengeAcc, ShouldEqual, 0.9)
				So(second.State.Submissions[0].Timestamp, ShouldEqual, first.State.Submissions[0].Timestamp)
				So(second.Updated, ShouldBeEmpty)
				So(second.Discarded, ShouldHaveLength, 1)
				So(second.Discarded[0].Best, ShouldEqual, 0.9)
			})
		})

		Convey("When an equal score arrives", func() {
			first := m.Merge(model.EmptyState(), []model.ScoreRecord{rec("bob", 0.9, 0.8, 0.1)})
			second := m.Merge(first.State, []model.ScoreRecord{rec("bob", 0.9, 0.9, 0)})

			Convey("Then it does not replace the entry", func() {
				So(second.State.Submissions[0].OriginalAcc, ShouldEqual, 0.8)
				So(second.Discarded, ShouldHaveLength, 1)
			})
		})

		Convey("When a better score arrives under a different case", func() {
			first := m.Merge(model.EmptyState(), []model.ScoreRecord{rec("Carol", 0.6, 0.6, 0)})
			second := m.Merge(first.State, []model.ScoreRecord{rec("CAROL", 0.7, 0.6, 0.1)})

			Convey("Then the entry improves and keeps its first spelling", func() {
				So(second.State.Submissions, ShouldHaveLength, 1)
				So(second.State.Submissions[0].Team, ShouldEqual, "Carol")
				So(second.State.Submissions[0].ChallengeAcc, ShouldEqual, 0.7)
				So(second.State.Submissions[0].Timestamp.After(first.State.Submissions[0].Timestamp), ShouldBeTrue)
				So(second.Updated, ShouldResemble, []string{"Carol"})
			})
		})

		Convey("When the same team improves twice in one batch", func() {
			res := m.Merge(model.EmptyState(), []model.ScoreRecord{
				rec("zoe", 0.5, 0.5, 0),
				rec("zoe", 0.6, 0.5, 0.1),
			})

			Convey("Then it is reported as updated once", func() {
				So(res.Updated, ShouldResemble, []string{"zoe"})
				So(res.State.Submissions[0].ChallengeAcc, ShouldEqual, 0.6)
			})
		})

		Convey("When the input state is merged", func() {
			in := model.EmptyState()
			_ = m.Merge(in, []model.ScoreRecord{rec("a", 0.1, 0.1, 0)})

			Convey("Then the input is not mutated", func() {
				So(in.Submissions, ShouldBeEmpty)
				So(in.LastUpdated, ShouldBeNil)
			})
		})

		Convey("When merging an empty batch", func() {
			res := m.Merge(model.EmptyState(), nil)

			Convey("Then last_updated still advances", func() {
				So(res.State.LastUpdated, ShouldNotBeNil)
				So(res.State.Submissions, ShouldBeEmpty)
				So(res.Updated, ShouldBeEmpty)
			})
		})
	})
}

func TestMergeProperties(t *testing.T) {
	Convey("Given a batch of records with duplicate teams", t, func() {
		m := leaderboard.NewMerger(leaderboard.WithClock(tickingClock()))
		agg := leaderboard.NewAggregator(nil)
		batch := []model.ScoreRecord{
			rec("alice", 0.90, 0.70, 0.20),
			rec("bob", 0.90, 0.85, 0.05),
			rec("carol", 0.75, 0.75, 0),
			rec("alice", 0.60, 0.60, 0),
			rec("bob", 0.92, 0.80, 0.12),
		}

		Convey("When the batch is merged twice", func() {
			once := agg.Rank(m.Merge(model.EmptyState(), batch).State)
			twiceRes := m.Merge(once, batch)
			twice := agg.Rank(twiceRes.State)

			Convey("Then the ranked standings are unchanged", func() {
				So(twiceRes.Updated, ShouldBeEmpty)
				So(twice.Submissions, ShouldHaveLength, len(once.Submissions))
				for i := range once.Submissions {
					So(twice.Submissions[i].Team, ShouldEqual, once.Submissions[i].Team)
					So(twice.Submissions[i].ChallengeAcc, ShouldEqual, once.Submissions[i].ChallengeAcc)
					So(twice.Submissions[i].Rank, ShouldEqual, once.Submissions[i].Rank)
				}
				So(twice.LastUpdated.After(*once.LastUpdated), ShouldBeTrue)
			})
		})

		Convey("When the batch is split across several merges", func() {
			state := model.EmptyState()
			best := map[string]float64{}
			for _, r := range batch {
				state = m.Merge(state, []model.ScoreRecord{r}).State
				best[r.Team] = math.Max(best[r.Team], r.ChallengeAcc)
			}

			Convey("Then each team holds its maximum challenge accuracy", func() {
				got := byTeam(state)
				So(got, ShouldHaveLength, len(best))
				for team, acc := range best {
					So(got[team].ChallengeAcc, ShouldEqual, acc)
				}
			})
		})
	})

	Convey("Given the example ranking scenario", t, func() {
		m := leaderboard.NewMerger(leaderboard.WithClock(tickingClock()))
		agg := leaderboard.NewAggregator(nil)

		res := m.Merge(model.EmptyState(), []model.ScoreRecord{
			rec("alice", 0.90, 0.80, 0.10),
			rec("bob", 0.90, 0.85, 0.05),
			rec("carol", 0.75, 0.70, 0.05),
		})
		ranked := agg.Rank(res.State)

		Convey("Then ranks follow standard competition ranking", func() {
			got := byTeam(ranked)
			So(got["alice"].Rank, ShouldEqual, 1)
			So(got["bob"].Rank, ShouldEqual, 1)
			So(got["carol"].Rank, ShouldEqual, 3)
			So(ranked.Submissions[0].Team, ShouldEqual, "alice")
		})
	})
}

func TestAggregatorSteps(t *testing.T) {
	Convey("Given an aggregator over an in-memory store", t, func() {
		store := &memStore{state: model.EmptyState()}
		agg := leaderboard.NewAggregator(store,
			leaderboard.WithClock(tickingClock()),
			leaderboard.WithTolerance(1e-4),
		)
		ctx := context.Background()

		Convey("When records are loaded, merged, ranked and persisted", func() {
			state, err := agg.Load(ctx)
			So(err, ShouldBeNil)
			res := agg.Merge(state, []model.ScoreRecord{rec("alice", 0.9, 0.7, 0.2), rec("bob", 0.95, 0.9, 0.05)})
			ranked := agg.Rank(res.State)
			So(agg.Persist(ctx, ranked), ShouldBeNil)

			Convey("Then the ranked state is stored", func() {
				So(store.saved, ShouldEqual, 1)
				So(store.state.Submissions[0].Team, ShouldEqual, "bob")
				So(store.state.Submissions[0].Rank, ShouldEqual, 1)
				So(store.state.Submissions[1].Rank, ShouldEqual, 2)
				So(res.Updated, ShouldHaveLength, 2)
			})
		})

		Convey("When the store cannot be read", func() {
			store.loadErr = errors.New("boom")
			_, err := agg.Load(ctx)

			Convey("Then the error surfaces", func() {
				So(err, ShouldNotBeNil)
				So(store.saved, ShouldEqual, 0)
			})
		})

		Convey("When the store cannot be written", func() {
			store.saveErr = errors.New("disk full")
			res := agg.Merge(model.EmptyState(), []model.ScoreRecord{rec("alice", 0.9, 0.7, 0.2)})
			err := agg.Persist(ctx, agg.Rank(res.State))

			Convey("Then the previous state is kept", func() {
				So(err, ShouldNotBeNil)
				So(res.Updated, ShouldResemble, []string{"alice"})
				So(store.state.Submissions, ShouldBeEmpty)
			})
		})
	})
}

func TestMergeCollapsesStoredDuplicates(t *testing.T) {
	Convey("Given a stored state holding one team under two spellings", t, func() {
		m := leaderboard.NewMerger(leaderboard.WithClock(tickingClock()))
		base := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
		stored := model.State{Submissions: []model.Entry{
			{ScoreRecord: model.ScoreRecord{Team: "Alice", ChallengeAcc: 0.5, OriginalAcc: 0.5, Timestamp: base}, Rank: 2},
			{ScoreRecord: model.ScoreRecord{Team: "alice", ChallengeAcc: 0.7, OriginalAcc: 0.6, Gap: 0.1, Timestamp: base.Add(time.Hour)}, Rank: 1},
		}}

		Convey("When a worse record for the team is merged", func() {
			res := m.Merge(stored, []model.ScoreRecord{rec("ALICE", 0.6, 0.6, 0)})

			Convey("Then one entry remains with the best score and the first spelling", func() {
				So(res.State.Submissions, ShouldHaveLength, 1)
				e := res.State.Submissions[0]
				So(e.Team, ShouldEqual, "Alice")
				So(e.ChallengeAcc, ShouldEqual, 0.7)
				So(e.Timestamp.Equal(base.Add(time.Hour)), ShouldBeTrue)
				So(res.Collapsed, ShouldHaveLength, 1)
				So(res.Collapsed[0].ChallengeAcc, ShouldEqual, 0.5)
				So(res.Discarded, ShouldHaveLength, 1)
				So(res.Updated, ShouldBeEmpty)
			})

			Convey("Then the stored state is not mutated", func() {
				So(stored.Submissions, ShouldHaveLength, 2)
				So(stored.Submissions[1].Team, ShouldEqual, "alice")
			})
		})

		Convey("When the duplicates tie on score", func() {
			tied := model.State{Submissions: []model.Entry{
				{ScoreRecord: model.ScoreRecord{Team: "bob", ChallengeAcc: 0.8, OriginalAcc: 0.8, Timestamp: base.Add(time.Hour)}},
				{ScoreRecord: model.ScoreRecord{Team: "BOB", ChallengeAcc: 0.8, OriginalAcc: 0.7, Gap: 0.1, Timestamp: base}},
			}}
			res := m.Merge(tied, nil)

			Convey("Then the earlier timestamp wins under the first spelling", func() {
				So(res.State.Submissions, ShouldHaveLength, 1)
				e := res.State.Submissions[0]
				So(e.Team, ShouldEqual, "bob")
				So(e.OriginalAcc, ShouldEqual, 0.7)
				So(e.Timestamp.Equal(base), ShouldBeTrue)
			})
		})
	})
}

func TestRepairGap(t *testing.T) {
	Convey("Given a NaN gap", t, func() {
		r, repair := leaderboard.RepairGap(rec("x", 0.5, 0.25, math.NaN()), leaderboard.DefaultGapTolerance)

		Convey("Then it is recomputed", func() {
			So(repair, ShouldNotBeNil)
			So(r.Gap, ShouldEqual, 0.25)
		})
	})
}
