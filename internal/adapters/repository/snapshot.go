package repository

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/okian/graphboard/internal/domain/model"
	"github.com/okian/graphboard/internal/domain/ranking"
	"github.com/okian/graphboard/pkg/metrics"
)

// Loader is the read half of a leaderboard store.
type Loader interface {
	Load(ctx context.Context) (model.State, error)
}

// Snapshot is an immutable, ranked view of the leaderboard.
type Snapshot struct {
	state model.State
	// byKey maps a folded team name to its index in state.Submissions.
	byKey map[string]int
}

// NewSnapshot ranks state and indexes it by team.
func NewSnapshot(state model.State) *Snapshot {
	state = state.Clone()
	state.Submissions = ranking.Rank(state.Submissions)
	byKey := make(map[string]int, len(state.Submissions))
	for i, e := range state.Submissions {
		byKey[e.Key()] = i
	}
	return &Snapshot{state: state, byKey: byKey}
}

// State returns a copy of the ranked state.
func (s *Snapshot) State() model.State { return s.state.Clone() }

// Count returns the number of teams.
func (s *Snapshot) Count() int { return len(s.state.Submissions) }

// Rank returns the entry for team, matched case-insensitively.
func (s *Snapshot) Rank(team string) (model.Entry, error) {
	i, ok := s.byKey[model.TeamKey(team)]
	if !ok {
		return model.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, team)
	}
	return s.state.Submissions[i], nil
}

// TopN returns the first n entries in rank order.
func (s *Snapshot) TopN(n int) ([]model.Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	top := ranking.Top(s.state.Submissions, n)
	out := make([]model.Entry, len(top))
	copy(out, top)
	return out, nil
}

// View publishes the latest Snapshot to concurrent readers.
type View struct {
	loader  Loader
	current atomic.Pointer[Snapshot]
}

// NewView creates a view over loader holding an empty snapshot.
func NewView(loader Loader) *View {
	v := &View{loader: loader}
	v.current.Store(NewSnapshot(model.EmptyState()))
	return v
}

// Current returns the latest snapshot. It never returns nil.
func (v *View) Current() *Snapshot { return v.current.Load() }

// Reload loads the store and swaps in a new snapshot. On error the previous
// snapshot stays in place.
func (v *View) Reload(ctx context.Context) error {
	state, err := v.loader.Load(ctx)
	if err != nil {
		return err
	}
	v.current.Store(NewSnapshot(state))
	metrics.RecordSnapshotReload()
	metrics.UpdateTeamsTotal(len(state.Submissions))
	return nil
}
