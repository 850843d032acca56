package leaderboard

import (
	"context"

	"github.com/okian/graphboard/internal/domain/model"
	"github.com/okian/graphboard/internal/domain/ranking"
)

// Store loads and replaces the persisted leaderboard document.
// Load returns the empty state when nothing has been persisted yet.
// Save must replace the document atomically.
type Store interface {
	Load(ctx context.Context) (model.State, error)
	Save(ctx context.Context, state model.State) error
}

// Aggregator exposes the load, merge, rank and persist steps against a Store.
// Callers sequence the steps so they can observe each one.
type Aggregator struct {
	store  Store
	merger *Merger
}

// NewAggregator creates an Aggregator over store.
func NewAggregator(store Store, opts ...Option) *Aggregator {
	return &Aggregator{store: store, merger: NewMerger(opts...)}
}

// Load reads the current state.
func (a *Aggregator) Load(ctx context.Context) (model.State, error) {
	return a.store.Load(ctx)
}

// Merge folds records into state without touching the store.
func (a *Aggregator) Merge(state model.State, records []model.ScoreRecord) Result {
	return a.merger.Merge(state, records)
}

// Rank returns state with its submissions sorted and ranked.
func (a *Aggregator) Rank(state model.State) model.State {
	state.Submissions = ranking.Rank(state.Submissions)
	return state
}

// Persist replaces the stored document with state.
func (a *Aggregator) Persist(ctx context.Context, state model.State) error {
	return a.store.Save(ctx, state)
}
