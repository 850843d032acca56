// Package service runs leaderboard update cycles: read a score feed, merge
// it into the persisted state, rank, persist and publish.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/graphboard/internal/adapters/feed"
	"github.com/okian/graphboard/internal/adapters/render"
	"github.com/okian/graphboard/internal/domain/leaderboard"
	"github.com/okian/graphboard/internal/domain/model"
	"github.com/okian/graphboard/pkg/logger"
	"github.com/okian/graphboard/pkg/metrics"
)

const pushJob = "graphboard_update"

// Summary reports the outcome of one update.
type Summary struct {
	RunID      string
	Source     string
	Read       int
	Malformed  int
	Duplicates int
	Repaired   int
	Discarded  int
	// Collapsed counts stored entries merged into another entry of the same team.
	Collapsed int
	// Updated lists the display names of teams whose entry changed.
	Updated []string
	Total   int
}

// Service orchestrates update cycles against a store.
type Service struct {
	store     leaderboard.Store
	agg       *leaderboard.Aggregator
	mergeOpts []leaderboard.Option

	htmlPath string
	title    string
	pushURL  string

	tracer trace.Tracer
	logger logger.Logger
}

// New constructs a Service over store.
func New(store leaderboard.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tracer: otel.Tracer("graphboard/update"),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.agg = leaderboard.NewAggregator(store, s.mergeOpts...)
	return s
}

// Update reads one batch from src and applies it. Malformed records and gap
// repairs are logged and counted but never abort the update. A missing feed,
// an unreadable state or a failed persist is returned as an error with
// nothing committed.
func (s *Service) Update(ctx context.Context, src feed.Source) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), Source: src.Name()}
	log := s.logger.With(logger.String("run_id", sum.RunID), logger.String("source", sum.Source))

	ctx, span := s.tracer.Start(ctx, "graphboard.update", trace.WithAttributes(
		attribute.String("run_id", sum.RunID),
		attribute.String("source", sum.Source),
	))
	defer span.End()

	fail := func(kind, err error) (Summary, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(ctx, "update failed", logger.Error(err))
		return sum, fmt.Errorf("%w: %w", kind, err)
	}

	batch, err := s.read(ctx, src)
	if err != nil {
		return fail(ErrRead, err)
	}
	sum.Read = len(batch.Records)
	sum.Malformed = len(batch.Malformed)
	sum.Duplicates = batch.Duplicates
	for _, m := range batch.Malformed {
		log.Warn(ctx, "skipping malformed record",
			logger.String("origin", m.Origin),
			logger.Int("line", m.Line),
			logger.String("raw", m.Raw),
			logger.String("reason", m.Reason))
	}
	if batch.Duplicates > 0 {
		log.Debug(ctx, "dropped repeated records", logger.Int("count", batch.Duplicates))
	}

	state, err := s.agg.Load(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("store", "load")
		return fail(ErrLoad, err)
	}

	res := s.merge(ctx, state, batch.Records)
	sum.Repaired = len(res.Repairs)
	sum.Discarded = len(res.Discarded)
	sum.Collapsed = len(res.Collapsed)
	sum.Updated = res.Updated
	sum.Total = res.State.Len()
	for _, r := range res.Repairs {
		log.Warn(ctx, "gap did not match accuracies; recomputed",
			logger.String("team", r.Team),
			logger.Float64("supplied", r.Supplied),
			logger.Float64("corrected", r.Corrected))
	}
	for _, e := range res.Collapsed {
		log.Warn(ctx, "stored entry duplicates another team entry; collapsed",
			logger.String("team", e.Team),
			logger.Float64("challenge_acc", e.ChallengeAcc))
	}
	for _, d := range res.Discarded {
		log.Debug(ctx, "record did not beat retained best",
			logger.String("team", d.Record.Team),
			logger.Float64("challenge_acc", d.Record.ChallengeAcc),
			logger.Float64("best", d.Best))
	}

	if err := s.persist(ctx, res.State); err != nil {
		return fail(ErrPersist, err)
	}

	if acker, ok := src.(feed.Acker); ok {
		// Redelivery of an already merged batch is harmless, so a failed
		// commit does not fail the update.
		if err := acker.Ack(ctx); err != nil {
			log.Warn(ctx, "commit consumed records", logger.Error(err))
		}
	}

	s.record(sum, res.State)
	span.SetAttributes(
		attribute.Int("records.read", sum.Read),
		attribute.Int("records.malformed", sum.Malformed),
		attribute.Int("teams.updated", len(sum.Updated)),
		attribute.Int("teams.total", sum.Total),
	)

	if s.htmlPath != "" {
		if err := render.WriteHTML(s.htmlPath, res.State, render.WithTitle(s.title)); err != nil {
			return fail(ErrRender, err)
		}
	}

	if err := metrics.Push(ctx, s.pushURL, pushJob); err != nil {
		log.Warn(ctx, "push metrics", logger.Error(err))
	}

	log.Info(ctx, "leaderboard updated",
		logger.Int("read", sum.Read),
		logger.Int("malformed", sum.Malformed),
		logger.Int("repaired", sum.Repaired),
		logger.Int("updated", len(sum.Updated)),
		logger.Int("total", sum.Total))
	return sum, nil
}

// Render writes the HTML page for the persisted state without merging.
func (s *Service) Render(ctx context.Context) (model.State, error) {
	state, err := s.agg.Load(ctx)
	if err != nil {
		return model.State{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	state = s.agg.Rank(state)
	if s.htmlPath == "" {
		return state, nil
	}
	if err := render.WriteHTML(s.htmlPath, state, render.WithTitle(s.title)); err != nil {
		return model.State{}, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return state, nil
}

func (s *Service) read(ctx context.Context, src feed.Source) (feed.Batch, error) {
	ctx, span := s.tracer.Start(ctx, "graphboard.read")
	defer span.End()

	batch, err := src.Read(ctx)
	if err != nil {
		return feed.Batch{}, err
	}
	metrics.RecordRecordsRead(sourceLabel(src), len(batch.Records))
	metrics.RecordMalformedRecords(len(batch.Malformed))
	metrics.RecordDuplicateRecords(batch.Duplicates)
	return batch, nil
}

func (s *Service) merge(ctx context.Context, state model.State, records []model.ScoreRecord) leaderboard.Result {
	_, span := s.tracer.Start(ctx, "graphboard.merge")
	defer span.End()

	start := time.Now()
	res := s.agg.Merge(state, records)
	res.State = s.agg.Rank(res.State)
	metrics.RecordMergeDuration(float64(time.Since(start).Microseconds()) / 1000)
	return res
}

func (s *Service) persist(ctx context.Context, state model.State) error {
	ctx, span := s.tracer.Start(ctx, "graphboard.persist")
	defer span.End()

	start := time.Now()
	if err := s.agg.Persist(ctx, state); err != nil {
		metrics.RecordPersistError()
		return err
	}
	metrics.RecordPersistDuration(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

func (s *Service) record(sum Summary, state model.State) {
	metrics.RecordGapRepairs(sum.Repaired)
	metrics.RecordDiscardedRecords(sum.Discarded)
	metrics.RecordTeamsUpdated(len(sum.Updated))
	metrics.UpdateTeamsTotal(state.Len())
	if state.LastUpdated != nil {
		metrics.UpdateLastUpdate(*state.LastUpdated)
	}
}

func sourceLabel(src feed.Source) string {
	if _, ok := src.(*feed.KafkaSource); ok {
		return "kafka"
	}
	return "file"
}
