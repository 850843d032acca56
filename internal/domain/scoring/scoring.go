// Package scoring computes challenge and original accuracy for a submission
// against hidden labels, and reads scores back out of evaluator output.
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/graphboard/internal/domain/model"
)

// Input holds everything needed to score one submission.
type Input struct {
	Team          string
	Labels        []int64
	ChallengeMask []bool
	OriginalMask  []bool
	Predictions   []int64
}

// Result contains the accuracies computed for a team.
type Result struct {
	Team         string
	ChallengeAcc float64
	OriginalAcc  float64
	Gap          float64
}

// Record converts r into a feed record.
func (r Result) Record() model.ScoreRecord {
	return model.ScoreRecord{
		Team:         r.Team,
		ChallengeAcc: r.ChallengeAcc,
		OriginalAcc:  r.OriginalAcc,
		Gap:          r.Gap,
	}
}

// Line renders r in the colon-delimited feed format.
func (r Result) Line() string {
	return FormatLine(r.Team, r.ChallengeAcc, r.OriginalAcc, r.Gap)
}

// FormatLine renders a feed line with six decimal places per accuracy.
func FormatLine(team string, challenge, original, gap float64) string {
	return fmt.Sprintf("%s:%.6f:%.6f:%.6f", team, challenge, original, gap)
}

// Scorer computes a Result from an Input.
type Scorer interface {
	// Score computes accuracies, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// AccuracyScorer scores predictions by plain accuracy on each mask.
type AccuracyScorer struct{}

// NewAccuracyScorer creates an AccuracyScorer.
func NewAccuracyScorer() *AccuracyScorer { return &AccuracyScorer{} }

// Score computes challenge and original accuracy and their absolute gap.
func (s *AccuracyScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	n := len(in.Labels)
	if len(in.Predictions) == 0 {
		return Result{}, ErrNoPredictions
	}
	if len(in.Predictions) != n || len(in.ChallengeMask) != n || len(in.OriginalMask) != n {
		return Result{}, fmt.Errorf("%w: labels=%d predictions=%d challenge_mask=%d original_mask=%d",
			ErrLengthMismatch, n, len(in.Predictions), len(in.ChallengeMask), len(in.OriginalMask))
	}

	challenge, err := accuracy(in.Labels, in.Predictions, in.ChallengeMask)
	if err != nil {
		return Result{}, fmt.Errorf("challenge mask: %w", err)
	}
	original, err := accuracy(in.Labels, in.Predictions, in.OriginalMask)
	if err != nil {
		return Result{}, fmt.Errorf("original mask: %w", err)
	}

	return Result{
		Team:         in.Team,
		ChallengeAcc: challenge,
		OriginalAcc:  original,
		Gap:          math.Abs(challenge - original),
	}, nil
}

func accuracy(labels, preds []int64, mask []bool) (float64, error) {
	var total, correct int
	for i, m := range mask {
		if !m {
			continue
		}
		total++
		if labels[i] == preds[i] {
			correct++
		}
	}
	if total == 0 {
		return 0, ErrEmptyMask
	}
	return float64(correct) / float64(total), nil
}
