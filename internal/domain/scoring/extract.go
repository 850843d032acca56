package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
)

// jsonBlob spans from the first '{' to the last '}' in evaluator output.
var jsonBlob = regexp.MustCompile(`(?s)\{.*\}`)

// evaluatorScores is the JSON summary printed by the evaluator. Missing keys
// read as zero.
type evaluatorScores struct {
	ChallengeAcc float64  `json:"challenge_acc"`
	OriginalAcc  float64  `json:"original_acc"`
	AccuracyGap  *float64 `json:"accuracy_gap"`
}

// Extract pulls the score summary for team out of evaluator output text.
// When the output carries no gap it is derived from the accuracies.
func Extract(team, output string) (Result, error) {
	blob := jsonBlob.FindString(output)
	if blob == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrNoScores, team)
	}
	var s evaluatorScores
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrNoScores, team, err)
	}
	r := Result{
		Team:         team,
		ChallengeAcc: s.ChallengeAcc,
		OriginalAcc:  s.OriginalAcc,
		Gap:          math.Abs(s.ChallengeAcc - s.OriginalAcc),
	}
	if s.AccuracyGap != nil {
		r.Gap = *s.AccuracyGap
	}
	return r, nil
}
