package repository

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/okian/graphboard/internal/domain/model"
	"github.com/okian/graphboard/internal/domain/ranking"
)

//go:embed schema/leaderboard.schema.json
var documentSchemaJSON string

var documentSchema = jsonschema.MustCompileString("leaderboard.schema.json", documentSchemaJSON)

// document is the persisted JSON shape.
type document struct {
	LastUpdated *string         `json:"last_updated"`
	Submissions []documentEntry `json:"submissions"`
}

type documentEntry struct {
	Team         string  `json:"team"`
	ChallengeAcc float64 `json:"challenge_acc"`
	OriginalAcc  float64 `json:"original_acc"`
	Gap          float64 `json:"gap"`
	Timestamp    string  `json:"timestamp"`
	Rank         int     `json:"rank"`
}

// naiveLayouts cover timestamps written without a zone by older tooling.
// They are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Encode renders state as 2-space indented JSON with a trailing newline.
// Submissions are always written sorted and ranked, whatever order and ranks
// the caller holds.
func Encode(state model.State) ([]byte, error) {
	doc := document{Submissions: make([]documentEntry, 0, len(state.Submissions))}
	if state.LastUpdated != nil {
		s := formatTime(*state.LastUpdated)
		doc.LastUpdated = &s
	}
	for _, e := range ranking.Rank(state.Submissions) {
		doc.Submissions = append(doc.Submissions, documentEntry{
			Team:         e.Team,
			ChallengeAcc: e.ChallengeAcc,
			OriginalAcc:  e.OriginalAcc,
			Gap:          e.Gap,
			Timestamp:    formatTime(e.Timestamp),
			Rank:         e.Rank,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode leaderboard: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses and validates a persisted document. Any failure is
// ErrCorruptState.
func Decode(data []byte) (model.State, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.State{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	if err := documentSchema.Validate(raw); err != nil {
		return model.State{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.State{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	state := model.EmptyState()
	if doc.LastUpdated != nil && strings.TrimSpace(*doc.LastUpdated) != "" {
		t, err := ParseTime(*doc.LastUpdated)
		if err != nil {
			return model.State{}, fmt.Errorf("%w: last_updated: %w", ErrCorruptState, err)
		}
		state.LastUpdated = &t
	}
	for i, d := range doc.Submissions {
		ts, err := ParseTime(d.Timestamp)
		if err != nil {
			return model.State{}, fmt.Errorf("%w: submissions[%d].timestamp: %w", ErrCorruptState, i, err)
		}
		state.Submissions = append(state.Submissions, model.Entry{
			ScoreRecord: model.ScoreRecord{
				Team:         d.Team,
				ChallengeAcc: d.ChallengeAcc,
				OriginalAcc:  d.OriginalAcc,
				Gap:          d.Gap,
				Timestamp:    ts,
			},
			Rank: d.Rank,
		})
	}
	return state, nil
}

// ParseTime reads an ISO-8601 timestamp. Values without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if dt, err := strfmt.ParseDateTime(s); err == nil {
		return time.Time(dt).UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
