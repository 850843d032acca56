package repository_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/graphboard/internal/adapters/repository"
	"github.com/okian/graphboard/internal/domain/model"
)

func sampleState() model.State {
	last := time.Date(2025, 5, 4, 3, 2, 1, 123456789, time.UTC)
	return model.State{
		LastUpdated: &last,
		Submissions: []model.Entry{
			{ScoreRecord: model.ScoreRecord{Team: "Alice", ChallengeAcc: 0.9, OriginalAcc: 0.7, Gap: 0.2, Timestamp: last.Add(-time.Hour)}, Rank: 1},
			{ScoreRecord: model.ScoreRecord{Team: "bob", ChallengeAcc: 0.75, OriginalAcc: 0.8, Gap: 0.05, Timestamp: last}, Rank: 2},
		},
	}
}

func TestEncode(t *testing.T) {
	data, err := repository.Encode(sampleState())
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasSuffix(text, "}\n"), "trailing newline")
	assert.Contains(t, text, "\n  \"last_updated\": \"2025-05-04T03:02:01.123456789Z\"")
	assert.Contains(t, text, "\"challenge_acc\": 0.9")
	assert.Contains(t, text, "\"rank\": 2")

	empty, err := repository.Encode(model.EmptyState())
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"last_updated\": null,\n  \"submissions\": []\n}\n", string(empty))
}

func TestDecodeRoundTrip(t *testing.T) {
	want := sampleState()
	data, err := repository.Encode(want)
	require.NoError(t, err)

	got, err := repository.Decode(data)
	require.NoError(t, err)
	require.NotNil(t, got.LastUpdated)
	assert.True(t, want.LastUpdated.Equal(*got.LastUpdated))
	require.Len(t, got.Submissions, 2)
	assert.Equal(t, "Alice", got.Submissions[0].Team)
	assert.True(t, want.Submissions[0].Timestamp.Equal(got.Submissions[0].Timestamp))
	assert.Equal(t, 2, got.Submissions[1].Rank)
}

func TestDecodeLegacyTimestamps(t *testing.T) {
	doc := `{
  "last_updated": "2024-11-02T09:15:30.250000",
  "submissions": [
    {"team": "carol", "challenge_acc": 0.8, "original_acc": 0.8, "gap": 0.0,
     "timestamp": "2024-11-02T09:15:30.123456", "rank": 1}
  ]
}`
	got, err := repository.Decode([]byte(doc))
	require.NoError(t, err)
	require.NotNil(t, got.LastUpdated)
	assert.True(t, time.Date(2024, 11, 2, 9, 15, 30, 250000000, time.UTC).Equal(*got.LastUpdated))
	assert.Equal(t, time.UTC, got.Submissions[0].Timestamp.Location())
	assert.Equal(t, 123456000, got.Submissions[0].Timestamp.Nanosecond())
}

func TestDecodeCorrupt(t *testing.T) {
	tests := map[string]string{
		"not json":            `{"last_updated":`,
		"wrong top level":     `[]`,
		"missing submissions": `{"last_updated": null}`,
		"accuracy too high":   `{"last_updated": null, "submissions": [{"team":"a","challenge_acc":1.2,"original_acc":0.5,"gap":0.7,"timestamp":"2024-01-01T00:00:00Z","rank":1}]}`,
		"missing team":        `{"last_updated": null, "submissions": [{"challenge_acc":0.2,"original_acc":0.5,"gap":0.3,"timestamp":"2024-01-01T00:00:00Z","rank":1}]}`,
		"bad timestamp":       `{"last_updated": null, "submissions": [{"team":"a","challenge_acc":0.2,"original_acc":0.5,"gap":0.3,"timestamp":"yesterday","rank":1}]}`,
		"zero rank":           `{"last_updated": null, "submissions": [{"team":"a","challenge_acc":0.2,"original_acc":0.5,"gap":0.3,"timestamp":"2024-01-01T00:00:00Z","rank":0}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := repository.Decode([]byte(doc))
			assert.ErrorIs(t, err, repository.ErrCorruptState)
		})
	}
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{
		"2024-01-02T03:04:05Z",
		"2024-01-02T03:04:05.999999999Z",
		"2024-01-02T04:04:05+01:00",
		"2024-01-02T03:04:05",
		"2024-01-02 03:04:05",
	} {
		got, err := repository.ParseTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2024, got.Year(), s)
		assert.Equal(t, 3, got.Hour(), s)
		assert.Equal(t, time.UTC, got.Location(), s)
	}

	_, err := repository.ParseTime("  ")
	assert.Error(t, err)
}
