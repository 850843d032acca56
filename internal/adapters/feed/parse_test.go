package feed_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/graphboard/internal/adapters/feed"
	"github.com/okian/graphboard/internal/domain/model"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		want       model.ScoreRecord
		wantReason string
	}{
		{
			name: "well formed",
			line: "alice:0.900000:0.700000:0.200000",
			want: model.ScoreRecord{Team: "alice", ChallengeAcc: 0.9, OriginalAcc: 0.7, Gap: 0.2},
		},
		{
			name: "surrounding space",
			line: "  bob : 0.5 :0.5: 0 ",
			want: model.ScoreRecord{Team: "bob", ChallengeAcc: 0.5, OriginalAcc: 0.5, Gap: 0},
		},
		{name: "two fields", line: "alice:0.9", wantReason: "expected 4 fields, got 2"},
		{name: "five fields", line: "a:b:0.1:0.2:0.3", wantReason: "expected 4 fields, got 5"},
		{name: "non numeric", line: "alice:high:0.7:0.2", wantReason: "challenge_acc is not a number"},
		{name: "blank team", line: " :0.9:0.7:0.2", wantReason: "Team"},
		{name: "out of range", line: "alice:1.5:0.7:0.8", wantReason: "ChallengeAcc"},
		{name: "nan", line: "alice:NaN:0.7:0.2", wantReason: "ChallengeAcc"},
		{name: "negative", line: "alice:0.5:-0.1:0.6", wantReason: "OriginalAcc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := feed.ParseLine(tt.line)
			if tt.wantReason != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, feed.ErrMalformedRecord)
				var me *feed.MalformedRecordError
				require.True(t, errors.As(err, &me))
				assert.Contains(t, me.Reason, tt.wantReason)
				assert.Equal(t, tt.line, me.Raw)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    model.ScoreRecord
		wantErr bool
	}{
		{
			name: "gap key",
			raw:  `{"team":"alice","challenge_acc":0.9,"original_acc":0.7,"gap":0.2}`,
			want: model.ScoreRecord{Team: "alice", ChallengeAcc: 0.9, OriginalAcc: 0.7, Gap: 0.2},
		},
		{
			name: "evaluator gap key",
			raw:  `{"team":"bob","challenge_acc":0.5,"original_acc":0.75,"accuracy_gap":0.25}`,
			want: model.ScoreRecord{Team: "bob", ChallengeAcc: 0.5, OriginalAcc: 0.75, Gap: 0.25},
		},
		{
			name: "derived gap",
			raw:  `{"team":"carol","challenge_acc":0.5,"original_acc":0.75}`,
			want: model.ScoreRecord{Team: "carol", ChallengeAcc: 0.5, OriginalAcc: 0.75, Gap: 0.25},
		},
		{name: "missing accuracy", raw: `{"team":"dave","challenge_acc":0.5}`, wantErr: true},
		{name: "broken", raw: `{"team":`, wantErr: true},
		{name: "string accuracy", raw: `{"team":"erin","challenge_acc":"0.5","original_acc":0.5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := feed.ParseJSON([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, feed.ErrMalformedRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("malformed line does not abort the batch", func(t *testing.T) {
		b, err := feed.Decode(strings.NewReader("alice:0.9:0.7:0.2\nbob:0.8\n"))
		require.NoError(t, err)
		require.Len(t, b.Records, 1)
		assert.Equal(t, "alice", b.Records[0].Team)
		require.Len(t, b.Malformed, 1)
		assert.Equal(t, 2, b.Malformed[0].Line)
		assert.Equal(t, "bob:0.8", b.Malformed[0].Raw)
	})

	t.Run("mixed formats comments and blanks", func(t *testing.T) {
		in := "\n# scores for run 7\nalice:0.9:0.7:0.2\n\n" +
			`{"team":"bob","challenge_acc":0.8,"original_acc":0.8,"gap":0}` + "\n"
		b, err := feed.Decode(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, b.Records, 2)
		assert.Equal(t, "bob", b.Records[1].Team)
		assert.Empty(t, b.Malformed)
	})

	t.Run("line numbers count leading blank lines", func(t *testing.T) {
		b, err := feed.Decode(strings.NewReader("\n\nbad\n"))
		require.NoError(t, err)
		require.Len(t, b.Malformed, 1)
		assert.Equal(t, 3, b.Malformed[0].Line)
	})

	t.Run("identical lines are dropped", func(t *testing.T) {
		b, err := feed.Decode(strings.NewReader("alice:0.9:0.7:0.2\nalice:0.9:0.7:0.2\nalice:0.91:0.7:0.21\n"))
		require.NoError(t, err)
		assert.Len(t, b.Records, 2)
		assert.Equal(t, 1, b.Duplicates)
	})

	t.Run("json array", func(t *testing.T) {
		in := `[
  {"team":"alice","challenge_acc":0.9,"original_acc":0.7,"gap":0.2},
  {"team":"bob"}
]`
		b, err := feed.Decode(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, b.Records, 1)
		require.Len(t, b.Malformed, 1)
		assert.Equal(t, 2, b.Malformed[0].Line)
	})

	t.Run("broken json array is one malformed record", func(t *testing.T) {
		b, err := feed.Decode(strings.NewReader(`[{"team":`))
		require.NoError(t, err)
		assert.Empty(t, b.Records)
		assert.Len(t, b.Malformed, 1)
	})

	t.Run("empty feed", func(t *testing.T) {
		b, err := feed.Decode(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, b.Records)
		assert.Empty(t, b.Malformed)
	})
}

func TestMalformedRecordError(t *testing.T) {
	cause := errors.New("strconv failure")
	err := &feed.MalformedRecordError{Origin: "scores.txt", Line: 4, Raw: "x", Reason: "bad", Err: cause}

	assert.ErrorIs(t, err, feed.ErrMalformedRecord)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "malformed record at scores.txt:4: bad: strconv failure", err.Error())
}
