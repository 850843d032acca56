package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/graphboard/internal/adapters/repository"
	"github.com/okian/graphboard/internal/adapters/submission"
	"github.com/okian/graphboard/internal/domain/scoring"
	"github.com/okian/graphboard/pkg/metrics"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errw bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errw)
	return code, out.String(), errw.String()
}

func TestUpdateShowRender(t *testing.T) {
	dir := t.TempDir()
	board := filepath.Join(dir, "leaderboard.json")
	html := filepath.Join(dir, "leaderboard.html")
	scores := filepath.Join(dir, "scores.txt")
	require.NoError(t, os.WriteFile(scores, []byte("alice:0.90:0.80:0.10\nbob:0.90:0.70:0.20\ncarol:0.75:0.70:0.05\nnot-a-record\n"), 0o600))

	code, out, errOut := runCLI(t, "", "update", "--leaderboard", board, "--scores", scores, "--html", html)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Leaderboard updated: 3 team(s) updated, 3 total")
	assert.Contains(t, errOut, "1 malformed record(s) skipped")

	data, err := os.ReadFile(board)
	require.NoError(t, err)
	state, err := repository.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 3}, []int{state.Submissions[0].Rank, state.Submissions[1].Rank, state.Submissions[2].Rank})

	page, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(page), "carol")

	code, out, _ = runCLI(t, "dave:0.95:0.90:0.05\n", "update", "--leaderboard", board, "--scores", "-", "--no-html")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "1 team(s) updated, 4 total")

	code, out, _ = runCLI(t, "", "show", "--leaderboard", board, "--format", "table")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "dave")
	assert.Less(t, strings.Index(out, "dave"), strings.Index(out, "carol"))

	code, out, _ = runCLI(t, "", "show", "--leaderboard", board, "-f", "json", "-n", "1")
	require.Equal(t, 0, code)
	top, err := repository.Decode([]byte(out))
	require.NoError(t, err)
	require.Len(t, top.Submissions, 1)
	assert.Equal(t, "dave", top.Submissions[0].Team)

	code, out, _ = runCLI(t, "", "show", "--leaderboard", board, "-f", "yaml")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "team: alice")

	code, _, errOut = runCLI(t, "", "show", "--leaderboard", board, "-f", "xml")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "✖ error:")

	rendered := filepath.Join(dir, "site", "index.html")
	code, out, _ = runCLI(t, "", "render", "--leaderboard", board, "--html", rendered)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Rendered 4 team(s)")
	_, err = os.Stat(rendered)
	assert.NoError(t, err)
}

func TestUpdateMissingFeed(t *testing.T) {
	dir := t.TempDir()
	board := filepath.Join(dir, "leaderboard.json")

	code, _, errOut := runCLI(t, "", "update", "--leaderboard", board, "--scores", filepath.Join(dir, "none.txt"), "--no-html")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "✖ error:")
	assert.Contains(t, errOut, "score feed missing")

	_, err := os.Stat(board)
	assert.True(t, os.IsNotExist(err))
}

func TestSubmissionCommands(t *testing.T) {
	dir := t.TempDir()
	subs := filepath.Join(dir, "submissions")
	require.NoError(t, os.MkdirAll(subs, 0o755))

	key, err := submission.NewKey()
	require.NoError(t, err)
	outputs := filepath.Join(dir, "outputs")
	t.Setenv("GRAPHBOARD_SUBMISSIONS_DIR", subs)
	t.Setenv("SUBMISSION_KEY", key)
	t.Setenv("GITHUB_ACTOR", "Alice")
	t.Setenv("GITHUB_OUTPUT", outputs)

	plain := filepath.Join(dir, "alice.csv")
	require.NoError(t, os.WriteFile(plain, []byte("pred\n1\n0\n1\n"), 0o600))

	code, out, errOut := runCLI(t, "", "encrypt", plain, "-o", filepath.Join(subs, "alice.csv.enc"))
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "team alice")

	code, _, errOut = runCLI(t, "", "validate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "metadata.json is required")

	require.NoError(t, os.WriteFile(filepath.Join(subs, "metadata.json"), []byte(`{"team":"alice","submission_type":"llm"}`), 0o600))
	code, out, errOut = runCLI(t, "", "validate")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Submission valid: alice (llm)")

	code, out, errOut = runCLI(t, "", "decrypt")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Decrypted submission for alice")

	exported, err := os.ReadFile(outputs)
	require.NoError(t, err)
	assert.Contains(t, string(exported), "team_name=alice\n")
	assert.Contains(t, string(exported), "csv_path="+filepath.Join(subs, "alice.csv")+"\n")

	// Scoring the decrypted predictions.
	t.Setenv("PRIVATE_Y", scoring.EncodeInt64Tensor([]int64{1, 1, 1}))
	t.Setenv("PRIVATE_TEST_MASK_CHALLENGE", scoring.EncodeBoolTensor([]bool{true, true, false}))
	t.Setenv("PRIVATE_TEST_MASK", scoring.EncodeBoolTensor([]bool{false, false, true}))
	scores := filepath.Join(dir, "results", "scores.txt")
	t.Setenv("GRAPHBOARD_SCORES_PATH", scores)

	code, out, errOut = runCLI(t, "", "score", "--predictions", filepath.Join(subs, "alice.csv"), "--append")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "alice:0.500000:1.000000:0.500000\n", out)

	fed, err := os.ReadFile(scores)
	require.NoError(t, err)
	assert.Equal(t, out, string(fed))
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRAPHBOARD_RESULTS_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bob_output.txt"),
		[]byte("loading...\n{\"challenge_acc\": 0.8, \"original_acc\": 0.6, \"accuracy_gap\": 0.2}\n"), 0o600))

	code, out, errOut := runCLI(t, "", "extract", "bob")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "bob:0.800000:0.600000:0.200000\n", out)

	code, _, _ = runCLI(t, "", "extract", "nobody")
	assert.Equal(t, 1, code)
}

func TestKeygen(t *testing.T) {
	code, out, _ := runCLI(t, "", "keygen")
	require.Equal(t, 0, code)
	_, err := submission.LoadKey(strings.TrimSpace(out))
	assert.NoError(t, err)
}

func TestMetricsNamespaceFromConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRAPHBOARD_METRICS_NAMESPACE", "contest")
	t.Cleanup(func() { metrics.Configure() })

	code, _, errOut := runCLI(t, "alice:0.5:0.5:0\n", "update", "--leaderboard", filepath.Join(dir, "b.json"), "--scores", "-", "--no-html")
	require.Equal(t, 0, code, errOut)

	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "contest_leaderboard_teams")
}
