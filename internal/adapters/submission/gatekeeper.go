// Package submission checks that exactly one encrypted submission is present
// for the acting team, and decrypts it for scoring.
package submission

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/okian/graphboard/internal/domain/model"
	"github.com/okian/graphboard/pkg/metrics"
)

const (
	encExt       = ".enc"
	csvEncExt    = ".csv.enc"
	metadataFile = "metadata.json"
)

//go:embed schema/metadata.schema.json
var metadataSchemaJSON string

var metadataSchema = jsonschema.MustCompileString("metadata.schema.json", metadataSchemaJSON)

// Metadata is the participant-supplied description of a submission.
type Metadata struct {
	Team           string `json:"team"`
	SubmissionType string `json:"submission_type"`
}

// Submission is a validated encrypted submission.
type Submission struct {
	Path     string
	Team     string
	Metadata Metadata
}

// Gatekeeper validates the submissions directory.
type Gatekeeper struct {
	dir       string
	actorEnv  string
	keyEnv    string
	outputEnv string
	getenv    func(string) string
}

// NewGatekeeper creates a Gatekeeper for dir.
func NewGatekeeper(dir string, opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		dir:       dir,
		actorEnv:  "GITHUB_ACTOR",
		keyEnv:    "SUBMISSION_KEY",
		outputEnv: "GITHUB_OUTPUT",
		getenv:    os.Getenv,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TeamName derives the team from a submission file name:
// "team.csv.enc" and "team.enc" both yield "team".
func TeamName(filename string) string {
	name := filepath.Base(filename)
	switch {
	case strings.HasSuffix(name, csvEncExt):
		return strings.TrimSuffix(name, csvEncExt)
	case strings.HasSuffix(name, encExt):
		return strings.TrimSuffix(name, encExt)
	}
	return name
}

// FindSingle returns the path of the only .enc file in the directory.
func (g *Gatekeeper) FindSingle() (string, error) {
	entries, err := os.ReadDir(g.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNoSubmissionsDir, g.dir)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", g.dir, err)
	}

	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), encExt) {
			found = append(found, e.Name())
		}
	}
	slices.Sort(found)
	switch len(found) {
	case 0:
		return "", ErrNoSubmission
	case 1:
		return filepath.Join(g.dir, found[0]), nil
	default:
		return "", fmt.Errorf("%w: found %s", ErrMultipleSubmissions, strings.Join(found, ", "))
	}
}

// Actor returns the external identity of whoever submitted.
func (g *Gatekeeper) Actor() (string, error) {
	actor := strings.TrimSpace(g.getenv(g.actorEnv))
	if actor == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingActor, g.actorEnv)
	}
	return actor, nil
}

// Validate checks the structure of the pending submission: one .enc file
// named after the actor, and a metadata.json for the same team.
func (g *Gatekeeper) Validate(_ context.Context) (sub Submission, err error) {
	defer func() {
		if err != nil {
			metrics.RecordSubmissionCheck(kind(err))
			return
		}
		metrics.RecordSubmissionCheck("ok")
	}()

	path, err := g.FindSingle()
	if err != nil {
		return Submission{}, err
	}
	team := TeamName(path)

	actor, err := g.Actor()
	if err != nil {
		return Submission{}, err
	}
	if !model.SameTeam(team, actor) {
		return Submission{}, fmt.Errorf("%w: expected %s%s, got %s", ErrTeamMismatch, actor, encExt, filepath.Base(path))
	}

	meta, err := g.readMetadata()
	if err != nil {
		return Submission{}, err
	}
	if !model.SameTeam(meta.Team, actor) {
		return Submission{}, fmt.Errorf("%w: metadata team %q, actor %q", ErrTeamMismatch, meta.Team, actor)
	}

	return Submission{Path: path, Team: team, Metadata: meta}, nil
}

func (g *Gatekeeper) readMetadata() (Metadata, error) {
	path := filepath.Join(g.dir, metadataFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Metadata{}, ErrMissingMetadata
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("read %s: %w", path, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	if err := metadataSchema.Validate(raw); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	return meta, nil
}
