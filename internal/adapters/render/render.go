// Package render presents a leaderboard as an HTML page, a terminal table
// or YAML.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/graphboard/internal/domain/model"
	"github.com/okian/graphboard/internal/domain/ranking"
	"github.com/okian/graphboard/pkg/atomicfile"
)

// TimeLayout formats submission and update times.
const TimeLayout = "2006-01-02 15:04 UTC"

// DefaultTitle is used when no title is configured.
const DefaultTitle = "Leaderboard"

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/leaderboard.html.tmpl"))

// Row is one formatted leaderboard line.
type Row struct {
	Rank         int    `json:"rank" yaml:"rank"`
	Team         string `json:"team" yaml:"team"`
	ChallengeAcc string `json:"challenge_acc" yaml:"challenge_acc"`
	OriginalAcc  string `json:"original_acc" yaml:"original_acc"`
	Gap          string `json:"gap" yaml:"gap"`
	Submitted    string `json:"submitted" yaml:"submitted"`
}

// Page is the data handed to the HTML template.
type Page struct {
	Title       string
	LastUpdated string
	Rows        []Row
}

// Rows ranks the state and formats each entry, best first.
func Rows(state model.State) []Row {
	entries := ranking.Rank(state.Submissions)
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row{
			Rank:         e.Rank,
			Team:         e.Team,
			ChallengeAcc: formatAcc(e.ChallengeAcc),
			OriginalAcc:  formatAcc(e.OriginalAcc),
			Gap:          formatAcc(e.Gap),
			Submitted:    formatTime(e.Timestamp),
		})
	}
	return rows
}

// NewPage builds the template data for state.
func NewPage(state model.State, opts ...Option) Page {
	o := options{title: DefaultTitle}
	for _, opt := range opts {
		opt(&o)
	}
	p := Page{Title: o.title, Rows: Rows(state)}
	if state.LastUpdated != nil {
		p.LastUpdated = formatTime(*state.LastUpdated)
	}
	return p
}

// HTML writes the leaderboard page for state to w.
func HTML(w io.Writer, state model.State, opts ...Option) error {
	if err := pageTemplate.Execute(w, NewPage(state, opts...)); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// WriteHTML renders state to path, replacing any previous page atomically.
func WriteHTML(path string, state model.State, opts ...Option) error {
	var buf bytes.Buffer
	if err := HTML(&buf, state, opts...); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatAcc(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}
