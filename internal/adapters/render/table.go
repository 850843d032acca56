package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/okian/graphboard/internal/domain/model"
	"github.com/okian/graphboard/pkg/ux"
)

var tableHeaders = []string{"RANK", "TEAM", "CHALLENGE", "ORIGINAL", "GAP", "SUBMITTED"}

// Table renders state as a bordered terminal table.
func Table(state model.State, opts ...Option) string {
	o := options{title: DefaultTitle}
	for _, opt := range opts {
		opt(&o)
	}

	rows := Rows(state)
	if len(rows) == 0 {
		return "No submissions yet\n"
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			strconv.Itoa(r.Rank), r.Team, r.ChallengeAcc, r.OriginalAcc, r.Gap, r.Submitted,
		})
	}

	plain := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(tableHeaders...).
		Rows(cells...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if !o.styled {
				return plain
			}
			if row == table.HeaderRow {
				return ux.Styles.Header
			}
			return ux.Styles.Cell
		})
	if o.styled {
		t = t.BorderStyle(ux.Styles.Border)
	}
	return t.String() + "\n"
}

type yamlDoc struct {
	LastUpdated string `yaml:"last_updated,omitempty"`
	Submissions []Row  `yaml:"submissions"`
}

// YAML writes state as a YAML document.
func YAML(w io.Writer, state model.State) error {
	doc := yamlDoc{Submissions: Rows(state)}
	if state.LastUpdated != nil {
		doc.LastUpdated = formatTime(*state.LastUpdated)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("render yaml: %w", err)
	}
	return enc.Close()
}
