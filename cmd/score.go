package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/graphboard/internal/domain/scoring"
)

func newScoreCmd(c *cli) *cobra.Command {
	var (
		team        string
		predictions string
		appendFeed  bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a predictions CSV against the hidden labels",
		Long: `Reads hidden labels and masks from PRIVATE_Y, PRIVATE_TEST_MASK_CHALLENGE and
PRIVATE_TEST_MASK and prints team:challenge_acc:original_acc:gap.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if team == "" {
				team = strings.TrimSuffix(filepath.Base(predictions), filepath.Ext(predictions))
			}
			hidden, err := scoring.LoadHidden(c.getenv)
			if err != nil {
				return err
			}
			f, err := os.Open(predictions)
			if err != nil {
				return fmt.Errorf("open predictions: %w", err)
			}
			defer func() { _ = f.Close() }()
			preds, err := scoring.ReadPredictions(f)
			if err != nil {
				return err
			}

			res, err := scoring.NewAccuracyScorer().Score(cmd.Context(), hidden.Input(team, preds))
			if err != nil {
				return err
			}
			return c.emitScore(res, appendFeed)
		},
	}
	f := cmd.Flags()
	f.StringVar(&team, "team", "", "team name (default: predictions file stem)")
	f.StringVar(&predictions, "predictions", "", "predictions CSV")
	f.BoolVar(&appendFeed, "append", false, "append the score line to the score feed")
	_ = cmd.MarkFlagRequired("predictions")
	return cmd
}

func newExtractCmd(c *cli) *cobra.Command {
	var appendFeed bool
	cmd := &cobra.Command{
		Use:   "extract TEAM",
		Short: "Turn evaluator output for TEAM into a score line",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			team := args[0]
			path := filepath.Join(c.cfg.ResultsDir, team+"_output.txt")
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read evaluator output: %w", err)
			}
			res, err := scoring.Extract(team, string(data))
			if err != nil {
				return err
			}
			return c.emitScore(res, appendFeed)
		},
	}
	cmd.Flags().BoolVar(&appendFeed, "append", false, "append the score line to the score feed")
	return cmd
}

// emitScore prints the score line and optionally appends it to the feed.
func (c *cli) emitScore(res scoring.Result, appendFeed bool) error {
	line := res.Line()
	c.out.Info("%s", line)
	if !appendFeed {
		return nil
	}
	path := c.cfg.ScoresPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open score feed: %w", err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("append score feed: %w", err)
	}
	return f.Close()
}
