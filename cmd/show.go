package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/graphboard/internal/adapters/render"
	"github.com/okian/graphboard/internal/adapters/repository"
	service "github.com/okian/graphboard/internal/app"
)

func newRenderCmd(c *cli) *cobra.Command {
	var html string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Re-render the leaderboard page from the persisted state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("html") {
				c.cfg.HTMLPath = html
			}
			if c.cfg.HTMLPath == "" {
				return fmt.Errorf("no html path configured")
			}
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			state, err := service.New(store,
				service.WithLogger(c.log),
				service.WithHTMLPath(c.cfg.HTMLPath),
				service.WithTitle(c.cfg.Title),
			).Render(cmd.Context())
			if err != nil {
				return err
			}
			c.out.Success("Rendered %d team(s) to %s", state.Len(), c.cfg.HTMLPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&html, "html", "", "rendered page path")
	return cmd
}

// Output formats for show.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func newShowCmd(c *cli) *cobra.Command {
	var (
		format string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			state, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			snap := repository.NewSnapshot(state)
			state = snap.State()
			if limit > 0 {
				top, err := snap.TopN(limit)
				if err != nil {
					return err
				}
				state.Submissions = top
			}

			switch strings.ToLower(format) {
			case formatTable:
				c.out.Title(c.cfg.Title)
				_, err = fmt.Fprint(c.out.Out, render.Table(state, render.WithStyle(c.out.Styled())))
				return err
			case formatJSON:
				data, err := repository.Encode(state)
				if err != nil {
					return err
				}
				_, err = c.out.Out.Write(data)
				return err
			case formatYAML:
				return render.YAML(c.out.Out, state)
			default:
				return fmt.Errorf("unknown format %q: want table, json or yaml", format)
			}
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", formatTable, "table, json or yaml")
	f.IntVarP(&limit, "limit", "n", 0, "show only the top N entries")
	return cmd
}
