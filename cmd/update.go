package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/graphboard/internal/adapters/feed"
	service "github.com/okian/graphboard/internal/app"
)

func newUpdateCmd(c *cli) *cobra.Command {
	var (
		scores   string
		useKafka bool
		html     string
		noHTML   bool
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Merge a score feed into the leaderboard",
		Long: `Reads team:challenge_acc:original_acc:gap lines (or JSON records) from the
score feed, keeps the best result per team, re-ranks and atomically rewrites
the leaderboard document and page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("scores") {
				c.cfg.ScoresPath = scores
			}
			if cmd.Flags().Changed("html") {
				c.cfg.HTMLPath = html
			}
			if noHTML {
				c.cfg.HTMLPath = ""
			}

			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}

			var src feed.Source
			if useKafka {
				ks, err := feed.NewKafkaSource(feed.KafkaConfig{
					Brokers:     c.cfg.Brokers(),
					Topic:       c.cfg.KafkaTopic,
					GroupID:     c.cfg.KafkaGroupID,
					IdleTimeout: c.cfg.KafkaIdleTimeout(),
					MaxBytes:    c.cfg.KafkaMaxMessageBytes,
				},
					feed.WithLogger(c.log.Named("kafka")),
				)
				if err != nil {
					return err
				}
				defer func() { _ = ks.Close() }()
				src = ks
			} else {
				src = feed.NewFileSource(c.cfg.ScoresPath, feed.WithStdin(c.stdin))
			}

			svc := service.New(store,
				service.WithLogger(c.log),
				service.WithGapTolerance(c.cfg.GapTolerance),
				service.WithHTMLPath(c.cfg.HTMLPath),
				service.WithTitle(c.cfg.Title),
				service.WithPushgateway(c.cfg.PushgatewayURL),
			)
			sum, err := svc.Update(ctx, src)
			if err != nil {
				return err
			}
			if sum.Malformed > 0 {
				c.out.Warning("%d malformed record(s) skipped", sum.Malformed)
			}
			if sum.Repaired > 0 {
				c.out.Warning("%d gap value(s) recomputed", sum.Repaired)
			}
			c.out.Success("Leaderboard updated: %d team(s) updated, %d total", len(sum.Updated), sum.Total)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&scores, "scores", "", `score feed path, "-" for stdin`)
	f.BoolVar(&useKafka, "kafka", false, "drain the configured Kafka topic instead of a file")
	f.StringVar(&html, "html", "", "rendered page path")
	f.BoolVar(&noHTML, "no-html", false, "skip rendering the page")
	return cmd
}
