// Command gen-scores writes a deterministic synthetic score feed for smoke
// runs, optionally publishes it to Kafka, and can verify a leaderboard built
// from it.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"github.com/okian/graphboard/internal/adapters/repository"
	"github.com/okian/graphboard/internal/config"
	"github.com/okian/graphboard/internal/domain/leaderboard"
	"github.com/okian/graphboard/internal/testfeed"
	"github.com/okian/graphboard/pkg/ux"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := ux.Default()
	if err := newRootCmd(out).ExecuteContext(ctx); err != nil {
		out.Error(err)
		stop()
		os.Exit(1)
	}
}

type options struct {
	cfg        testfeed.Config
	out        string
	kafka      bool
	perMessage int
	verify     string
}

func newRootCmd(p *ux.Printer) *cobra.Command {
	o := options{cfg: testfeed.DefaultConfig()}
	cmd := &cobra.Command{
		Use:           "gen-scores",
		Short:         "Generate a synthetic score feed",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), p, o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.cfg.Teams, "teams", o.cfg.Teams, "distinct teams")
	f.IntVar(&o.cfg.Records, "records", o.cfg.Records, "records to emit")
	f.Uint64Var(&o.cfg.Seed, "seed", o.cfg.Seed, "random seed")
	f.StringVar(&o.cfg.Format, "format", o.cfg.Format, "line or json")
	f.Float64Var(&o.cfg.MalformedRate, "malformed", o.cfg.MalformedRate, "share of unparsable records")
	f.Float64Var(&o.cfg.GapNoiseRate, "gap-noise", o.cfg.GapNoiseRate, "share of records with an inconsistent gap")
	f.Float64Var(&o.cfg.CaseNoiseRate, "case-noise", o.cfg.CaseNoiseRate, "share of records with upper-cased team names")
	f.StringVarP(&o.out, "out", "o", "-", `output file, "-" for stdout`)
	f.BoolVar(&o.kafka, "kafka", false, "publish to the configured Kafka topic instead of writing a file")
	f.IntVar(&o.perMessage, "per-message", 10, "records per Kafka message")
	f.StringVar(&o.verify, "verify", "", "check the leaderboard document at this path against the feed")
	return cmd
}

func run(ctx context.Context, p *ux.Printer, o options) error {
	feed, err := testfeed.Generate(o.cfg)
	if err != nil {
		return err
	}

	switch {
	case o.verify != "":
		state, err := repository.NewFileStore(o.verify).Load(ctx)
		if err != nil {
			return err
		}
		if err := testfeed.Verify(state, feed, leaderboard.DefaultGapTolerance); err != nil {
			return err
		}
		p.Success("%s holds %d team(s) consistent with the feed", o.verify, state.Len())
		return nil

	case o.kafka:
		cfg, err := config.Load(ctx)
		if err != nil {
			return err
		}
		if len(cfg.Brokers()) == 0 {
			return fmt.Errorf("no kafka brokers configured (%skafka_brokers)", config.EnvPrefix)
		}
		w := &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers()...),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
		}
		defer func() { _ = w.Close() }()
		n, err := feed.Publish(ctx, w, o.perMessage)
		if err != nil {
			return err
		}
		p.Success("published %d record(s) in %d message(s) to %s", len(feed.Lines), n, cfg.KafkaTopic)
		return nil

	default:
		var w io.Writer = p.Out
		if o.out != "-" {
			f, err := os.Create(o.out)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			w = f
		}
		if err := feed.Write(w); err != nil {
			return err
		}
		if o.out != "-" {
			p.Success("wrote %d record(s) for %d team(s) to %s", len(feed.Lines), len(feed.Best), o.out)
		}
		return nil
	}
}
