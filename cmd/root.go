package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/graphboard/internal/adapters/repository"
	"github.com/okian/graphboard/internal/adapters/submission"
	"github.com/okian/graphboard/internal/config"
	"github.com/okian/graphboard/internal/domain/leaderboard"
	"github.com/okian/graphboard/pkg/logger"
	"github.com/okian/graphboard/pkg/metrics"
	"github.com/okian/graphboard/pkg/tracing"
	"github.com/okian/graphboard/pkg/ux"
)

// cli carries state shared by all commands.
type cli struct {
	cfg    *config.Config
	log    logger.Logger
	out    *ux.Printer
	stdin  io.Reader
	stderr io.Writer
	getenv func(string) string

	closers []func(context.Context) error
}

// globalFlags override values loaded from config.
type globalFlags struct {
	configPath  string
	leaderboard string
	logLevel    string
	logFormat   string
	trace       bool
}

func newRootCmd(c *cli) *cobra.Command {
	var gf globalFlags

	root := &cobra.Command{
		Use:           "graphboard",
		Short:         "Maintain the graph classification challenge leaderboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd, gf)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&gf.configPath, "config", "", "YAML config file (overrides "+config.EnvConfigPath+")")
	pf.StringVar(&gf.leaderboard, "leaderboard", "", "leaderboard document path")
	pf.StringVar(&gf.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&gf.logFormat, "log-format", "", "text or json")
	pf.BoolVar(&gf.trace, "trace", false, "print OpenTelemetry spans to stderr")

	root.AddCommand(
		newUpdateCmd(c),
		newValidateCmd(c),
		newDecryptCmd(c),
		newEncryptCmd(c),
		newKeygenCmd(c),
		newScoreCmd(c),
		newExtractCmd(c),
		newRenderCmd(c),
		newShowCmd(c),
		newServeCmd(c),
	)
	return root
}

// setup loads config, applies flag overrides and initializes logging and
// tracing.
func (c *cli) setup(cmd *cobra.Command, gf globalFlags) error {
	if gf.configPath != "" {
		if err := os.Setenv(config.EnvConfigPath, gf.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("leaderboard") {
		cfg.LeaderboardPath = gf.leaderboard
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = gf.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = gf.logFormat
	}
	if flags.Changed("trace") {
		cfg.Trace = gf.trace
	}
	c.cfg = cfg

	if err := logger.Init(logger.WithWriter(c.stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	c.log = logger.Named(cmd.Name())

	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
	)

	shutdown, err := tracing.Init(c.stderr, cfg.Trace)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	c.closers = append(c.closers, shutdown)
	return nil
}

func (c *cli) close(ctx context.Context) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil && c.log != nil {
			c.log.Warn(ctx, "shutdown", logger.Error(err))
		}
	}
	c.closers = nil
}

// storage is the persistence surface the commands need.
type storage interface {
	leaderboard.Store
	Raw(ctx context.Context) ([]byte, error)
}

// openStore returns the configured leaderboard store.
func (c *cli) openStore(ctx context.Context) (storage, error) {
	switch c.cfg.Store {
	case config.StoreGCS:
		s, err := repository.NewGCSStore(ctx, c.cfg.GCSBucket, c.cfg.GCSObject)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func(context.Context) error { return s.Close() })
		return s, nil
	default:
		return repository.NewFileStore(c.cfg.LeaderboardPath), nil
	}
}

func (c *cli) gatekeeper() *submission.Gatekeeper {
	return submission.NewGatekeeper(c.cfg.SubmissionsDir,
		submission.WithEnv(c.getenv),
		submission.WithActorEnv(c.cfg.ActorEnv),
		submission.WithKeyEnv(c.cfg.KeyEnv),
		submission.WithOutputEnv(c.cfg.OutputEnv),
	)
}
