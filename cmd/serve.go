package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/graphboard/internal/adapters/http/api"
	"github.com/okian/graphboard/internal/adapters/http/swagger"
	"github.com/okian/graphboard/internal/adapters/repository"
	"github.com/okian/graphboard/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	watchDebounce   = 200 * time.Millisecond
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr     string
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the leaderboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				c.cfg.Addr = addr
			}

			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			view := repository.NewView(store)
			if err := view.Reload(ctx); err != nil {
				return err
			}

			srv := api.NewServer(view,
				api.WithMaxLimit(c.cfg.MaxLeaderboardLimit),
				api.WithRateLimit(c.cfg.RateLimitRPS, c.cfg.RateLimitBurst),
				api.WithTitle(c.cfg.Title),
				api.WithLogger(c.log.Named("http")),
			)
			swagger.Register(ctx, srv.Router())
			httpSrv := srv.NewHTTPServer(c.cfg.Addr)

			reload := func(ctx context.Context) {
				if err := view.Reload(ctx); err != nil {
					c.log.Warn(ctx, "reload leaderboard; keeping previous snapshot", logger.Error(err))
					return
				}
				c.log.Info(ctx, "leaderboard reloaded", logger.Int("teams", view.Current().Count()))
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				c.log.Info(gctx, "starting HTTP server", logger.String("addr", c.cfg.Addr))
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				c.log.Info(shutdownCtx, "shutting down server...")
				return httpSrv.Shutdown(shutdownCtx)
			})
			if watch {
				g.Go(func() error {
					if fs, ok := store.(*repository.FileStore); ok {
						return repository.Watch(gctx, fs.Path(), watchDebounce, c.log.Named("watch"), reload)
					}
					return poll(gctx, interval, reload)
				})
			}
			return g.Wait()
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "", "listen address (default from config)")
	f.BoolVar(&watch, "watch", false, "reload when the leaderboard document changes")
	f.DurationVar(&interval, "poll", 30*time.Second, "reload interval for stores that cannot be watched")
	return cmd
}

// poll calls fn every interval until ctx is done.
func poll(ctx context.Context, interval time.Duration, fn func(context.Context)) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}
