package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/cypher-grc/cypher/internal/config"
	"github.com/cypher-grc/cypher/internal/core"
	"github.com/cypher-grc/cypher/internal/db"
	"github.com/cypher-grc/cypher/internal/logging"
)

// cypher-tick fires every due schedule once and exits. Intended to run from
// cron or a systemd timer; a failed schedule run makes the process exit
// non-zero without stopping the remaining schedules.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ServiceName = "cypher-tick"

	if err := cfg.Validate("cypher-tick"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	services := core.NewServices(pool)

	due, err := services.Schedule.GetDue(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to list due schedules")
	}
	if len(due) == 0 {
		logger.Info().Msg("no schedules due")
		return
	}
	logger.Info().Int("count", len(due)).Msg("firing due schedules")

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.TickConcurrency)

	for _, sched := range due {
		g.Go(func() error {
			exec, err := services.Schedule.ExecuteNow(gctx, sched.ID, "system")
			if err != nil {
				failed.Add(1)
				logger.Error().Err(err).Str("schedule_id", sched.ID).Str("name", sched.Name).
					Msg("schedule run failed")
				return nil
			}
			logger.Info().Str("schedule_id", sched.ID).Str("name", sched.Name).
				Int("jobs", len(exec.JobIDs)).Msg("schedule fired")
			return nil
		})
	}
	g.Wait()

	if n := failed.Load(); n > 0 {
		logger.Error().Int64("failed", n).Msg("tick finished with failures")
		os.Exit(1)
	}
	logger.Info().Msg("tick finished")
}
