package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tickspot-scraper/internal/app"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync once, daily at midnight, or on an interval",
	RunE:  runSync,
}

func init() {
	f := syncCmd.Flags()
	f.Bool("once", false, "Run a single sync and exit")
	f.Duration("interval", 15*time.Minute, "Sync interval when not running once")
	f.Bool("daily", false, "Run at local midnight each day (uses SYNC_TZ, default UTC)")
	f.String("from", "", "ISO8601 start time (optional, default: now - 24h)")
	f.String("to", "", "ISO8601 end time (optional, default: now)")
}

func runSync(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	once, _ := f.GetBool("once")
	daily, _ := f.GetBool("daily")
	interval, _ := f.GetDuration("interval")
	fromStr, _ := f.GetString("from")
	toStr, _ := f.GetString("to")

	now := time.Now().UTC()
	toTime, err := app.ParseEnd(toStr, now)
	if err != nil {
		logger.Error("invalid --to", slog.String("error", err.Error()))
		return err
	}
	fromTime, err := app.ParseStart(fromStr, toTime.Add(-24*time.Hour))
	if err != nil {
		logger.Error("invalid --from", slog.String("error", err.Error()))
		return err
	}

	application, err := app.New(logger, cfg)
	if err != nil {
		logger.Error("failed to initialize app", slog.String("error", err.Error()))
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		if err := application.RunOnce(ctx, fromTime, toTime); err != nil {
			logger.Error("sync failed", slog.String("error", err.Error()))
			return err
		}
		logger.Info("sync completed")
		return nil
	}

	if daily {
		return runDaily(ctx, application)
	}
	return runPeriodic(ctx, application, interval, fromTime, toTime)
}

// runDaily syncs the previous local day at each midnight in SYNC_TZ.
func runDaily(ctx context.Context, application *app.App) error {
	loc, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		logger.Error("invalid SYNC_TZ", slog.String("tz", cfg.Sync.Timezone), slog.String("error", err.Error()))
		return err
	}
	logger.Info("starting daily sync at midnight", slog.String("tz", cfg.Sync.Timezone))
	for {
		next := app.NextMidnight(time.Now().In(loc))
		dur := time.Until(next)
		logger.Info("sleeping until next midnight", slog.Time("next", next), slog.Duration("sleep", dur))
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-time.After(dur):
			// Window is [midnight-24h, midnight) in local tz, expressed in UTC
			endUTC := next.UTC()
			startUTC := endUTC.Add(-24 * time.Hour)
			if err := application.RunOnce(ctx, startUTC, endUTC); err != nil {
				logger.Error("daily sync failed", slog.String("error", err.Error()))
			} else {
				logger.Info("daily sync completed", slog.Time("from", startUTC), slog.Time("to", endUTC))
			}
		}
	}
}

func runPeriodic(ctx context.Context, application *app.App, interval time.Duration, from, to time.Time) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("starting periodic sync", slog.Duration("interval", interval))
	// Kick off immediately
	if err := application.RunOnce(ctx, from, to); err != nil {
		logger.Error("initial sync failed", slog.String("error", err.Error()))
	}
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			end := time.Now().UTC()
			start := end.Add(-24 * time.Hour)
			if err := application.RunOnce(ctx, start, end); err != nil {
				logger.Error("periodic sync failed", slog.String("error", err.Error()))
			}
		}
	}
}
