package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"smart_edgar/pkg/core/schedule"
	"smart_edgar/pkg/core/store"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically load new filings from the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			interval, err := cmd.Flags().GetDuration("interval")
			if err != nil {
				return fmt.Errorf("failed to get interval flag: %w", err)
			}
			if interval == 0 {
				interval = a.cfg.ScheduleInterval
			}
			if interval == 0 {
				interval = time.Hour
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			st, closeStore, err := a.openStore(ctx)
			if err != nil {
				a.log.Error("Failed to open store", "error", err)
				return err
			}
			defer closeStore()

			runner, err := schedule.NewRunner(schedule.Config{
				Logger:     a.log,
				Clock:      clockwork.NewRealClock(),
				Interval:   interval,
				Process:    newDirectoryLoad(a, st),
				RunAtStart: true,
			})
			if err != nil {
				return err
			}
			a.log.Info("Watching data directory", "dir", a.cfg.DataDir, "interval", interval)
			return runner.Run(ctx)
		},
	}
	cmd.Flags().Duration("interval", 0, "time between runs (default: schedule_interval, or 1h)")
	return cmd
}

// directoryLoad stores the files of the data directory that were not loaded
// by an earlier run. Runs never overlap, so seen needs no lock.
type directoryLoad struct {
	app  *app
	st   store.Store
	seen map[string]bool
}

func newDirectoryLoad(a *app, st store.Store) *directoryLoad {
	return &directoryLoad{app: a, st: st, seen: map[string]bool{}}
}

func (d *directoryLoad) Process(ctx context.Context) error {
	files, err := collectFiles([]string{d.app.cfg.DataDir})
	if err != nil {
		return err
	}
	var fresh []string
	for _, f := range files {
		if !d.seen[f] {
			fresh = append(fresh, f)
		}
	}
	n, err := d.app.loadFiles(ctx, d.st, fresh)
	if err != nil {
		return err
	}
	for _, f := range fresh {
		d.seen[f] = true
	}
	d.app.log.Info("Load finished", "files", len(fresh), "values", n)
	return nil
}
