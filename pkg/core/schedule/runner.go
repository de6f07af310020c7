// Package schedule runs a batch process periodically. Runs never overlap:
// a tick that fires while the previous run is still active is skipped.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Process is one batch run, e.g. loading the latest filings.
type Process interface {
	Process(ctx context.Context) error
}

// ProcessFunc adapts a function to Process.
type ProcessFunc func(ctx context.Context) error

func (f ProcessFunc) Process(ctx context.Context) error { return f(ctx) }

type Config struct {
	Logger     *slog.Logger
	Clock      clockwork.Clock
	Interval   time.Duration
	Process    Process
	RunAtStart bool
}

func (c *Config) Validate() error {
	if c.Process == nil {
		return errors.New("process is required")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be greater than 0")
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Runner triggers the process on every tick of its clock.
type Runner struct {
	log   *slog.Logger
	cfg   Config
	mu    sync.Mutex
	wg    sync.WaitGroup
	runs  atomic.Int64
	skips atomic.Int64
	fails atomic.Int64
}

func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{log: cfg.Logger, cfg: cfg}, nil
}

// Run ticks until ctx is done and then waits for an active run to finish.
func (r *Runner) Run(ctx context.Context) error {
	defer r.wg.Wait()

	if r.cfg.RunAtStart {
		r.trigger(ctx)
	}
	ticker := r.cfg.Clock.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			r.trigger(ctx)
		}
	}
}

func (r *Runner) trigger(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.TryRun(ctx)
	}()
}

// TryRun runs the process unless a run is active. It reports whether the
// process was started.
func (r *Runner) TryRun(ctx context.Context) bool {
	if !r.mu.TryLock() {
		r.skips.Add(1)
		r.log.Info("schedule: run not started, previous run still active")
		return false
	}
	defer r.mu.Unlock()

	id := uuid.New().String()
	start := r.cfg.Clock.Now()
	r.log.Info("schedule: run started", "run", id)
	r.runs.Add(1)

	if err := r.cfg.Process.Process(ctx); err != nil {
		r.fails.Add(1)
		r.log.Error("schedule: run failed", "run", id, "error", err)
		return true
	}
	r.log.Info("schedule: run finished", "run", id, "duration", r.cfg.Clock.Since(start))
	return true
}

// Runs returns the number of started runs.
func (r *Runner) Runs() int64 { return r.runs.Load() }

// Skipped returns the number of ticks dropped because a run was active.
func (r *Runner) Skipped() int64 { return r.skips.Load() }

// Failures returns the number of runs that ended with an error.
func (r *Runner) Failures() int64 { return r.fails.Load() }
