package schedule

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLog = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestConfigValidate(t *testing.T) {
	_, err := NewRunner(Config{Interval: time.Second})
	require.EqualError(t, err, "process is required")

	_, err = NewRunner(Config{Process: ProcessFunc(func(context.Context) error { return nil })})
	require.EqualError(t, err, "interval must be greater than 0")

	r, err := NewRunner(Config{Interval: time.Second, Process: ProcessFunc(func(context.Context) error { return nil })})
	require.NoError(t, err)
	assert.NotNil(t, r.cfg.Clock)
	assert.NotNil(t, r.log)
}

func TestTryRunCountsFailures(t *testing.T) {
	calls := 0
	r, err := NewRunner(Config{
		Logger:   testLog,
		Clock:    clockwork.NewFakeClock(),
		Interval: time.Minute,
		Process: ProcessFunc(func(context.Context) error {
			calls++
			if calls == 1 {
				return errors.New("feed unavailable")
			}
			return nil
		}),
	})
	require.NoError(t, err)

	assert.True(t, r.TryRun(context.Background()))
	assert.True(t, r.TryRun(context.Background()), "a failed run releases the guard")
	assert.EqualValues(t, 2, r.Runs())
	assert.EqualValues(t, 1, r.Failures())
	assert.EqualValues(t, 0, r.Skipped())
}

func TestTickWhileRunningIsSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clockwork.NewFakeClock()
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	r, err := NewRunner(Config{
		Logger:   testLog,
		Clock:    clk,
		Interval: time.Minute,
		Process: ProcessFunc(func(ctx context.Context) error {
			started <- struct{}{}
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		}),
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	require.NoError(t, clk.BlockUntilContext(ctx, 1))

	clk.Advance(time.Minute)
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not start")
	}

	clk.Advance(time.Minute)
	require.Eventually(t, func() bool { return r.Skipped() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, r.Runs())

	release <- struct{}{}
	require.Eventually(t, func() bool {
		if !r.mu.TryLock() {
			return false
		}
		r.mu.Unlock()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	clk.Advance(time.Minute)
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("second run did not start")
	}
	assert.EqualValues(t, 2, r.Runs())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunAtStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{}, 1)
	r, err := NewRunner(Config{
		Logger:     testLog,
		Clock:      clockwork.NewFakeClock(),
		Interval:   time.Hour,
		RunAtStart: true,
		Process: ProcessFunc(func(context.Context) error {
			ran <- struct{}{}
			return nil
		}),
	})
	require.NoError(t, err)

	go func() {
		<-ran
		cancel()
	}()
	require.NoError(t, r.Run(ctx))
	assert.EqualValues(t, 1, r.Runs())
}
