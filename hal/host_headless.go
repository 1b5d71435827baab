//go:build !baremetal

package hal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	Ticks   uint64
	// Lines are raised periodically by the simulated hardware.
	Lines []PeriodicLine
}

// PeriodicLine raises Line every Every ticks.
type PeriodicLine struct {
	Line  int
	Every uint64
}

// RunHeadless runs the board without opening a window. One goroutine plays
// the hardware (a tick source raising the configured interrupt lines), the
// other plays core 0 calling step between ticks.
func RunHeadless(ctx context.Context, h *Host, step func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	for _, l := range cfg.Lines {
		if l.Line < 0 || l.Line >= NumIRQ {
			return fmt.Errorf("headless line %d: %w", l.Line, ErrInvalidLine)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	ticked := make(chan struct{}, 1)

	g.Go(func() error {
		t := time.NewTicker(d)
		defer t.Stop()

		var tick uint64
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
			tick++
			for _, l := range cfg.Lines {
				if l.Every > 0 && tick%l.Every == 0 {
					h.board.Interrupts().Raise(l.Line)
				}
			}
			select {
			case ticked <- struct{}{}:
			default:
			}
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return errHeadlessDone
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticked:
			}
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, errHeadlessDone) {
		return nil
	}
	return err
}

var errHeadlessDone = errors.New("headless: tick budget reached")
