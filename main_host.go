//go:build !baremetal

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"ember/app"
	"ember/hal"
	"ember/internal/simcfg"
)

func main() {
	headless := flag.Bool("headless", false, "Run without a window.")
	hz := flag.Int("hz", 60, "Tick rate in headless mode.")
	ticks := flag.Uint64("ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	scriptPath := flag.String("script", "", "YAML simulation script.")
	core1 := flag.Bool("core1", true, "Launch the core 1 demo.")
	flag.Parse()

	script := simcfg.Default()
	if *scriptPath != "" {
		s, err := simcfg.Load(*scriptPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		script = s
	}
	// Flags given on the command line win over the script.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hz":
			script.Hz = *hz
		case "ticks":
			script.Ticks = *ticks
		case "core1":
			script.Core1.Launch = *core1
		}
	})
	if err := script.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	h := hal.NewHost(script.SimOptions(), os.Stdout)
	s, err := app.New(h, script.AppConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, h, s.Step, script.Headless()); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(h, s.Step); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
