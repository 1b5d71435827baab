// Package simcfg loads the YAML script that drives the host simulator:
// tick rate and run length, interrupt lines the simulated hardware raises,
// and how core 1 behaves during launch.
//
//	hz: 60
//	ticks: 600
//	irqs:
//	  - line: 0   # TIMER_IRQ_0
//	    every: 1
//	core1:
//	  launch: true
//	  mismatches: 3
//	  sentinel: 0xC0FFEE
package simcfg

import (
	"errors"
	"fmt"
	"os"

	"ember/app"
	"ember/hal"
	"ember/kernel/fault"

	"gopkg.in/yaml.v2"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid simulation script")

// Script is one simulation run.
type Script struct {
	Hz    int    `yaml:"hz"`
	Ticks uint64 `yaml:"ticks"`
	IRQs  []IRQ  `yaml:"irqs"`
	Core1 Core1  `yaml:"core1"`
	App   App    `yaml:"app"`
}

// IRQ raises Line every Every ticks.
type IRQ struct {
	Line  int    `yaml:"line"`
	Every uint64 `yaml:"every"`
}

// Core1 controls the core 1 demo and the simulated boot ROM.
type Core1 struct {
	Launch bool `yaml:"launch"`
	// Mismatches is how many handshake echoes the boot ROM corrupts.
	Mismatches int    `yaml:"mismatches"`
	Sentinel   uint32 `yaml:"sentinel"`
}

// App tunes the demo tasks.
type App struct {
	BlinkEvery  int `yaml:"blink_every"`
	RedrawEvery int `yaml:"redraw_every"`
}

// Default returns the script used when no file is given.
func Default() Script {
	cfg := app.DefaultConfig()
	return Script{
		Hz:   60,
		IRQs: []IRQ{{Line: hal.IRQTimer0, Every: 1}},
		Core1: Core1{
			Launch:   cfg.Core1,
			Sentinel: cfg.Sentinel,
		},
		App: App{
			BlinkEvery:  cfg.BlinkEvery,
			RedrawEvery: cfg.RedrawEvery,
		},
	}
}

// Load reads and validates the script at path.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Script{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a script over the defaults and validates it. Unknown keys
// are rejected.
func Parse(data []byte) (Script, error) {
	s := Default()
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return Script{}, fmt.Errorf("decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Script{}, err
	}
	return s, nil
}

// Validate checks the script against what the simulator can do.
func (s Script) Validate() error {
	if s.Hz <= 0 || s.Hz > 1000 {
		return fmt.Errorf("%w: hz %d out of range 1..1000", ErrInvalid, s.Hz)
	}
	for i, irq := range s.IRQs {
		if irq.Line < 0 || irq.Line >= hal.NumIRQ {
			return fmt.Errorf("%w: irqs[%d]: line %d out of range 0..%d", ErrInvalid, i, irq.Line, hal.NumIRQ-1)
		}
		if irq.Line == hal.IRQSIOProc0 {
			return fmt.Errorf("%w: irqs[%d]: line %d is raised by core 1, not by the script", ErrInvalid, i, irq.Line)
		}
		if irq.Every == 0 {
			return fmt.Errorf("%w: irqs[%d]: every must be at least 1", ErrInvalid, i)
		}
	}
	if s.Core1.Mismatches < 0 {
		return fmt.Errorf("%w: core1.mismatches %d is negative", ErrInvalid, s.Core1.Mismatches)
	}
	if s.App.BlinkEvery < 0 || s.App.RedrawEvery < 0 {
		return fmt.Errorf("%w: app intervals must not be negative", ErrInvalid)
	}
	return nil
}

// Headless returns the runner configuration.
func (s Script) Headless() hal.HeadlessConfig {
	cfg := hal.HeadlessConfig{Enabled: true, Hz: s.Hz, Ticks: s.Ticks}
	for _, irq := range s.IRQs {
		cfg.Lines = append(cfg.Lines, hal.PeriodicLine{Line: irq.Line, Every: irq.Every})
	}
	return cfg
}

// SimOptions returns the simulated board options.
func (s Script) SimOptions() hal.SimOptions {
	return hal.SimOptions{CorruptEchoes: s.Core1.Mismatches}
}

// AppConfig returns the demo configuration. A failed core 1 launch is
// reported and returned from app.New rather than parking the process.
func (s Script) AppConfig() app.Config {
	return app.Config{
		Core1:       s.Core1.Launch,
		Sentinel:    s.Core1.Sentinel,
		BlinkEvery:  s.App.BlinkEvery,
		RedrawEvery: s.App.RedrawEvery,
		Halt:        fault.Report,
	}
}
