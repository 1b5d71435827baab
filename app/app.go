// Package app wires the runtime onto a board and runs the demo workload.
package app

import (
	"errors"
	"fmt"

	"ember/hal"
	"ember/internal/buildinfo"
	"ember/kernel/executor"
	"ember/kernel/fault"
	"ember/kernel/jumpstart"
	"ember/kernel/ksync"
	"ember/kernel/reactor"
)

// DefaultSentinel is the word the core 1 demo publishes.
const DefaultSentinel = 0x1CE0C0DE

// Config selects the demo workload.
type Config struct {
	// Core1 launches the core 1 demo and listens for its word.
	Core1    bool
	Sentinel uint32
	// BlinkEvery is the number of timer ticks per LED toggle.
	BlinkEvery int
	// RedrawEvery is the number of timer ticks between status panel redraws.
	RedrawEvery int
	// Halt stops the system when core 1 cannot be started. Nil means
	// fault.Halt; host runners pass fault.Report so New returns the error.
	Halt func(error)
}

// DefaultConfig is the firmware configuration.
func DefaultConfig() Config {
	return Config{
		Core1:       true,
		Sentinel:    DefaultSentinel,
		BlinkEvery:  50,
		RedrawEvery: 30,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Sentinel == 0 {
		c.Sentinel = d.Sentinel
	}
	if c.BlinkEvery <= 0 {
		c.BlinkEvery = d.BlinkEvery
	}
	if c.RedrawEvery <= 0 {
		c.RedrawEvery = d.RedrawEvery
	}
	return c
}

// Status is what the demo tasks have observed. It is only touched from
// core 0's task context.
type Status struct {
	Beats        uint32
	LED          bool
	Answer       int
	Core1Word    uint32
	Core1Seen    bool
	Core1Retries int
	Presses      uint32
	Redraws      uint32
	Exec         executor.Stats
}

// System is the runtime instance for one board.
type System struct {
	h      hal.HAL
	cfg    Config
	log    hal.Logger
	exec   *executor.Executor
	react  *reactor.Reactor
	launch *jumpstart.Launcher

	status Status
	// core1Word is written by core 1.
	core1Word ksync.Mutex[uint32]
}

// New builds the runtime on h, launches core 1 when configured and spawns
// the demo tasks. Tasks run from Step or Run.
func New(h hal.HAL, cfg Config) (*System, error) {
	cfg = cfg.withDefaults()
	installHaltHandler(h)

	bank := h.Spinlocks()
	s := &System{h: h, cfg: cfg, log: h.Logger()}
	s.core1Word.Init(ksync.NewSpinlock(bank, ksync.LockCore1Word), 0)

	s.log.WriteLineString(buildinfo.Banner())
	bootStep(h, "executor")
	s.exec = executor.New(bank, executor.Config{Logger: s.log, Idle: h.Core().WaitEvent})
	s.react = reactor.New(bank, s.log)
	s.launch = jumpstart.New(h.Core(), h.PSM(), jumpstart.Config{Logger: s.log, Halt: cfg.Halt})

	bootStep(h, "interrupts")
	irq := h.Interrupts()
	if err := irq.Enable(hal.IRQTimer0, s.react.Dispatch); err != nil {
		return nil, fmt.Errorf("enable timer line: %w", err)
	}

	executor.Spawn[executor.Unit](s.exec, &heartbeat{s: s}).Release()
	executor.Spawn[executor.Unit](s.exec, &answer{s: s}).Release()
	executor.Spawn[executor.Unit](s.exec, &panel{s: s}).Release()

	// The button line only exists where the board can route it.
	switch err := irq.Enable(hal.IRQIOBank0, s.react.Dispatch); {
	case err == nil:
		executor.Spawn[executor.Unit](s.exec, &button{s: s}).Release()
	case !errors.Is(err, hal.ErrNotImplemented):
		return nil, fmt.Errorf("enable button line: %w", err)
	}

	if cfg.Core1 {
		bootStep(h, "core 1")
		err := s.launch.Launch(s.core1Main())
		s.status.Core1Retries = s.launch.Retries()
		if err != nil {
			return nil, fmt.Errorf("launch core 1: %w", err)
		}

		executor.Spawn[executor.Unit](s.exec, &inbox{s: s}).Release()
		// The FIFO line goes live only now: before the launch returns, the
		// words in the FIFO are handshake echoes.
		if err := irq.Enable(hal.IRQSIOProc0, s.react.Dispatch); err != nil {
			return nil, fmt.Errorf("enable fifo line: %w", err)
		}
	}
	bootStep(h, "running")
	return s, nil
}

// Step runs every ready task once. Host runners call it once per frame. A
// panicking task halts the system and Step reports the panic.
func (s *System) Step() (err error) {
	if fault.InHaltMode() {
		return fault.ErrHalted
	}
	defer func() {
		if r := recover(); r != nil {
			err = fault.FromPanic(r)
			fault.Report(err)
		}
	}()
	s.exec.Tick()
	return nil
}

// Run builds the firmware system on h and runs it forever.
func Run(h hal.HAL) {
	defer fault.Recover()
	s, err := New(h, DefaultConfig())
	if err != nil {
		fault.Halt(err)
	}
	s.exec.Run()
}

// Status returns a copy of the demo status.
func (s *System) Status() Status {
	st := s.status
	st.Exec = s.exec.Stats()
	return st
}

// Core1Word returns what core 1 published, or zero.
func (s *System) Core1Word() uint32 {
	g := s.core1Word.Lock()
	defer g.Unlock()
	return *g.Get()
}

func (s *System) Executor() *executor.Executor { return s.exec }
func (s *System) Reactor() *reactor.Reactor    { return s.react }
