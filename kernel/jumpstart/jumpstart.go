// Package jumpstart starts code on the RP2040's second core.
//
// Core 1 leaves reset in a boot ROM loop that reads the inter-core FIFO. The
// launcher feeds it {0, 0, 1, vector table, stack pointer, entry}, checking
// every echoed word, then waits for the trampoline on core 1 to confirm it
// has copied the entry off the boot stack.
//
// Launches are not concurrency safe: there is a single boot stack, and the
// caller serializes Launch calls.
package jumpstart

import (
	"errors"
	"strconv"
	"unsafe"

	"ember/hal"
	"ember/kernel/fault"
)

var (
	// ErrCore1Unresponsive means core 1 kept echoing wrong words.
	ErrCore1Unresponsive = errors.New("jumpstart: core 1 did not answer the launch handshake")
	// ErrMPUConfigured means core 1 came up with its MPU already enabled.
	ErrMPUConfigured = errors.New("jumpstart: core 1 MPU already configured")
)

// MaxFailures is the number of echo mismatches tolerated before core 1 is
// declared unresponsive.
const MaxFailures = 16

// Entry is the code run on core 1. Run receives core 1's view of the SIO and
// PPB. It should not return; if it does, core 1 parks.
//
// An Entry that also has a Release() method is told when it will never run
// because the launch failed.
type Entry interface {
	Run(c hal.Core)
}

// Func adapts a function to Entry.
type Func func(c hal.Core)

func (f Func) Run(c hal.Core) { f(c) }

type releaser interface {
	Release()
}

// handoff is what the trampoline finds at the top of the boot stack.
type handoff struct {
	entry Entry
	halt  func(error)
}

// Config holds optional launcher collaborators.
type Config struct {
	Logger hal.Logger
	// Halt stops the system on a fatal launch error. Defaults to fault.Halt.
	Halt func(error)
}

// Launcher drives the core 1 boot handshake from core 0.
type Launcher struct {
	core  hal.Core
	psm   hal.PSM
	log   hal.Logger
	halt  func(error)
	stack *Stack

	// inflight keeps the handoff reachable until core 1 acknowledges it.
	inflight *handoff
	retries  int
}

// New returns a launcher driving core 1 through core, the view of the
// calling core (core 0).
func New(core hal.Core, psm hal.PSM, cfg Config) *Launcher {
	l := &Launcher{
		core:  core,
		psm:   psm,
		log:   cfg.Logger,
		halt:  cfg.Halt,
		stack: &bootStack,
	}
	if l.halt == nil {
		l.halt = fault.Halt
	}
	return l
}

// Retries returns the number of echo mismatches seen by the last Launch.
func (l *Launcher) Retries() int { return l.retries }

// Launch resets core 1 and starts entry on it. It returns once core 1 has
// taken the entry. If core 1 does not complete the handshake, entry is
// released and the halt func runs with ErrCore1Unresponsive; should it
// return, so does Launch, with that error.
func (l *Launcher) Launch(entry Entry) error {
	l.psm.ResetCore1()

	h := &handoff{entry: entry, halt: l.halt}
	l.inflight = h
	sp := l.stack.push(uintptr(unsafe.Pointer(h)))

	cmds := [6]uint32{0, 0, 1, l.core.VectorTable(), sp, trampolineAddr()}

	fifo := l.core.FIFO()
	seq, fails := 0, 0
	for seq < len(cmds) {
		cmd := cmds[seq]
		if cmd == 0 {
			// Drain anything stale before a sequence start, then kick core 1
			// out of WFE.
			for fifo.Valid() {
				fifo.Read()
			}
			l.core.SignalEvent()
		}
		for !fifo.Ready() {
		}
		fifo.Write(cmd)
		l.core.SignalEvent()

		if l.receive() == cmd {
			seq++
			continue
		}
		seq = 0
		fails++
		if l.log != nil {
			l.log.WriteLineString("jumpstart: echo mismatch, restarting handshake (" + strconv.Itoa(fails) + ")")
		}
		if fails > MaxFailures {
			l.retries = fails
			l.inflight = nil
			if r, ok := entry.(releaser); ok {
				r.Release()
			}
			l.halt(ErrCore1Unresponsive)
			return ErrCore1Unresponsive
		}
	}

	// Core 1 acknowledges once it no longer needs the boot stack slot.
	l.receive()
	l.inflight = nil
	l.retries = fails
	if l.log != nil {
		l.log.WriteLineString("jumpstart: core 1 running")
	}
	return nil
}

// receive sleeps until the RX FIFO holds a word and returns it.
func (l *Launcher) receive() uint32 {
	fifo := l.core.FIFO()
	for !fifo.Valid() {
		l.core.WaitEvent()
	}
	return fifo.Read()
}

// startCore1 is the body of the trampoline. It runs on core 1, on the boot
// stack, with the handoff the launcher pushed.
func startCore1(c hal.Core, h *handoff, bottom uint32) {
	mpu := c.MPU()
	if mpu.Ctrl() != 0 {
		h.halt(ErrMPUConfigured)
		return
	}
	rbar, rasr := GuardRegion(bottom)
	mpu.SetCtrl(mpuEnablePrivDefault)
	mpu.SetRegion(rbar, rasr)

	entry := h.entry

	fifo := c.FIFO()
	for !fifo.Ready() {
	}
	fifo.Write(1)
	c.SignalEvent()

	entry.Run(c)
}
