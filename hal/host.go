//go:build !baremetal

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Host is the simulated board plus host-side peripherals.
type Host struct {
	logger *hostLogger
	led    *hostLED
	fb     *hostFramebuffer
	board  *SimBoard
	inbox  Inbox
}

// New returns a host HAL implementation.
func New() HAL {
	return NewHost(SimOptions{}, os.Stdout)
}

// NewHost returns a host HAL around a fresh simulated board that logs to w.
func NewHost(opts SimOptions, w io.Writer) *Host {
	logger := &hostLogger{w: w}
	return &Host{
		logger: logger,
		led:    &hostLED{},
		fb:     newHostFramebuffer(320, 320),
		board:  NewSimBoard(opts),
	}
}

func (h *Host) Logger() Logger       { return h.logger }
func (h *Host) LED() LED             { return h.led }
func (h *Host) Display() Display     { return hostDisplay{fb: h.fb} }
func (h *Host) Spinlocks() Spinlocks { return h.board.Spinlocks() }
func (h *Host) Core() Core           { return h.board.Core0() }
func (h *Host) PSM() PSM             { return h.board.PSM() }
func (h *Host) Inbox() *Inbox        { return &h.inbox }
func (h *Host) Board() *SimBoard     { return h.board }
func (h *Host) LEDOn() bool          { return h.led.isOn() }
func (h *Host) Frames() uint64       { return h.fb.Frames() }

func (h *Host) Interrupts() Interrupts {
	return fifoInterrupts{Interrupts: h.board.Interrupts(), fifo: h.board.Core0().FIFO(), inbox: &h.inbox}
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	mu sync.Mutex
	on bool
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = true
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = false
}

func (l *hostLED) isOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}
