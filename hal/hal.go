package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrInvalidLine    = errors.New("invalid interrupt line")
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// NumSpinlocks is the number of SIO hardware spinlocks.
const NumSpinlocks = 32

// Spinlocks is the bank of SIO spinlock registers.
//
// Reading lock n claims it and returns true when it was free; writing any
// value releases it. The bank is shared by both cores.
type Spinlocks interface {
	TryLock(n uint8) bool
	Unlock(n uint8)
}

// FIFO is one core's view of the inter-core mailbox: it writes the TX FIFO
// and reads the RX FIFO. Both directions are 8 words deep.
type FIFO interface {
	// Valid reports whether the RX FIFO holds at least one word (FIFO_ST.VLD).
	Valid() bool
	// Ready reports whether the TX FIFO has room (FIFO_ST.RDY).
	Ready() bool
	Read() uint32
	Write(v uint32)
}

// MPU is the calling core's memory protection unit.
type MPU interface {
	Ctrl() uint32
	SetCtrl(v uint32)
	SetRegion(rbar, rasr uint32)
}

// Core is the view of the processor the caller runs on.
type Core interface {
	FIFO() FIFO
	MPU() MPU
	// VectorTable returns the active vector table base (PPB VTOR).
	VectorTable() uint32
	// SignalEvent executes SEV.
	SignalEvent()
	// WaitEvent executes WFE. It may return spuriously.
	WaitEvent()
}

// PSM is the power-on state machine.
type PSM interface {
	// ResetCore1 forces core 1 off, waits for it to report off, then lets it
	// run its boot ROM again.
	ResetCore1()
}

// Interrupts routes NVIC lines to a dispatcher.
type Interrupts interface {
	// Enable unmasks line and calls fn with the line number from interrupt
	// context each time it fires.
	Enable(line int, fn func(irq int16)) error
}

// HAL provides the only contact point between the runtime and the outside world.
type HAL interface {
	Logger() Logger
	LED() LED
	Display() Display
	Spinlocks() Spinlocks
	Core() Core
	PSM() PSM
	Interrupts() Interrupts
	// Inbox returns the words core 1 pushed over the FIFO after launch.
	Inbox() *Inbox
}
