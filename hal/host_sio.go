//go:build !baremetal

package hal

import (
	"sync"
	"sync/atomic"
	"time"
)

type simSpinlocks struct {
	locks [NumSpinlocks]atomic.Bool
}

// NewSimSpinlocks returns a host spinlock bank. Locks are shared by every
// goroutine that uses the bank, the way SIO spinlocks are shared by both cores.
func NewSimSpinlocks() Spinlocks {
	return &simSpinlocks{}
}

func (s *simSpinlocks) TryLock(n uint8) bool {
	return s.locks[n].CompareAndSwap(false, true)
}

func (s *simSpinlocks) Unlock(n uint8) {
	s.locks[n].Store(false)
}

const fifoDepth = 8

// simFIFO is one direction of the inter-core mailbox.
type simFIFO struct {
	mu    sync.Mutex
	words [fifoDepth]uint32
	head  int
	n     int
}

func (f *simFIFO) push(v uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == fifoDepth {
		return false
	}
	f.words[(f.head+f.n)%fifoDepth] = v
	f.n++
	return true
}

func (f *simFIFO) pop() (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n == 0 {
		return 0, false
	}
	v := f.words[f.head]
	f.head = (f.head + 1) % fifoDepth
	f.n--
	return v, true
}

func (f *simFIFO) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

// simEvent is a core's event register: SEV latches it, WFE consumes it.
type simEvent struct {
	ch chan struct{}
}

func newSimEvent() *simEvent {
	return &simEvent{ch: make(chan struct{}, 1)}
}

func (e *simEvent) signal() {
	select {
	case e.ch <- struct{}{}:
	default:
	}
}

func (e *simEvent) wait() {
	t := time.NewTimer(time.Millisecond)
	defer t.Stop()
	select {
	case <-e.ch:
	case <-t.C:
	}
}

type simMPU struct {
	mu   sync.Mutex
	ctrl uint32
	rbar uint32
	rasr uint32
}

func (m *simMPU) Ctrl() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctrl
}

func (m *simMPU) SetCtrl(v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctrl = v
}

func (m *simMPU) SetRegion(rbar, rasr uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rbar = rbar
	m.rasr = rasr
}

// Region returns the last programmed RBAR/RASR pair.
func (m *simMPU) Region() (rbar, rasr uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rbar, m.rasr
}

// simCore is one processor's view of the SIO and PPB.
type simCore struct {
	rx      *simFIFO
	tx      *simFIFO
	event   *simEvent
	peer    *simEvent
	mpu     *simMPU
	vtor    atomic.Uint32
	onWrite func()
}

func (c *simCore) FIFO() FIFO          { return c }
func (c *simCore) MPU() MPU            { return c.mpu }
func (c *simCore) VectorTable() uint32 { return c.vtor.Load() }
func (c *simCore) SignalEvent()        { c.peer.signal() }
func (c *simCore) WaitEvent()          { c.event.wait() }

func (c *simCore) Valid() bool { return c.rx.len() > 0 }
func (c *simCore) Ready() bool { return c.tx.len() < fifoDepth }

func (c *simCore) Read() uint32 {
	v, _ := c.rx.pop()
	return v
}

func (c *simCore) Write(v uint32) {
	// A write to a full FIFO is dropped, as on hardware (FIFO_ST.WOF).
	if !c.tx.push(v) {
		return
	}
	if c.onWrite != nil {
		c.onWrite()
	}
}

// SimInterrupts is the host interrupt controller. Raise runs the handler
// synchronously on the caller's goroutine; handlers never run concurrently.
type SimInterrupts struct {
	mu       sync.Mutex
	handlers [NumIRQ]func(int16)
	raised   [NumIRQ]uint64
	// level reports whether a level-triggered line is asserted.
	level [NumIRQ]func() bool
}

// Enable installs fn for line. A level-triggered line that is already
// asserted fires right away, as the NVIC does on unmask.
func (s *SimInterrupts) Enable(line int, fn func(irq int16)) error {
	if line < 0 || line >= NumIRQ {
		return ErrInvalidLine
	}
	s.mu.Lock()
	s.handlers[line] = fn
	asserted := s.level[line]
	s.mu.Unlock()

	if asserted != nil && asserted() {
		s.Raise(line)
	}
	return nil
}

func (s *SimInterrupts) setLevel(line int, fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level[line] = fn
}

// Raise fires line. It reports false when no handler is enabled for it.
func (s *SimInterrupts) Raise(line int) bool {
	if line < 0 || line >= NumIRQ {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn := s.handlers[line]
	if fn == nil {
		return false
	}
	s.raised[line]++
	fn(int16(line))
	return true
}

// Raised returns how many times line was delivered to a handler.
func (s *SimInterrupts) Raised(line int) uint64 {
	if line < 0 || line >= NumIRQ {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raised[line]
}

func (s *SimInterrupts) enabled(line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handlers[line] != nil
}
