// Package reactor turns hardware interrupts into task wake-ups.
//
// Each of the RP2040's 26 NVIC lines has a list of wakers. A task waiting on
// a line registers its waker, under the table lock, before it reports "not
// ready"; the interrupt handler wakes everything on the line's list.
//
// Lists are drained when their line fires. A task that wants the next firing
// as well registers again on its next suspension, so a list never holds
// wakers for tasks that stopped caring.
package reactor

import (
	"strconv"

	"ember/hal"
	"ember/kernel/executor"
	"ember/kernel/ksync"
)

// NumLines is the number of interrupt lines the reactor tracks.
const NumLines = hal.NumIRQ

// Reactor is the interrupt-to-waker table.
type Reactor struct {
	log   hal.Logger
	table ksync.Mutex[table]
}

type table struct {
	lines [NumLines][]executor.Waker
	fired [NumLines]uint32
	armed [NumLines]bool
}

// New returns an empty reactor whose table lock lives in bank.
func New(bank hal.Spinlocks, log hal.Logger) *Reactor {
	r := &Reactor{log: log}
	r.table.Init(ksync.NewSpinlock(bank, ksync.LockReactor), table{})
	return r
}

func checkLine(line int) {
	if line < 0 || line >= NumLines {
		panic("reactor: interrupt line out of range")
	}
}

// Register adds a clone of w to line's list. It reports false when a waker
// for the same task is already waiting on line.
func (r *Reactor) Register(line int, w *executor.Waker) bool {
	checkLine(line)
	g := r.table.Lock()
	t := g.Get()
	ok := t.register(line, w)
	first := ok && !t.armed[line]
	t.armed[line] = true
	g.Unlock()

	if first && r.log != nil {
		r.log.WriteLineString("reactor: line " + strconv.Itoa(line) + " armed")
	}
	return ok
}

func (t *table) register(line int, w *executor.Waker) bool {
	for _, have := range t.lines[line] {
		if have.WillWake(*w) {
			return false
		}
	}
	t.lines[line] = append(t.lines[line], w.Clone())
	return true
}

// Deregister removes the waker for w's task from line's list. It reports
// whether one was registered.
func (r *Reactor) Deregister(line int, w *executor.Waker) bool {
	checkLine(line)
	g := r.table.Lock()
	list := g.Get().lines[line]
	var removed executor.Waker
	for i, have := range list {
		if have.WillWake(*w) {
			removed = have
			g.Get().lines[line] = append(list[:i], list[i+1:]...)
			break
		}
	}
	g.Unlock()

	if !removed.Valid() {
		return false
	}
	removed.Drop()
	return true
}

// Dispatch is the interrupt entry point. Negative or out-of-range lines are
// spurious and ignored. Every waker on the line's list is woken once and
// the list is cleared.
func (r *Reactor) Dispatch(irq int16) {
	if irq < 0 || int(irq) >= NumLines {
		return
	}
	g := r.table.Lock()
	t := g.Get()
	t.fired[irq]++
	list := t.lines[irq]
	t.lines[irq] = nil
	g.Unlock()

	for i := range list {
		list[i].Wake()
	}
}

// Pending returns how many wakers wait on line.
func (r *Reactor) Pending(line int) int {
	checkLine(line)
	g := r.table.Lock()
	defer g.Unlock()
	return len(g.Get().lines[line])
}

// Fired returns how many times line has been dispatched.
func (r *Reactor) Fired(line int) uint32 {
	checkLine(line)
	g := r.table.Lock()
	defer g.Unlock()
	return g.Get().fired[line]
}

// Wait returns a future that completes at the first firing of line after
// its first poll.
func (r *Reactor) Wait(line int) executor.Future[executor.Unit] {
	checkLine(line)
	return &waitLine{r: r, line: line}
}

type waitLine struct {
	r     *Reactor
	line  int
	gen   uint32
	armed bool
}

func (f *waitLine) Poll(cx *executor.Context) (executor.Unit, bool) {
	g := f.r.table.Lock()
	defer g.Unlock()
	t := g.Get()
	if !f.armed {
		f.armed = true
		f.gen = t.fired[f.line]
	} else if t.fired[f.line] != f.gen {
		return executor.Unit{}, true
	}
	// Registered under the same lock as the generation check, so a firing
	// in between cannot be missed.
	t.register(f.line, cx.Waker())
	t.armed[f.line] = true
	return executor.Unit{}, false
}
