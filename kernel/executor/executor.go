// Package executor is ember's cooperative task scheduler.
//
// Tasks are futures polled from a single FIFO run queue. A task is only
// queued when something wakes it: the executor never re-queues a task that
// returned "not ready". Wakers carry a counted reference to their task, so a
// task lives as long as its queue entry and its outstanding wakers.
package executor

import (
	"strconv"
	"unsafe"

	"ember/hal"
	"ember/kernel/ksync"
)

// Config holds the optional executor collaborators.
type Config struct {
	// Logger receives spawn notices. Nil is silent.
	Logger hal.Logger
	// Idle runs when the run queue is empty. On the board it waits for an
	// interrupt.
	Idle func()
}

// Executor owns the run queue. There is one per system; it is created once by
// the application and passed to whatever spawns tasks.
type Executor struct {
	bank  hal.Spinlocks
	log   hal.Logger
	idle  func()
	queue ksync.Mutex[runQueue]
}

// Stats is a snapshot of the executor counters.
type Stats struct {
	// Live counts tasks whose cell has not been released yet.
	Live    int
	Queued  int
	Spawned uint32
	Polls   uint32
}

type runQueue struct {
	items   []ksync.Arc[task]
	head    int
	live    int
	spawned uint32
	polls   uint32
}

func (q *runQueue) push(a ksync.Arc[task]) {
	q.items = append(q.items, a)
}

func (q *runQueue) pop() (ksync.Arc[task], bool) {
	if q.head == len(q.items) {
		return ksync.Arc[task]{}, false
	}
	a := q.items[q.head]
	q.items[q.head] = ksync.Arc[task]{}
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return a, true
}

func (q *runQueue) len() int { return len(q.items) - q.head }

// task is the shared cell behind every spawned computation.
type task struct {
	id   uint32
	exec *Executor
	fut  ksync.Mutex[Future[Unit]]
}

// New returns an executor whose locks live in bank.
func New(bank hal.Spinlocks, cfg Config) *Executor {
	e := &Executor{bank: bank, log: cfg.Logger, idle: cfg.Idle}
	if e.idle == nil {
		e.idle = func() {}
	}
	e.queue.Init(ksync.NewSpinlock(bank, ksync.LockRunQueue), runQueue{})
	return e
}

// spawn allocates a task cell for f and queues it.
func (e *Executor) spawn(f Future[Unit]) uint32 {
	a := ksync.NewArcWithDrop(ksync.NewSpinlock(e.bank, ksync.LockTaskCount), task{exec: e}, e.retire)
	t := a.Get()
	// The task lock is held for a whole poll. Interrupt handlers never take
	// it, so it leaves interrupts enabled.
	t.fut.Init(ksync.NewSpinlock(e.bank, ksync.LockTask).Unmasked(), f)

	g := e.queue.Lock()
	q := g.Get()
	q.spawned++
	q.live++
	t.id = q.spawned
	q.push(a)
	g.Unlock()

	if e.log != nil {
		e.log.WriteLineString("executor: spawn task " + strconv.FormatUint(uint64(t.id), 10))
	}
	return t.id
}

// retire is the task cell drop hook.
func (e *Executor) retire(*task) {
	g := e.queue.Lock()
	g.Get().live--
	g.Unlock()
}

// schedule moves one task reference onto the run queue.
func (e *Executor) schedule(a ksync.Arc[task]) {
	g := e.queue.Lock()
	g.Get().push(a)
	g.Unlock()
}

// Tick polls queued tasks until the run queue is empty and returns how many
// polls it made. Tasks woken during the tick are polled in the same tick.
func (e *Executor) Tick() int {
	n := 0
	for {
		g := e.queue.Lock()
		q := g.Get()
		a, ok := q.pop()
		if ok {
			q.polls++
		}
		g.Unlock()
		if !ok {
			return n
		}

		t := a.Get()
		w := taskWaker(a)
		t.poll(NewContext(&w))
		w.Drop()
		n++
	}
}

func (t *task) poll(cx *Context) {
	g := t.fut.Lock()
	defer g.Unlock()
	if f := *g.Get(); f != nil {
		f.Poll(cx)
	}
}

// Run ticks forever, calling the idle hook whenever the queue drains.
func (e *Executor) Run() {
	for {
		e.Tick()
		e.idle()
	}
}

// Stats returns the current counters.
func (e *Executor) Stats() Stats {
	g := e.queue.Lock()
	defer g.Unlock()
	q := g.Get()
	return Stats{
		Live:    q.live,
		Queued:  q.len(),
		Spawned: q.spawned,
		Polls:   q.polls,
	}
}

var taskVTable = WakerVTable{
	Clone:     cloneTask,
	Wake:      wakeTask,
	WakeByRef: wakeTaskByRef,
	Drop:      dropTask,
}

// taskWaker moves a's reference into a waker.
func taskWaker(a ksync.Arc[task]) Waker {
	return Waker{data: a.ToRaw(), vtable: &taskVTable}
}

func cloneTask(p unsafe.Pointer) unsafe.Pointer {
	c := ksync.ArcFromRaw[task](p).Clone()
	return c.ToRaw()
}

func wakeTask(p unsafe.Pointer) {
	a := ksync.ArcFromRaw[task](p)
	a.Get().exec.schedule(a)
}

func wakeTaskByRef(p unsafe.Pointer) {
	c := ksync.ArcFromRaw[task](p).Clone()
	c.Get().exec.schedule(c)
}

func dropTask(p unsafe.Pointer) {
	a := ksync.ArcFromRaw[task](p)
	a.Release()
}

// BlockOn spawns f and runs the executor until it completes, calling the idle
// hook whenever there is nothing to poll.
func BlockOn[T any](e *Executor, f Future[T]) T {
	h := Spawn(e, f)
	w := NoopWaker()
	cx := NewContext(&w)
	for {
		e.Tick()
		if v, ok := h.Poll(cx); ok {
			return v
		}
		e.idle()
	}
}
