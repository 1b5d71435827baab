package executor

import (
	"errors"

	"ember/kernel/ksync"
)

// ErrJoinedTwice is the panic value for polling a JoinHandle whose result was
// already taken or that was released.
var ErrJoinedTwice = errors.New("executor: join handle polled after completion")

type joinResult[T any] struct {
	v     T
	ready bool
}

// JoinHandle is a future that completes with the output of a spawned task.
//
// Only the most recent poller is woken when the task finishes. A JoinHandle
// yields its result once; polling it again panics with ErrJoinedTwice.
type JoinHandle[T any] struct {
	result ksync.Arc[ksync.Mutex[joinResult[T]]]
	waker  ksync.Arc[ksync.Mutex[Waker]]
	closed bool
}

// joinTask runs the spawned future and publishes its output.
type joinTask[T any] struct {
	fut    Future[T]
	result ksync.Arc[ksync.Mutex[joinResult[T]]]
	waker  ksync.Arc[ksync.Mutex[Waker]]
	done   bool
}

// Spawn queues f on e and returns a handle to its output.
func Spawn[T any](e *Executor, f Future[T]) *JoinHandle[T] {
	result := ksync.NewArc(ksync.NewSpinlock(e.bank, ksync.LockJoinResultCount), ksync.Mutex[joinResult[T]]{})
	result.Get().Init(ksync.NewSpinlock(e.bank, ksync.LockJoinResult), joinResult[T]{})
	waker := ksync.NewArc(ksync.NewSpinlock(e.bank, ksync.LockJoinWakerCount), ksync.Mutex[Waker]{})
	waker.Get().Init(ksync.NewSpinlock(e.bank, ksync.LockJoinWaker), Waker{})

	e.spawn(&joinTask[T]{
		fut:    f,
		result: result.Clone(),
		waker:  waker.Clone(),
	})
	return &JoinHandle[T]{result: result, waker: waker}
}

func (j *joinTask[T]) Poll(cx *Context) (Unit, bool) {
	// A task can be queued twice by racing wakes; the second poll after
	// completion must not touch the finished future.
	if j.done {
		return Unit{}, true
	}
	v, ok := j.fut.Poll(cx)
	if !ok {
		return Unit{}, false
	}
	j.done = true
	j.fut = nil

	rg := j.result.Get().Lock()
	*rg.Get() = joinResult[T]{v: v, ready: true}
	wg := j.waker.Get().Lock()
	w := *wg.Get()
	*wg.Get() = Waker{}
	wg.Unlock()
	rg.Unlock()

	w.Wake()
	j.result.Release()
	j.waker.Release()
	return Unit{}, true
}

// Poll returns the task output once it is available. Until then it records
// the caller's waker, replacing any earlier one.
func (h *JoinHandle[T]) Poll(cx *Context) (T, bool) {
	var zero T
	if h.closed {
		panic(ErrJoinedTwice)
	}

	// The result lock is held across the waker store so a completion cannot
	// slip between the check and the store.
	rg := h.result.Get().Lock()
	r := rg.Get()
	if r.ready {
		v := r.v
		*r = joinResult[T]{}
		rg.Unlock()
		h.close()
		return v, true
	}

	wg := h.waker.Get().Lock()
	slot := wg.Get()
	var prev Waker
	if !slot.WillWake(*cx.Waker()) {
		prev = *slot
		*slot = cx.Waker().Clone()
	}
	wg.Unlock()
	rg.Unlock()

	prev.Drop()
	return zero, false
}

// Release abandons the handle. The task keeps running; its output is
// discarded.
func (h *JoinHandle[T]) Release() {
	if h.closed {
		return
	}
	wg := h.waker.Get().Lock()
	w := *wg.Get()
	*wg.Get() = Waker{}
	wg.Unlock()
	w.Drop()
	h.close()
}

func (h *JoinHandle[T]) close() {
	h.closed = true
	h.result.Release()
	h.waker.Release()
}
