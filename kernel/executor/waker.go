package executor

import "unsafe"

// WakerVTable is the dispatch table behind a Waker. Each function receives
// the waker's data pointer.
//
// Clone returns the data pointer of a new waker that owns its own
// reference. Wake consumes the reference it is given. WakeByRef leaves it in
// place. Drop releases it without waking.
type WakerVTable struct {
	Clone     func(data unsafe.Pointer) unsafe.Pointer
	Wake      func(data unsafe.Pointer)
	WakeByRef func(data unsafe.Pointer)
	Drop      func(data unsafe.Pointer)
}

// Waker reschedules a suspended task. The zero Waker is empty: waking or
// dropping it does nothing.
//
// A Waker owns one reference to whatever its data points at. Plain
// assignment copies the pointer without taking a reference, so a Waker that
// is stored must come from Clone, and every Waker must end in exactly one
// Wake or Drop.
type Waker struct {
	data   unsafe.Pointer
	vtable *WakerVTable
}

// NewWaker builds a waker from a data pointer that already carries one
// reference.
func NewWaker(data unsafe.Pointer, vtable *WakerVTable) Waker {
	return Waker{data: data, vtable: vtable}
}

// Valid reports whether w can wake anything.
func (w Waker) Valid() bool { return w.vtable != nil }

// Clone returns a second waker for the same task.
func (w Waker) Clone() Waker {
	if w.vtable == nil {
		return Waker{}
	}
	return Waker{data: w.vtable.Clone(w.data), vtable: w.vtable}
}

// Wake schedules the task and gives up w's reference. w is empty afterwards.
func (w *Waker) Wake() {
	if w.vtable == nil {
		return
	}
	data, vt := w.data, w.vtable
	*w = Waker{}
	vt.Wake(data)
}

// WakeByRef schedules the task and keeps w usable.
func (w Waker) WakeByRef() {
	if w.vtable == nil {
		return
	}
	w.vtable.WakeByRef(w.data)
}

// Drop gives up w's reference without waking. w is empty afterwards.
func (w *Waker) Drop() {
	if w.vtable == nil {
		return
	}
	data, vt := w.data, w.vtable
	*w = Waker{}
	vt.Drop(data)
}

// WillWake reports whether w and o wake the same task.
func (w Waker) WillWake(o Waker) bool {
	return w.data == o.data && w.vtable == o.vtable
}

var noopVTable = WakerVTable{
	Clone:     func(unsafe.Pointer) unsafe.Pointer { return nil },
	Wake:      func(unsafe.Pointer) {},
	WakeByRef: func(unsafe.Pointer) {},
	Drop:      func(unsafe.Pointer) {},
}

// NoopWaker returns a waker that does nothing. It is for polling futures
// from outside the executor, where the caller polls again on its own.
func NoopWaker() Waker {
	return Waker{vtable: &noopVTable}
}
