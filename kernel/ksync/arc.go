package ksync

import "unsafe"

// Arc is one owning handle on a heap cell shared by several owners.
//
// The reference count is an integer behind its own spinlock; there are no
// atomic read-modify-write instructions on the Cortex-M0+. Handles are
// duplicated only with Clone and retired only with Release (or by moving them
// through ToRaw/ArcFromRaw). Copying an Arc value by assignment creates an
// alias that the count does not know about.
type Arc[T any] struct {
	inner *arcInner[T]
}

type arcInner[T any] struct {
	data  T
	count Mutex[int]
	drop  func(v *T)
	freed bool
}

// NewArc allocates a cell holding v with a count of one. lock guards the
// count.
func NewArc[T any](lock Spinlock, v T) Arc[T] {
	return NewArcWithDrop(lock, v, nil)
}

// NewArcWithDrop is NewArc with a hook that runs exactly once, when the last
// handle is released.
func NewArcWithDrop[T any](lock Spinlock, v T, drop func(v *T)) Arc[T] {
	in := &arcInner[T]{data: v, drop: drop}
	in.count.Init(lock, 1)
	return Arc[T]{inner: in}
}

// Valid reports whether a holds a reference.
func (a Arc[T]) Valid() bool { return a.inner != nil }

// Get returns the shared value. It panics on an empty handle or a cell whose
// count already reached zero.
func (a Arc[T]) Get() *T {
	if a.inner == nil {
		panic("ksync: Get on empty Arc")
	}
	if a.inner.freed {
		panic("ksync: Get on released Arc")
	}
	return &a.inner.data
}

// Clone increments the count and returns a new handle on the same cell.
func (a Arc[T]) Clone() Arc[T] {
	if a.inner == nil {
		panic("ksync: Clone of empty Arc")
	}
	g := a.inner.count.Lock()
	n := g.Get()
	if *n == 0 {
		g.Unlock()
		panic("ksync: Clone of released Arc")
	}
	*n++
	g.Unlock()
	return Arc[T]{inner: a.inner}
}

// Release gives up this handle. When it was the last one the drop hook runs
// and the cell is poisoned. Releasing an empty handle does nothing.
func (a *Arc[T]) Release() {
	in := a.inner
	if in == nil {
		return
	}
	a.inner = nil

	g := in.count.Lock()
	n := g.Get()
	if *n == 0 {
		g.Unlock()
		panic("ksync: Arc released more times than it was cloned")
	}
	*n--
	last := *n == 0
	g.Unlock()

	// The hook runs outside the count lock: it may release other cells that
	// share this lock index.
	if !last {
		return
	}
	if in.drop != nil {
		in.drop(&in.data)
	}
	var zero T
	in.data = zero
	in.freed = true
}

// ToRaw turns the handle into an untyped pointer without changing the count.
// The reference now lives in the pointer; it must come back through exactly
// one ArcFromRaw before it can be released.
func (a *Arc[T]) ToRaw() unsafe.Pointer {
	p := unsafe.Pointer(a.inner)
	a.inner = nil
	return p
}

// ArcFromRaw rebuilds a handle from a ToRaw pointer without changing the
// count. Calling it twice for one ToRaw produces two handles for one
// reference.
func ArcFromRaw[T any](p unsafe.Pointer) Arc[T] {
	return Arc[T]{inner: (*arcInner[T])(p)}
}

// Count returns the current number of references.
func (a Arc[T]) Count() int {
	if a.inner == nil {
		return 0
	}
	g := a.inner.count.Lock()
	defer g.Unlock()
	return *g.Get()
}

// Same reports whether a and b refer to the same cell.
func (a Arc[T]) Same(b Arc[T]) bool {
	return a.inner == b.inner
}
