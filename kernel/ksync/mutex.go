package ksync

// Mutex owns a value that is only reachable while its spinlock is held.
//
// A Mutex must not be copied after first use.
type Mutex[T any] struct {
	_    [0]func()
	lock Spinlock
	data T
}

// NewMutex returns a Mutex guarding v with lock.
func NewMutex[T any](lock Spinlock, v T) *Mutex[T] {
	return &Mutex[T]{lock: lock, data: v}
}

// Init sets up a Mutex embedded by value in another structure.
func (m *Mutex[T]) Init(lock Spinlock, v T) {
	m.lock = lock
	m.data = v
}

// Masks reports whether holding the Mutex masks interrupts.
func (m *Mutex[T]) Masks() bool { return m.lock.Masks() }

// Lock acquires the spinlock and returns the guard that grants access to the
// value. Callers release it with Unlock, normally deferred.
func (m *Mutex[T]) Lock() Guard[T] {
	st := m.lock.Lock()
	return Guard[T]{lock: m.lock, st: st, data: &m.data, held: true}
}

// With runs fn with the value while holding the lock. The lock is released
// however fn returns, including by panic.
func (m *Mutex[T]) With(fn func(v *T)) {
	g := m.Lock()
	defer g.Unlock()
	fn(g.Get())
}

// Guard is the scoped accessor returned by Mutex.Lock.
type Guard[T any] struct {
	lock Spinlock
	st   IRQState
	data *T
	held bool
}

// Get returns the guarded value. It panics once the guard has been released.
func (g *Guard[T]) Get() *T {
	if !g.held {
		panic("ksync: guard used after unlock")
	}
	return g.data
}

// Unlock releases the lock. Only the first call has an effect.
func (g *Guard[T]) Unlock() {
	if !g.held {
		return
	}
	g.held = false
	g.data = nil
	g.lock.Unlock(g.st)
}
