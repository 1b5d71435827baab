package executor

// Unit is the output of computations that produce nothing.
type Unit struct{}

// Future is a resumable computation. Poll runs it until it either finishes
// (returning its output and true) or cannot make progress (returning false).
//
// A Future that returns false must have arranged for cx.Waker() (or a clone
// of it) to be woken once progress is possible; otherwise the task that owns
// it is never polled again.
type Future[T any] interface {
	Poll(cx *Context) (T, bool)
}

// FutureFunc adapts a poll function to the Future interface.
type FutureFunc[T any] func(cx *Context) (T, bool)

func (f FutureFunc[T]) Poll(cx *Context) (T, bool) { return f(cx) }

// Ready returns a future that completes with v on its first poll.
func Ready[T any](v T) Future[T] {
	return FutureFunc[T](func(*Context) (T, bool) { return v, true })
}

// Context is handed to every poll. It exposes the waker of the task being
// polled.
type Context struct {
	waker *Waker
}

// NewContext returns a Context lending w to the polled future.
func NewContext(w *Waker) *Context {
	return &Context{waker: w}
}

// Waker returns the current task's waker. Futures that keep it beyond the
// poll must Clone it.
func (cx *Context) Waker() *Waker { return cx.waker }
