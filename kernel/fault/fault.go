// Package fault is the runtime's unrecoverable-error path.
//
// Halt stops the calling core in a state that is visible from outside: the
// installed handler reports the error (UART, screen) and the core then parks
// forever. Nothing after a Halt is expected to run.
package fault

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrHalted is returned by host-side runners once the system has halted.
var ErrHalted = errors.New("fault: system halted")

// Info describes the fault that stopped the core.
type Info struct {
	Err   error
	Stack []byte
}

var (
	halted   atomic.Bool
	haltOnce sync.Once

	handler atomic.Value // func(Info)
)

// InHaltMode reports whether Halt has been called.
func InHaltMode() bool {
	return halted.Load()
}

// SetHandler installs the process-wide halt handler.
//
// The handler is invoked at most once (on the first fault). It must not
// panic and should not block.
func SetHandler(fn func(Info)) {
	handler.Store(fn)
}

// Halt reports err through the handler and parks the calling core. It never
// returns.
func Halt(err error) {
	Report(err)
	park()
}

// Recover turns a panic in the calling goroutine into a Halt. It must be
// deferred directly.
func Recover() {
	if r := recover(); r != nil {
		Halt(FromPanic(r))
	}
}

// FromPanic converts a recovered panic value to an error.
func FromPanic(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

// Report enters halt mode and runs the handler without parking. Host
// runners use it so the simulator can exit instead of hanging.
func Report(err error) {
	haltOnce.Do(func() {
		halted.Store(true)
		info := Info{Err: err, Stack: captureStack()}
		if v := handler.Load(); v != nil {
			if fn, ok := v.(func(Info)); ok && fn != nil {
				fn(info)
			}
		}
	})
}

// reset clears the halt state. Tests only.
func reset() {
	halted.Store(false)
	haltOnce = sync.Once{}
	handler.Store(func(Info) {})
}
