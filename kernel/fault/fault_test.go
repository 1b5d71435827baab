package fault

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHaltInvokesHandlerOnce(t *testing.T) {
	reset()
	t.Cleanup(reset)

	got := make(chan Info, 2)
	SetHandler(func(info Info) { got <- info })

	errA := errors.New("a")
	go Halt(errA)
	go Halt(errors.New("b"))

	select {
	case info := <-got:
		if info.Err == nil {
			t.Fatal("Info.Err = nil")
		}
		if len(info.Stack) == 0 {
			t.Fatal("Info.Stack is empty on host")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	select {
	case info := <-got:
		t.Fatalf("handler called twice, second with %v", info.Err)
	case <-time.After(50 * time.Millisecond):
	}
	if !InHaltMode() {
		t.Fatal("InHaltMode() = false, want true")
	}
}

func TestRecoverHaltsWithPanicValue(t *testing.T) {
	reset()
	t.Cleanup(reset)

	got := make(chan Info, 1)
	SetHandler(func(info Info) { got <- info })

	sentinel := errors.New("task blew up")
	go func() {
		defer Recover()
		panic(sentinel)
	}()
	go func() {
		defer Recover()
		panic("not an error")
	}()

	select {
	case info := <-got:
		if !errors.Is(info.Err, sentinel) && !strings.Contains(info.Err.Error(), "not an error") {
			t.Fatalf("Info.Err = %v", info.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
}

func TestRecoverWithoutPanicReturns(t *testing.T) {
	reset()
	t.Cleanup(reset)

	func() {
		defer Recover()
	}()
	if InHaltMode() {
		t.Fatal("InHaltMode() = true without a panic")
	}
}

func TestReportDoesNotPark(t *testing.T) {
	reset()
	t.Cleanup(reset)

	calls := 0
	SetHandler(func(Info) { calls++ })
	Report(errors.New("first"))
	Report(errors.New("second"))
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
	if !InHaltMode() {
		t.Fatal("InHaltMode() = false, want true")
	}
}

func TestFromPanic(t *testing.T) {
	sentinel := errors.New("x")
	if got := FromPanic(sentinel); !errors.Is(got, sentinel) {
		t.Fatalf("FromPanic(error) = %v, want %v", got, sentinel)
	}
	if got := FromPanic(42).Error(); got != "panic: 42" {
		t.Fatalf("FromPanic(42) = %q, want %q", got, "panic: 42")
	}
}
