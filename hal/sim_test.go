//go:build !baremetal

package hal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSimSpinlocks(t *testing.T) {
	s := NewSimSpinlocks()
	if !s.TryLock(31) {
		t.Fatal("TryLock(31) = false on a free lock, want true")
	}
	if s.TryLock(31) {
		t.Fatal("TryLock(31) = true on a held lock, want false")
	}
	if !s.TryLock(30) {
		t.Fatal("TryLock(30) = false, locks are not independent")
	}
	s.Unlock(31)
	if !s.TryLock(31) {
		t.Fatal("TryLock(31) = false after Unlock, want true")
	}
}

func TestInboxFull(t *testing.T) {
	var in Inbox
	for i := 0; i < inboxSlots; i++ {
		if !in.Push(uint32(i)) {
			t.Fatalf("Push() = false at slot %d, want true", i)
		}
	}
	if in.Push(99) {
		t.Fatal("Push() = true when full, want false")
	}
	if got := in.Dropped(); got != 1 {
		t.Fatalf("Dropped() = %d, want 1", got)
	}
	for i := 0; i < inboxSlots; i++ {
		v, ok := in.Pop()
		if !ok || v != uint32(i) {
			t.Fatalf("Pop() = %d, %v, want %d, true", v, ok, i)
		}
	}
	if _, ok := in.Pop(); ok {
		t.Fatal("Pop() ok = true on empty inbox")
	}
}

func TestInboxProducerConsumer(t *testing.T) {
	const total = 10_000
	var in Inbox

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := uint32(0); i < total; i++ {
			for !in.Push(i) {
			}
		}
	}()

	for want := uint32(0); want < total; {
		v, ok := in.Pop()
		if !ok {
			continue
		}
		if v != want {
			t.Fatalf("Pop() = %d, want %d", v, want)
		}
		want++
	}
	<-done
}

// handshake plays core 0's side of the boot protocol without retries and
// returns the echoes.
func handshake(t *testing.T, c Core, words []uint32) []uint32 {
	t.Helper()
	fifo := c.FIFO()
	var echoes []uint32
	for _, w := range words {
		fifo.Write(w)
		c.SignalEvent()
		deadline := time.Now().Add(2 * time.Second)
		for !fifo.Valid() {
			if time.Now().After(deadline) {
				t.Fatalf("no echo for %#x", w)
			}
			c.WaitEvent()
		}
		echoes = append(echoes, fifo.Read())
	}
	return echoes
}

func TestBootROMJumpsToEntry(t *testing.T) {
	b := NewSimBoard(SimOptions{VectorTable: 0x10000400})

	type start struct {
		sp   uint32
		vtor uint32
	}
	started := make(chan start, 1)
	pc := RegisterEntry(func(sp uint32, c Core) {
		started <- start{sp: sp, vtor: c.VectorTable()}
	})

	b.PSM().ResetCore1()
	words := []uint32{0, 0, 1, 0x10000400, 0x20041000, pc}
	echoes := handshake(t, b.Core0(), words)
	for i := range words {
		if echoes[i] != words[i] {
			t.Fatalf("echo %d = %#x, want %#x", i, echoes[i], words[i])
		}
	}

	select {
	case s := <-started:
		if s.sp != 0x20041000 || s.vtor != 0x10000400 {
			t.Fatalf("entry started with sp=%#x vtor=%#x", s.sp, s.vtor)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("entry not started")
	}
	if got := b.Boots(); got != 1 {
		t.Fatalf("Boots() = %d, want 1", got)
	}
}

func TestBootROMRestartsOnBadWord(t *testing.T) {
	b := NewSimBoard(SimOptions{})
	var calls atomic.Int32
	pc := RegisterEntry(func(uint32, Core) { calls.Add(1) })

	b.PSM().ResetCore1()
	// A 2 where the 1 marker belongs restarts the sequence; the vtor, sp and
	// pc that follow are not a valid launch.
	handshake(t, b.Core0(), []uint32{0, 0, 2, DefaultVectorTable, 0x20041000, pc})
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatal("entry started after a broken sequence")
	}

	handshake(t, b.Core0(), []uint32{0, 0, 1, DefaultVectorTable, 0x20041000, pc})
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("entry not started after a clean sequence")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBootROMCorruptsEchoes(t *testing.T) {
	b := NewSimBoard(SimOptions{CorruptEchoes: 1})
	b.PSM().ResetCore1()
	echoes := handshake(t, b.Core0(), []uint32{0, 0})
	if echoes[0] != ^uint32(0) {
		t.Fatalf("first echo = %#x, want corrupted", echoes[0])
	}
	if echoes[1] != 0 {
		t.Fatalf("second echo = %#x, want 0", echoes[1])
	}
}

func TestBootROMFaultsOnUnknownEntry(t *testing.T) {
	b := NewSimBoard(SimOptions{})
	b.PSM().ResetCore1()
	handshake(t, b.Core0(), []uint32{0, 0, 1, DefaultVectorTable, 0x20041000, 0xDEAD0001})

	deadline := time.Now().Add(2 * time.Second)
	for b.Faults() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Faults() = 0 after a jump to an unmapped address")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestFIFOInterruptDrainsIntoInbox(t *testing.T) {
	h := NewHost(SimOptions{}, &nopWriter{})

	var mu sync.Mutex
	var lines []int16
	if err := h.Interrupts().Enable(IRQSIOProc0, func(irq int16) {
		mu.Lock()
		lines = append(lines, irq)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	h.Board().Core1().FIFO().Write(0xAB)
	if v, ok := h.Inbox().Pop(); !ok || v != 0xAB {
		t.Fatalf("Inbox().Pop() = %#x, %v, want 0xab, true", v, ok)
	}
	if h.Board().Core0().FIFO().Valid() {
		t.Fatal("RX FIFO not drained")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 1 || lines[0] != IRQSIOProc0 {
		t.Fatalf("handler lines = %v, want [%d]", lines, IRQSIOProc0)
	}
}

func TestFIFOInterruptFiresOnEnableWhenPending(t *testing.T) {
	h := NewHost(SimOptions{}, &nopWriter{})
	h.Board().Core1().FIFO().Write(7)

	fired := 0
	if err := h.Interrupts().Enable(IRQSIOProc0, func(int16) { fired++ }); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if fired != 1 {
		t.Fatalf("handler calls = %d, want 1", fired)
	}
	if v, ok := h.Inbox().Pop(); !ok || v != 7 {
		t.Fatalf("Inbox().Pop() = %d, %v, want 7, true", v, ok)
	}
}

func TestSimInterruptsRejectBadLine(t *testing.T) {
	var irq SimInterrupts
	if err := irq.Enable(NumIRQ, func(int16) {}); !errors.Is(err, ErrInvalidLine) {
		t.Fatalf("Enable(%d) error = %v, want ErrInvalidLine", NumIRQ, err)
	}
	if irq.Raise(3) {
		t.Fatal("Raise() = true on a line without a handler")
	}
}

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	h := NewHost(SimOptions{}, &nopWriter{})
	var timer atomic.Int32
	if err := h.Interrupts().Enable(IRQTimer0, func(int16) { timer.Add(1) }); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	steps := 0
	err := RunHeadless(context.Background(), h, func() error {
		steps++
		return nil
	}, HeadlessConfig{Hz: 1000, Ticks: 20, Lines: []PeriodicLine{{Line: IRQTimer0, Every: 2}}})
	if err != nil {
		t.Fatalf("RunHeadless() error = %v", err)
	}
	if got := timer.Load(); got != 10 {
		t.Fatalf("timer line raised %d times, want 10", got)
	}
	if steps == 0 {
		t.Fatal("step never called")
	}
}

func TestRunHeadlessPropagatesStepError(t *testing.T) {
	h := NewHost(SimOptions{}, &nopWriter{})
	boom := errors.New("boom")
	err := RunHeadless(context.Background(), h, func() error { return boom }, HeadlessConfig{Hz: 1000})
	if !errors.Is(err, boom) {
		t.Fatalf("RunHeadless() error = %v, want %v", err, boom)
	}
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }
