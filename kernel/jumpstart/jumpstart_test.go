package jumpstart

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ember/hal"
	"ember/kernel/ksync"
)

const sentinel = 0xC0FFEE01

func launchAsync(l *Launcher, e Entry) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- l.Launch(e)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Launch did not return")
	}
	return nil
}

func TestLaunchRunsEntryOnCore1(t *testing.T) {
	board := hal.NewSimBoard(hal.SimOptions{})
	l := New(board.Core0(), board.PSM(), Config{Halt: func(err error) {
		t.Errorf("halt(%v)", err)
	}})

	var published atomic.Uint32
	waitDone(t, launchAsync(l, Func(func(c hal.Core) {
		published.Store(sentinel)
		c.FIFO().Write(sentinel)
		c.SignalEvent()
	})))

	fifo := board.Core0().FIFO()
	deadline := time.Now().Add(5 * time.Second)
	for !fifo.Valid() {
		if time.Now().After(deadline) {
			t.Fatal("no word from core 1")
		}
		time.Sleep(time.Millisecond)
	}
	if got := fifo.Read(); got != sentinel {
		t.Fatalf("FIFO word = %#x, want %#x", got, sentinel)
	}
	if got := published.Load(); got != sentinel {
		t.Fatalf("published = %#x, want %#x", got, sentinel)
	}
	if got := board.Boots(); got != 1 {
		t.Fatalf("Boots() = %d, want 1", got)
	}
	if got := l.Retries(); got != 0 {
		t.Fatalf("Retries() = %d, want 0", got)
	}

	ctrl, rbar, rasr := board.Core1MPU()
	if ctrl != 5 {
		t.Fatalf("MPU_CTRL = %d, want 5", ctrl)
	}
	wantRBAR, wantRASR := GuardRegion(simStackBase)
	if rbar != wantRBAR || rasr != wantRASR {
		t.Fatalf("MPU region = %#x/%#x, want %#x/%#x", rbar, rasr, wantRBAR, wantRASR)
	}
}

func TestLaunchRecoversWithinBudget(t *testing.T) {
	board := hal.NewSimBoard(hal.SimOptions{CorruptEchoes: MaxFailures})
	l := New(board.Core0(), board.PSM(), Config{Halt: func(err error) {
		t.Errorf("halt(%v)", err)
	}})

	ran := make(chan struct{})
	waitDone(t, launchAsync(l, Func(func(hal.Core) { close(ran) })))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("entry did not run")
	}
	if got := l.Retries(); got != MaxFailures {
		t.Fatalf("Retries() = %d, want %d", got, MaxFailures)
	}
}

type countedEntry struct {
	cell ksync.Arc[int]
	ran  atomic.Bool
}

func (e *countedEntry) Run(hal.Core) { e.ran.Store(true) }
func (e *countedEntry) Release()    { e.cell.Release() }

func TestLaunchGivesUpAfterBudget(t *testing.T) {
	board := hal.NewSimBoard(hal.SimOptions{CorruptEchoes: MaxFailures + 1})

	var halted []error
	l := New(board.Core0(), board.PSM(), Config{Halt: func(err error) {
		halted = append(halted, err)
	}})

	drops := 0
	e := &countedEntry{}
	e.cell = ksync.NewArcWithDrop(ksync.NewSpinlock(board.Spinlocks(), 0), 7, func(*int) { drops++ })

	err := waitDone(t, launchAsync(l, e))
	if !errors.Is(err, ErrCore1Unresponsive) {
		t.Fatalf("Launch() = %v, want ErrCore1Unresponsive", err)
	}
	if len(halted) != 1 || !errors.Is(halted[0], ErrCore1Unresponsive) {
		t.Fatalf("halt calls = %v, want [ErrCore1Unresponsive]", halted)
	}
	if drops != 1 {
		t.Fatalf("entry drops = %d, want 1", drops)
	}
	if got := l.Retries(); got != MaxFailures+1 {
		t.Fatalf("Retries() = %d, want %d", got, MaxFailures+1)
	}
	if e.ran.Load() {
		t.Fatal("entry ran after failed handshake")
	}
	if got := board.Boots(); got != 0 {
		t.Fatalf("Boots() = %d, want 0", got)
	}
}

func TestTrampolineRefusesConfiguredMPU(t *testing.T) {
	board := hal.NewSimBoard(hal.SimOptions{})
	board.Core1().MPU().SetCtrl(1)

	core1 := board.Core1()
	halted := make(chan error, 1)
	l := New(board.Core0(), board.PSM(), Config{Halt: func(err error) {
		halted <- err
		// Unblock the launcher, which is still waiting for the final word.
		core1.FIFO().Write(0)
		core1.SignalEvent()
	}})

	var ran atomic.Bool
	waitDone(t, launchAsync(l, Func(func(hal.Core) { ran.Store(true) })))

	select {
	case err := <-halted:
		if !errors.Is(err, ErrMPUConfigured) {
			t.Fatalf("halt(%v), want ErrMPUConfigured", err)
		}
	default:
		t.Fatal("trampoline did not halt")
	}
	if ran.Load() {
		t.Fatal("entry ran with a foreign MPU configuration")
	}
}

func TestGuardRegion(t *testing.T) {
	tests := []struct {
		bottom     uint32
		rbar, rasr uint32
	}{
		{bottom: 0x20040000, rbar: 0x20040008, rasr: 0x1000FE0F},
		{bottom: 0x20001234, rbar: 0x20001208, rasr: 0x1000FB0F},
		{bottom: 0x200010E0, rbar: 0x20001008, rasr: 0x10007F0F},
	}
	for _, tt := range tests {
		rbar, rasr := GuardRegion(tt.bottom)
		if rbar != tt.rbar || rasr != tt.rasr {
			t.Fatalf("GuardRegion(%#x) = %#x, %#x, want %#x, %#x", tt.bottom, rbar, rasr, tt.rbar, tt.rasr)
		}
	}
}
