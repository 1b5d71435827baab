package app

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"ember/hal"
	"ember/kernel/fault"
	"ember/kernel/jumpstart"
)

func runUntil(t *testing.T, h *hal.Host, s *System, done func(Status) bool) Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		h.Board().Interrupts().Raise(hal.IRQTimer0)
		if err := s.Step(); err != nil {
			t.Fatalf("Step() = %v", err)
		}
		st := s.Status()
		if done(st) {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached, status %+v", st)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSystemRunsDemo(t *testing.T) {
	var out bytes.Buffer
	h := hal.NewHost(hal.SimOptions{}, &out)
	s, err := New(h, Config{Core1: true, Sentinel: 0xC0FFEE, BlinkEvery: 2, RedrawEvery: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	st := runUntil(t, h, s, func(st Status) bool {
		return st.Answer == 42 && st.Core1Seen && st.Beats >= 4
	})

	if st.Core1Word != 0xC0FFEE {
		t.Fatalf("Core1Word = %#x, want 0xc0ffee", st.Core1Word)
	}
	if got := s.Core1Word(); got != 0xC0FFEE {
		t.Fatalf("published word = %#x, want 0xc0ffee", got)
	}
	if got := h.Board().Boots(); got != 1 {
		t.Fatalf("Boots() = %d, want 1", got)
	}
	if st.Redraws == 0 {
		t.Fatal("status panel never drawn")
	}

	log := out.String()
	for _, want := range []string{"app: answer 42", "app: core 1 says 0xc0ffee", "jumpstart: core 1 running"} {
		if !strings.Contains(log, want) {
			t.Fatalf("log missing %q:\n%s", want, log)
		}
	}
}

func TestSystemWithoutCore1(t *testing.T) {
	var out bytes.Buffer
	h := hal.NewHost(hal.SimOptions{}, &out)
	s, err := New(h, Config{BlinkEvery: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	st := runUntil(t, h, s, func(st Status) bool { return st.Answer == 42 && st.Beats >= 2 })
	if st.Core1Seen {
		t.Fatal("Core1Seen without a core 1 launch")
	}
	if got := h.Board().Boots(); got != 0 {
		t.Fatalf("Boots() = %d, want 0", got)
	}
	// heartbeat, button and panel stay; answer and deepThought are gone.
	if st.Exec.Live != 3 {
		t.Fatalf("Exec.Live = %d, want 3", st.Exec.Live)
	}
}

func TestNewFailsWhenCore1NeverAnswers(t *testing.T) {
	var out bytes.Buffer
	h := hal.NewHost(hal.SimOptions{CorruptEchoes: jumpstart.MaxFailures + 1}, &out)

	var halted []error
	done := make(chan error, 1)
	go func() {
		_, err := New(h, Config{Core1: true, Halt: func(err error) { halted = append(halted, err) }})
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, jumpstart.ErrCore1Unresponsive) {
			t.Fatalf("New() error = %v, want ErrCore1Unresponsive", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("New() did not return after the handshake failed")
	}
	if len(halted) != 1 {
		t.Fatalf("halt calls = %d, want 1", len(halted))
	}
	if got := h.Board().Boots(); got != 0 {
		t.Fatalf("Boots() = %d, want 0", got)
	}
}

func TestHeartbeatTogglesLED(t *testing.T) {
	h := hal.NewHost(hal.SimOptions{}, &bytes.Buffer{})
	s, err := New(h, Config{BlinkEvery: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	seen := map[bool]bool{}
	runUntil(t, h, s, func(st Status) bool {
		if st.LED != h.LEDOn() {
			t.Fatalf("Status.LED = %v, LED pin = %v", st.LED, h.LEDOn())
		}
		seen[h.LEDOn()] = true
		return seen[true] && seen[false] && st.Beats >= 3
	})
}

func TestButtonCountsPresses(t *testing.T) {
	var out bytes.Buffer
	h := hal.NewHost(hal.SimOptions{}, &out)
	s, err := New(h, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	// Let the button task arm its line.
	if err := s.Step(); err != nil {
		t.Fatalf("Step() = %v", err)
	}

	irq := h.Board().Interrupts()
	for i := 0; i < 3; i++ {
		if !irq.Raise(hal.IRQIOBank0) {
			t.Fatal("button line not enabled")
		}
		if err := s.Step(); err != nil {
			t.Fatalf("Step() = %v", err)
		}
	}
	if got := s.Status().Presses; got != 3 {
		t.Fatalf("Presses = %d, want 3", got)
	}
	if !strings.Contains(out.String(), "app: button 3") {
		t.Fatalf("log missing button line:\n%s", out.String())
	}
}

func TestDrawHaltScreen(t *testing.T) {
	h := hal.NewHost(hal.SimOptions{}, &bytes.Buffer{})
	fb := framebuffer(h)
	before := h.Frames()

	drawHaltScreen(fb, fault.Info{Err: errors.New("core 1 gone"), Stack: []byte("main.main()\n\tmain.go:1\n")})

	if h.Frames() != before+1 {
		t.Fatalf("Frames() = %d, want %d", h.Frames(), before+1)
	}
	buf := fb.Buffer()
	background := [2]byte{buf[len(buf)-2], buf[len(buf)-1]}
	lit := false
	for i := 0; i+1 < fb.StrideBytes()*lineHeight*2; i += 2 {
		if buf[i] != background[0] || buf[i+1] != background[1] {
			lit = true
			break
		}
	}
	if !lit {
		t.Fatal("no text drawn in the first two rows")
	}
}

func TestTakeRunes(t *testing.T) {
	prefix, rest := takeRunes("héllo world", 5)
	if prefix != "héllo" || rest != " world" {
		t.Fatalf("takeRunes() = %q, %q", prefix, rest)
	}
	prefix, rest = takeRunes("hi", 5)
	if prefix != "hi" || rest != "" {
		t.Fatalf("takeRunes() = %q, %q", prefix, rest)
	}
}

func TestStackLinesSkipsBlank(t *testing.T) {
	got := stackLines([]byte("a\n\n  b  \n"))
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("stackLines() = %q", got)
	}
}
