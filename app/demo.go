package app

import (
	"strconv"

	"ember/hal"
	"ember/kernel/executor"
	"ember/kernel/jumpstart"
	"ember/kernel/reactor"
)

// lineTicker reports each firing of an interrupt line once.
type lineTicker struct {
	r    *reactor.Reactor
	line int
	wait executor.Future[executor.Unit]
}

// poll reports whether the line fired since the last true result. On false
// the task's waker is registered for the next firing.
func (lt *lineTicker) poll(cx *executor.Context) bool {
	if lt.wait == nil {
		lt.wait = lt.r.Wait(lt.line)
	}
	if _, ok := lt.wait.Poll(cx); !ok {
		return false
	}
	lt.wait = nil
	return true
}

// heartbeat toggles the LED every BlinkEvery timer ticks.
type heartbeat struct {
	s    *System
	tick lineTicker
	n    int
}

func (t *heartbeat) Poll(cx *executor.Context) (executor.Unit, bool) {
	if t.tick.r == nil {
		t.tick = lineTicker{r: t.s.react, line: hal.IRQTimer0}
	}
	for t.tick.poll(cx) {
		t.s.status.Beats++
		t.n++
		if t.n < t.s.cfg.BlinkEvery {
			continue
		}
		t.n = 0
		st := &t.s.status
		st.LED = !st.LED
		if led := t.s.h.LED(); led != nil {
			if st.LED {
				led.High()
			} else {
				led.Low()
			}
		}
	}
	return executor.Unit{}, false
}

// button counts presses of the user button.
type button struct {
	s    *System
	tick lineTicker
}

func (t *button) Poll(cx *executor.Context) (executor.Unit, bool) {
	if t.tick.r == nil {
		t.tick = lineTicker{r: t.s.react, line: hal.IRQIOBank0}
	}
	for t.tick.poll(cx) {
		t.s.status.Presses++
		t.s.log.WriteLineString("app: button " + strconv.FormatUint(uint64(t.s.status.Presses), 10))
	}
	return executor.Unit{}, false
}

// deepThought takes one timer tick to produce its answer.
type deepThought struct {
	tick lineTicker
}

func (t *deepThought) Poll(cx *executor.Context) (int, bool) {
	if !t.tick.poll(cx) {
		return 0, false
	}
	return 42, true
}

// answer spawns deepThought and joins it.
type answer struct {
	s *System
	h *executor.JoinHandle[int]
}

func (t *answer) Poll(cx *executor.Context) (executor.Unit, bool) {
	if t.h == nil {
		dt := &deepThought{tick: lineTicker{r: t.s.react, line: hal.IRQTimer0}}
		t.h = executor.Spawn[int](t.s.exec, dt)
	}
	v, ok := t.h.Poll(cx)
	if !ok {
		return executor.Unit{}, false
	}
	t.s.status.Answer = v
	t.s.log.WriteLineString("app: answer " + strconv.Itoa(v))
	return executor.Unit{}, true
}

// inbox logs the words core 1 sends over the FIFO.
type inbox struct {
	s    *System
	tick lineTicker
}

func (t *inbox) Poll(cx *executor.Context) (executor.Unit, bool) {
	if t.tick.r == nil {
		t.tick = lineTicker{r: t.s.react, line: hal.IRQSIOProc0}
	}
	for {
		// Arm before draining: a word pushed after the drain fires the line
		// and wakes this task again.
		fired := t.tick.poll(cx)
		t.drain()
		if !fired {
			return executor.Unit{}, false
		}
	}
}

func (t *inbox) drain() {
	in := t.s.h.Inbox()
	for {
		w, ok := in.Pop()
		if !ok {
			return
		}
		st := &t.s.status
		st.Core1Word = w
		st.Core1Seen = true
		t.s.log.WriteLineString("app: core 1 says 0x" + strconv.FormatUint(uint64(w), 16))
	}
}

// core1Main is the core 1 program: publish the sentinel through a shared
// cell and the FIFO, then return and park.
func (s *System) core1Main() jumpstart.Func {
	sentinel := s.cfg.Sentinel
	return func(c hal.Core) {
		g := s.core1Word.Lock()
		*g.Get() = sentinel
		g.Unlock()

		fifo := c.FIFO()
		for !fifo.Ready() {
		}
		fifo.Write(sentinel)
		c.SignalEvent()
	}
}
