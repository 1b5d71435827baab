package app

import (
	"strconv"

	"ember/hal"
	"ember/internal/buildinfo"
	"ember/kernel/executor"
)

// panel redraws the status screen every RedrawEvery timer ticks.
type panel struct {
	s    *System
	tick lineTicker
	n    int
}

func (t *panel) Poll(cx *executor.Context) (executor.Unit, bool) {
	fb := framebuffer(t.s.h)
	if fb == nil {
		return executor.Unit{}, true
	}
	if t.tick.r == nil {
		t.tick = lineTicker{r: t.s.react, line: hal.IRQTimer0}
		t.redraw(fb)
	}
	for t.tick.poll(cx) {
		t.n++
		if t.n >= t.s.cfg.RedrawEvery {
			t.n = 0
			t.redraw(fb)
		}
	}
	return executor.Unit{}, false
}

func (t *panel) redraw(fb hal.Framebuffer) {
	t.s.status.Redraws++
	st := t.s.Status()

	fb.ClearRGB(0x10, 0x10, 0x18)
	d := fbDisplay{fb: fb}
	y := int16(0)
	y += drawLines(d, y, []string{"ember " + buildinfo.Short()}, colorTitle) * lineHeight

	led := "off"
	if st.LED {
		led = "on"
	}
	core1 := "-"
	if st.Core1Seen {
		core1 = "0x" + strconv.FormatUint(uint64(st.Core1Word), 16)
	}
	answer := "-"
	if st.Answer != 0 {
		answer = strconv.Itoa(st.Answer)
	}
	drawLines(d, y+lineHeight/2, []string{
		"beats:   " + strconv.FormatUint(uint64(st.Beats), 10) + "  led " + led,
		"answer:  " + answer,
		"button:  " + strconv.FormatUint(uint64(st.Presses), 10),
		"core 1:  " + core1 + "  retries " + strconv.Itoa(st.Core1Retries),
		"tasks:   " + strconv.Itoa(st.Exec.Live) + " live, " + strconv.Itoa(st.Exec.Queued) + " queued",
		"spawned: " + strconv.FormatUint(uint64(st.Exec.Spawned), 10),
		"polls:   " + strconv.FormatUint(uint64(st.Exec.Polls), 10),
	}, colorText)
	_ = d.Display()
}
