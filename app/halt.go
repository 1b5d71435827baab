package app

import (
	"strings"

	"ember/hal"
	"ember/kernel/fault"
)

func installHaltHandler(h hal.HAL) {
	fault.SetHandler(func(info fault.Info) {
		if l := h.Logger(); l != nil {
			l.WriteLineString("halt: " + info.Err.Error())
			for _, line := range stackLines(info.Stack) {
				l.WriteLineString("halt: " + line)
			}
		}
		if fb := framebuffer(h); fb != nil {
			drawHaltScreen(fb, info)
		}
	})
}

// drawHaltScreen replaces the framebuffer contents with the fault report.
func drawHaltScreen(fb hal.Framebuffer, info fault.Info) {
	fb.ClearRGB(0x80, 0, 0)
	d := fbDisplay{fb: fb}

	lines := []string{"ember halted", info.Err.Error()}
	if st := stackLines(info.Stack); len(st) > 0 {
		lines = append(lines, "stack:")
		lines = append(lines, st...)
	} else {
		lines = append(lines, "stack: unavailable")
	}
	drawLines(d, 0, lines, colorHalt)
	_ = d.Display()
}

func stackLines(stack []byte) []string {
	if len(stack) == 0 {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
