package app

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"ember/hal"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	screenFont = &proggy.TinySZ8pt7b

	colorText  = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	colorTitle = color.RGBA{R: 0x60, G: 0xD0, B: 0xFF, A: 0xFF}
	colorHalt  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

const (
	lineHeight = 12
	glyphWidth = 6
)

// fbDisplay draws tinyfont glyphs into an RGB565 framebuffer.
type fbDisplay struct {
	fb hal.Framebuffer
}

var _ drivers.Displayer = fbDisplay{}

func (d fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	buf := d.fb.Buffer()
	if buf == nil {
		return
	}

	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}

	pixel := uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
	off := iy*d.fb.StrideBytes() + ix*2
	if off < 0 || off+1 >= len(buf) {
		return
	}
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

// framebuffer returns h's framebuffer, or nil on boards without a screen.
func framebuffer(h hal.HAL) hal.Framebuffer {
	disp := h.Display()
	if disp == nil {
		return nil
	}
	return disp.Framebuffer()
}

// drawLines writes lines top to bottom, wrapping long ones, and stops at the
// bottom edge. It returns the number of screen rows used.
func drawLines(d drivers.Displayer, y int16, lines []string, c color.RGBA) int16 {
	w, h := d.Size()
	cols := w / glyphWidth
	if cols <= 0 {
		cols = 1
	}
	rows := int16(0)
	for _, line := range lines {
		for {
			if y+lineHeight > h {
				return rows
			}
			chunk, rest := takeRunes(line, cols)
			tinyfont.WriteLine(d, screenFont, 2, y+lineHeight-2, chunk, c)
			y += lineHeight
			rows++
			line = strings.TrimLeft(rest, " ")
			if line == "" {
				break
			}
		}
	}
	return rows
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if int64(len(s)) <= int64(n) {
		return s, ""
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			break
		}
		i += size
		count++
	}
	if i >= len(s) {
		return s, ""
	}
	return s[:i], s[i:]
}
