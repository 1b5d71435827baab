//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// keyLines maps window keys to the interrupt line a press raises. Space is
// the board's user button on GPIO bank 0.
var keyLines = map[ebiten.Key]int{
	ebiten.KeySpace: IRQIOBank0,
	ebiten.KeyB:     IRQIOBank0,
}

// pollKeys raises the line of every key pressed since the last frame.
func pollKeys(irq *SimInterrupts) {
	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		if line, ok := keyLines[k]; ok {
			irq.Raise(line)
		}
	}
}
