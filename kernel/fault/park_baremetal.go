//go:build tinygo && baremetal

package fault

import "device/arm"

func park() {
	for {
		arm.Asm("wfi")
	}
}

// Stack traces are not available on the board.
func captureStack() []byte {
	return nil
}
