//go:build tinygo && baremetal

package ksync

import (
	"device/arm"
	"runtime/interrupt"
)

// IRQState is the interrupt mask saved while a spinlock is held.
type IRQState interrupt.State

func maskIRQ() IRQState { return IRQState(interrupt.Disable()) }

func restoreIRQ(st IRQState) { interrupt.Restore(interrupt.State(st)) }

func spin() { arm.Asm("nop") }
