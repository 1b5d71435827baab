//go:build !baremetal

package ksync

import "runtime"

// IRQState is the interrupt mask saved while a spinlock is held. The host
// simulation has nothing to mask.
type IRQState struct{}

func maskIRQ() IRQState { return IRQState{} }

func restoreIRQ(IRQState) {}

func spin() { runtime.Gosched() }
