//go:build !baremetal

package jumpstart

import (
	"unsafe"

	"ember/hal"
)

// simStackBase is where the simulated boot stack sits in the simulated SRAM.
const simStackBase = 0x20040000

func (s *Stack) base() uint32 { return simStackBase }

var simTrampoline = hal.RegisterEntry(func(sp uint32, c hal.Core) {
	if sp != bootStack.addr(StackWords-2) {
		panic("jumpstart: core 1 started with a foreign stack pointer")
	}
	p, bottom := bootStack.handoff()
	startCore1(c, (*handoff)(unsafe.Pointer(p)), bottom)
})

func trampolineAddr() uint32 { return simTrampoline }
