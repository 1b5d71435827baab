//go:build tinygo && baremetal

package jumpstart

import (
	"device/arm"
	"unsafe"

	"ember/hal"
)

func (s *Stack) base() uint32 {
	return uint32(uintptr(unsafe.Pointer(&s.mem[0])))
}

// core1Entry is where the boot ROM jumps with SP at the handoff words. It
// reads them from the boot stack rather than from argument registers.
//
// Core 1 has no heap of its own: the entry must not allocate.
func core1Entry() {
	p, bottom := bootStack.handoff()
	startCore1(hal.LocalCore(), (*handoff)(unsafe.Pointer(p)), bottom)
	for {
		arm.Asm("wfe")
	}
}

// trampolineAddr returns the Thumb address of core1Entry. A TinyGo func value
// is a {context, function pointer} pair.
func trampolineAddr() uint32 {
	fn := core1Entry
	pair := (*[2]uintptr)(unsafe.Pointer(&fn))
	return uint32(pair[1]) | 1
}
