package jumpstart

// StackWords is the size of the core 1 boot stack in 32-bit words.
const StackWords = 4096

// Stack is core 1's stack. The trampoline starts with the two words at its
// top: the handoff pointer and the stack's bottom address.
type Stack struct {
	mem [StackWords]uintptr
}

var bootStack Stack

// push writes the handoff words and returns the initial stack pointer.
func (s *Stack) push(handoff uintptr) uint32 {
	top := len(s.mem)
	s.mem[top-1] = uintptr(s.addr(0))
	s.mem[top-2] = handoff
	return s.addr(top - 2)
}

// handoff returns the words written by push.
func (s *Stack) handoff() (h uintptr, bottom uint32) {
	top := len(s.mem)
	return s.mem[top-2], uint32(s.mem[top-1])
}

// addr returns the core-visible address of word i.
func (s *Stack) addr(i int) uint32 {
	return s.base() + uint32(i)*4
}
