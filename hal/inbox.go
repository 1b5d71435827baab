package hal

import "sync/atomic"

const inboxSlots = 16

// Inbox is a fixed-size single-producer, single-consumer word queue.
//
// The SIO interrupt handler drains the RX FIFO into it so the hardware FIFO
// never stalls core 1; tasks read it after the reactor wakes them.
type Inbox struct {
	_       [0]func()
	head    atomic.Uint32
	tail    atomic.Uint32
	dropped atomic.Uint32
	slots   [inboxSlots]uint32
}

// Push enqueues a word, returning false (and counting a drop) when full.
func (in *Inbox) Push(v uint32) bool {
	head := in.head.Load()
	tail := in.tail.Load()
	if head-tail >= inboxSlots {
		in.dropped.Add(1)
		return false
	}
	in.slots[head%inboxSlots] = v
	in.head.Store(head + 1)
	return true
}

// Pop dequeues one word, returning false if empty.
func (in *Inbox) Pop() (uint32, bool) {
	tail := in.tail.Load()
	head := in.head.Load()
	if tail == head {
		return 0, false
	}
	v := in.slots[tail%inboxSlots]
	in.tail.Store(tail + 1)
	return v, true
}

// Len returns the number of queued words.
func (in *Inbox) Len() int {
	return int(in.head.Load() - in.tail.Load())
}

// Dropped returns how many words were lost to a full inbox.
func (in *Inbox) Dropped() uint32 {
	return in.dropped.Load()
}
