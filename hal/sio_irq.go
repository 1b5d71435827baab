package hal

// fifoInterrupts wraps an interrupt controller so that the SIO FIFO line
// drains core 1's words into an Inbox before the dispatcher runs. The SIO
// interrupt stays asserted while the RX FIFO holds data, so the drain is what
// acknowledges it.
type fifoInterrupts struct {
	Interrupts
	fifo  FIFO
	inbox *Inbox
}

func (d fifoInterrupts) Enable(line int, fn func(irq int16)) error {
	if line != IRQSIOProc0 {
		return d.Interrupts.Enable(line, fn)
	}
	return d.Interrupts.Enable(line, func(irq int16) {
		for d.fifo.Valid() {
			d.inbox.Push(d.fifo.Read())
		}
		fn(irq)
	})
}
