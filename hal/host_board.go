//go:build !baremetal

package hal

import (
	"sync"
	"sync/atomic"
)

// DefaultVectorTable is VTOR after the RP2040 boot stage 2 hands over to an
// image linked at the start of flash.
const DefaultVectorTable = 0x10000100

// SimOptions tunes the simulated board.
type SimOptions struct {
	VectorTable uint32
	// CorruptEchoes makes the core 1 boot ROM answer the first N handshake
	// words with a wrong echo.
	CorruptEchoes int
}

// SimBoard simulates the parts of the RP2040 the runtime touches: the SIO
// spinlocks and FIFOs, both cores' MPUs, the PSM and the core 1 boot ROM.
type SimBoard struct {
	locks Spinlocks
	irq   *SimInterrupts
	core0 *simCore
	core1 *simCore

	corrupt atomic.Int32
	boots   atomic.Uint32
	faults  atomic.Uint32
	gen     atomic.Uint32
}

// NewSimBoard returns a simulated board with core 1 held in its boot ROM.
func NewSimBoard(opts SimOptions) *SimBoard {
	if opts.VectorTable == 0 {
		opts.VectorTable = DefaultVectorTable
	}
	toCore1 := &simFIFO{}
	toCore0 := &simFIFO{}
	ev0 := newSimEvent()
	ev1 := newSimEvent()

	b := &SimBoard{
		locks: NewSimSpinlocks(),
		irq:   &SimInterrupts{},
	}
	b.core0 = &simCore{rx: toCore0, tx: toCore1, event: ev0, peer: ev1, mpu: &simMPU{}}
	b.core1 = &simCore{rx: toCore1, tx: toCore0, event: ev1, peer: ev0, mpu: &simMPU{}}
	b.core0.vtor.Store(opts.VectorTable)
	b.core1.onWrite = func() {
		if b.irq.enabled(IRQSIOProc0) {
			b.irq.Raise(IRQSIOProc0)
		}
	}
	b.irq.setLevel(IRQSIOProc0, b.core0.Valid)
	b.corrupt.Store(int32(opts.CorruptEchoes))
	return b
}

func (b *SimBoard) Spinlocks() Spinlocks       { return b.locks }
func (b *SimBoard) Core0() Core                { return b.core0 }
func (b *SimBoard) Core1() Core                { return b.core1 }
func (b *SimBoard) Interrupts() *SimInterrupts { return b.irq }
func (b *SimBoard) PSM() PSM                   { return simPSM{b: b} }

// Core1MPU returns the region core 1 programmed into its MPU.
func (b *SimBoard) Core1MPU() (ctrl, rbar, rasr uint32) {
	rbar, rasr = b.core1.mpu.Region()
	return b.core1.mpu.Ctrl(), rbar, rasr
}

// Boots returns how many times core 1 left its boot ROM for a launched entry.
func (b *SimBoard) Boots() uint32 { return b.boots.Load() }

// Faults returns how many times core 1 jumped to an unmapped address.
func (b *SimBoard) Faults() uint32 { return b.faults.Load() }

type simPSM struct {
	b *SimBoard
}

// ResetCore1 retires any boot ROM still waiting for commands and starts a
// fresh one. Code already launched on core 1 keeps running: the simulation
// cannot stop a goroutine, and the runtime never resets a running core 1.
func (p simPSM) ResetCore1() {
	gen := p.b.gen.Add(1)
	go p.b.bootROM(gen)
}

// bootROM mirrors the RP2040 core 1 wait loop: echo every word, advance
// through {0, 0, 1, vtor, sp, pc} and restart on any unexpected word.
func (b *SimBoard) bootROM(gen uint32) {
	c := b.core1
	var vtor, sp, pc uint32
	seq := 0
	for {
		for !c.Valid() {
			if b.gen.Load() != gen {
				return
			}
			c.WaitEvent()
		}
		cmd := c.Read()

		echo := cmd
		if b.corrupt.Load() > 0 {
			b.corrupt.Add(-1)
			echo = ^cmd
		}
		for !c.Ready() {
			c.WaitEvent()
		}
		c.Write(echo)
		c.SignalEvent()

		if echo != cmd {
			seq = 0
			continue
		}
		if cmd == 0 && seq >= 2 {
			// Core 0 restarted the sequence; this zero is its first marker.
			seq = 1
			continue
		}

		ok := true
		switch seq {
		case 0, 1:
			ok = cmd == 0
		case 2:
			ok = cmd == 1
		case 3:
			vtor = cmd
		case 4:
			sp = cmd
		case 5:
			pc = cmd
		}
		if !ok {
			seq = 0
			continue
		}
		seq++
		if seq < 6 {
			continue
		}

		c.vtor.Store(vtor)
		fn := lookupEntry(pc)
		if fn == nil {
			b.faults.Add(1)
			return
		}
		b.boots.Add(1)
		fn(sp, c)
		return
	}
}

var (
	entryMu   sync.Mutex
	entries   = map[uint32]func(sp uint32, c Core){}
	nextEntry uint32
)

// RegisterEntry maps fn to a pseudo code address that the simulated boot ROM
// can jump to. The returned address has the Thumb bit set.
func RegisterEntry(fn func(sp uint32, c Core)) uint32 {
	entryMu.Lock()
	defer entryMu.Unlock()
	addr := 0x10001000 + nextEntry*0x100 | 1
	nextEntry++
	entries[addr] = fn
	return addr
}

func lookupEntry(pc uint32) func(sp uint32, c Core) {
	entryMu.Lock()
	defer entryMu.Unlock()
	return entries[pc]
}
