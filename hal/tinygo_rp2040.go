//go:build tinygo && baremetal && rp2040

package hal

import (
	"device/arm"
	"device/rp"
	"fmt"
	"machine"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

// TickPeriodMicros is the period of the timer 0 alarm behind IRQTimer0.
const TickPeriodMicros = 10000

type rp2040HAL struct {
	logger *uartLogger
	led    *pinLED
	inbox  Inbox
}

// New returns a Raspberry Pi Pico (RP2040) HAL implementation.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// Build with -scheduler=none: core 1 belongs to the runtime, not to TinyGo.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return &rp2040HAL{
		logger: &uartLogger{uart: uart},
		led:    &pinLED{pin: ledPin},
	}
}

func (h *rp2040HAL) Logger() Logger       { return h.logger }
func (h *rp2040HAL) LED() LED             { return h.led }
func (h *rp2040HAL) Display() Display     { return noDisplay{} }
func (h *rp2040HAL) Spinlocks() Spinlocks { return sioSpinlocks{} }
func (h *rp2040HAL) Core() Core           { return LocalCore() }
func (h *rp2040HAL) PSM() PSM             { return rpPSM{} }
func (h *rp2040HAL) Inbox() *Inbox        { return &h.inbox }

func (h *rp2040HAL) Interrupts() Interrupts {
	return fifoInterrupts{Interrupts: nvic{}, fifo: sioFIFO{}, inbox: &h.inbox}
}

// LocalCore returns the SIO/PPB view of whichever core calls it; both blocks
// are core-local at the same addresses.
func LocalCore() Core { return rpCore{} }

type sioSpinlocks struct{}

func spinlockReg(n uint8) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Add(unsafe.Pointer(&rp.SIO.SPINLOCK0), uintptr(n)*4))
}

func (sioSpinlocks) TryLock(n uint8) bool { return spinlockReg(n).Get() != 0 }
func (sioSpinlocks) Unlock(n uint8)       { spinlockReg(n).Set(0xDEADBEEF) }

type sioFIFO struct{}

func (sioFIFO) Valid() bool    { return rp.SIO.FIFO_ST.HasBits(rp.SIO_FIFO_ST_VLD) }
func (sioFIFO) Ready() bool    { return rp.SIO.FIFO_ST.HasBits(rp.SIO_FIFO_ST_RDY) }
func (sioFIFO) Read() uint32   { return rp.SIO.FIFO_RD.Get() }
func (sioFIFO) Write(v uint32) { rp.SIO.FIFO_WR.Set(v) }

type ppbMPU struct{}

func (ppbMPU) Ctrl() uint32     { return rp.PPB.MPU_CTRL.Get() }
func (ppbMPU) SetCtrl(v uint32) { rp.PPB.MPU_CTRL.Set(v) }

func (ppbMPU) SetRegion(rbar, rasr uint32) {
	rp.PPB.MPU_RBAR.Set(rbar)
	rp.PPB.MPU_RASR.Set(rasr)
}

type rpCore struct{}

func (rpCore) FIFO() FIFO          { return sioFIFO{} }
func (rpCore) MPU() MPU            { return ppbMPU{} }
func (rpCore) VectorTable() uint32 { return rp.PPB.VTOR.Get() }
func (rpCore) SignalEvent()        { arm.Asm("sev") }
func (rpCore) WaitEvent()          { arm.Asm("wfe") }

type rpPSM struct{}

func (rpPSM) ResetCore1() {
	rp.PSM.FRCE_OFF.SetBits(rp.PSM_FRCE_OFF_PROC1)
	for !rp.PSM.FRCE_OFF.HasBits(rp.PSM_FRCE_OFF_PROC1) {
		arm.Asm("nop")
	}
	rp.PSM.FRCE_OFF.ClearBits(rp.PSM_FRCE_OFF_PROC1)
}

var irqHandlers [NumIRQ]func(irq int16)

// nvic binds the lines the runtime uses. TinyGo needs a constant IRQ number
// per interrupt.New call, so each supported line has its own case.
type nvic struct{}

func (nvic) Enable(line int, fn func(irq int16)) error {
	switch line {
	case IRQTimer0:
		irqHandlers[line] = fn
		armAlarm0()
		rp.TIMER.INTE.SetBits(rp.TIMER_INTE_ALARM_0)
		interrupt.New(rp.IRQ_TIMER_IRQ_0, timer0ISR).Enable()
	case IRQSIOProc0:
		irqHandlers[line] = fn
		rp.SIO.FIFO_ST.Set(rp.SIO_FIFO_ST_WOF | rp.SIO_FIFO_ST_ROE)
		interrupt.New(rp.IRQ_SIO_IRQ_PROC0, sioProc0ISR).Enable()
	default:
		if line < 0 || line >= NumIRQ {
			return ErrInvalidLine
		}
		return fmt.Errorf("irq line %d: %w", line, ErrNotImplemented)
	}
	return nil
}

func armAlarm0() {
	rp.TIMER.ALARM0.Set(rp.TIMER.TIMERAWL.Get() + TickPeriodMicros)
}

func timer0ISR(interrupt.Interrupt) {
	rp.TIMER.INTR.Set(rp.TIMER_INTR_ALARM_0)
	armAlarm0()
	if fn := irqHandlers[IRQTimer0]; fn != nil {
		fn(IRQTimer0)
	}
}

func sioProc0ISR(interrupt.Interrupt) {
	if fn := irqHandlers[IRQSIOProc0]; fn != nil {
		fn(IRQSIOProc0)
	}
	rp.SIO.FIFO_ST.Set(rp.SIO_FIFO_ST_WOF | rp.SIO_FIFO_ST_ROE)
}
