package hal

// RP2040 NVIC interrupt lines.
const (
	IRQTimer0 = iota
	IRQTimer1
	IRQTimer2
	IRQTimer3
	IRQPWMWrap
	IRQUSBCtrl
	IRQXIP
	IRQPIO0_0
	IRQPIO0_1
	IRQPIO1_0
	IRQPIO1_1
	IRQDMA0
	IRQDMA1
	IRQIOBank0
	IRQIOQSPI
	IRQSIOProc0
	IRQSIOProc1
	IRQClocks
	IRQSPI0
	IRQSPI1
	IRQUART0
	IRQUART1
	IRQADCFIFO
	IRQI2C0
	IRQI2C1
	IRQRTC

	NumIRQ
)
