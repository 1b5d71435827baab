//go:build tinygo && bootdebug

package app

import (
	"machine"

	"ember/hal"
)

// bootStep reports a bring-up step on the UART and, once it is enumerated,
// on USB CDC, so a board that hangs during New shows how far it got.
func bootStep(h hal.HAL, msg string) {
	line := "boot: " + msg
	if l := h.Logger(); l != nil {
		l.WriteLineString(line)
	}
	if usb := machine.USBCDC; usb != nil {
		_, _ = usb.Write([]byte(line + "\r\n"))
	}
}
