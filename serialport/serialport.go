// Package serialport opens serial devices with the line settings the
// STM32 bootloader mandates: 8 data bits, even parity, 1 stop bit.
package serialport

import (
	"fmt"

	"go.bug.st/serial"
)

// Open opens the named serial device at the given baudrate with
// AN3155 framing (8E1). The returned port satisfies
// bootloader.Channel directly.
func Open(name string, baudrate int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.EvenParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return port, nil
}
