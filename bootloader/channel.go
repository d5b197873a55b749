package bootloader

import (
	"io"
	"time"
)

// Channel is the duplex byte stream the session drives. The protocol
// never configures the line itself; AN3155 fixes framing at 8 data
// bits, even parity, 1 stop bit, and the Channel is expected to
// enforce it (see the serialport package).
//
// Read must honor the timeout set by SetReadTimeout and return 0, nil
// when it expires, the contract of go.bug.st/serial.Port. A Port
// therefore satisfies Channel directly.
type Channel interface {
	io.ReadWriter

	// SetReadTimeout bounds subsequent Read calls
	SetReadTimeout(t time.Duration) error
}
