package bootloader

import (
	"fmt"
	"time"

	"github.com/bozokopic/stm32ctl/protocol"
)

// link is the lowest protocol layer: it writes checksummed groups to
// the channel and interprets single-byte acknowledgments. It never
// retries; a NACK or a bad byte here is a command-level failure for
// the caller, since repeating bytes against the device's partially
// advanced parser is unsafe.
type link struct {
	ch Channel
}

// write pushes the whole buffer to the channel.
func (l *link) write(p []byte) error {
	for len(p) > 0 {
		n, err := l.ch.Write(p)
		if err != nil {
			return fmt.Errorf("channel write: %w", err)
		}
		p = p[n:]
	}
	return nil
}

// sendSync writes the bare synchronization byte. The one unframed
// byte in the protocol.
func (l *link) sendSync() error {
	return l.write([]byte{protocol.Sync})
}

// sendCommand writes the opcode with its complement and waits for the
// acknowledgment. The complement is the checksum of this two-byte
// group, so no extra checksum byte is sent.
func (l *link) sendCommand(opcode byte, timeout time.Duration) error {
	pair := protocol.CommandPair(opcode)
	if err := l.write(pair[:]); err != nil {
		return err
	}
	return l.waitAck(timeout)
}

// sendGroup writes an already checksummed group and waits for the
// acknowledgment.
func (l *link) sendGroup(group []byte, timeout time.Duration) error {
	if err := l.write(group); err != nil {
		return err
	}
	return l.waitAck(timeout)
}

// waitAck reads exactly one byte. ACK yields nil, NACK yields ErrNACK,
// anything else a ProtocolError. The timeout covers the single read.
func (l *link) waitAck(timeout time.Duration) error {
	var buf [1]byte
	if err := l.readFull(buf[:], timeout); err != nil {
		return err
	}

	switch buf[0] {
	case protocol.Ack:
		return nil
	case protocol.Nack:
		return ErrNACK
	default:
		return &ProtocolError{Byte: buf[0]}
	}
}

// readFull fills buf from the channel. A read returning zero bytes
// means the channel's timeout expired (go.bug.st/serial semantics)
// and surfaces as ProtocolError{Timeout}.
func (l *link) readFull(buf []byte, timeout time.Duration) error {
	if err := l.ch.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("set read timeout: %w", err)
	}

	for off := 0; off < len(buf); {
		n, err := l.ch.Read(buf[off:])
		if err != nil {
			return fmt.Errorf("channel read: %w", err)
		}
		if n == 0 {
			return &ProtocolError{Timeout: true}
		}
		off += n
	}
	return nil
}
