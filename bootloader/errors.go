package bootloader

import (
	"errors"
	"fmt"

	"github.com/bozokopic/stm32ctl/protocol"
)

// ErrNACK is the device's negative acknowledgment. It is always
// wrapped in a CommandFailedError identifying the command and step,
// or in a HandshakeError during synchronization.
var ErrNACK = errors.New("device replied NACK")

// HandshakeError indicates that no synchronization was achieved with
// the bootloader. Wraps the last sync attempt's failure.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake failed: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// ProtocolError indicates a malformed or absent reply: either no byte
// arrived within the timeout, or a byte arrived that is neither ACK
// nor NACK where an acknowledgment was expected.
type ProtocolError struct {
	// Timeout is true when no byte arrived in time
	Timeout bool

	// Byte is the offending byte when Timeout is false
	Byte byte
}

func (e *ProtocolError) Error() string {
	if e.Timeout {
		return "timed out waiting for device reply"
	}
	return fmt.Sprintf("unexpected reply byte 0x%02X", e.Byte)
}

// CommandFailedError indicates a NACK or sequence break mid-command.
// Step names the exchange step that failed, so a caller can judge
// whether a destructive operation is safe to re-issue (a write that
// failed after its data ack may require a re-erase first).
type CommandFailedError struct {
	// Opcode is the command that failed
	Opcode byte

	// Step names the failed exchange step ("command ack",
	// "address ack", "data ack", ...)
	Step string

	// Err is the underlying failure
	Err error
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("%s command (0x%02X) failed at %s: %v",
		protocol.CommandName(e.Opcode), e.Opcode, e.Step, e.Err)
}

func (e *CommandFailedError) Unwrap() error { return e.Err }

// UnsupportedCommandError indicates an opcode absent from the
// negotiated capability set. Raised before any byte reaches the
// channel.
type UnsupportedCommandError struct {
	Opcode byte
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("%s command (0x%02X) not supported by this bootloader",
		protocol.CommandName(e.Opcode), e.Opcode)
}

// SessionStateError indicates a command attempted while the session
// cannot accept one: before synchronization, or after a
// reset-triggering command until Resync is called.
type SessionStateError struct {
	State State
}

func (e *SessionStateError) Error() string {
	if e.State == StateResetPending {
		return "session is stale after device reset: resync required"
	}
	return fmt.Sprintf("session is not ready (state %s)", e.State)
}

// CancellationUnsafeError indicates a context cancellation observed
// mid-command. The device-side operation cannot be aborted and the
// half-finished exchange corrupts the device's protocol state, so the
// session is forced back to Unsynced and requires Resync.
type CancellationUnsafeError struct {
	// Opcode and Step locate where the cancellation was observed
	Opcode byte
	Step   string

	// Err is the context's error
	Err error
}

func (e *CancellationUnsafeError) Error() string {
	return fmt.Sprintf("cancelled during %s command (0x%02X) at %s, device state is undefined until resync: %v",
		protocol.CommandName(e.Opcode), e.Opcode, e.Step, e.Err)
}

func (e *CancellationUnsafeError) Unwrap() error { return e.Err }
