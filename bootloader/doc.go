// Package bootloader drives the STM32 USART bootloader (AN3155) over
// an abstract byte channel: handshake, capability negotiation, and
// typed memory/erase/execute/protection operations.
//
// # Session Lifecycle
//
// Open performs the sync byte exchange and the Get command, learning
// which opcodes the attached bootloader supports. Commands whose
// opcode was not advertised fail with *UnsupportedCommandError before
// any byte reaches the channel.
//
//	port, err := serialport.Open("/dev/ttyUSB0", 115200)
//	sess, err := bootloader.Open(ctx, port)
//	chipID, err := sess.GetID(ctx)
//	data, err := sess.ReadMemory(ctx, 0x08000000, 4096)
//
// Commands that trigger a device-side reset (Go and the protection
// toggles) move the session to StateResetPending: the bootloader
// discarded its state, so every further command fails until Resync
// re-runs the handshake and rebuilds the capability set.
//
// # Error Discipline
//
// There are no hidden retries. A NACK or protocol violation at any
// step aborts the whole command with *CommandFailedError naming the
// command and step; the session stays Ready and the caller decides
// whether re-issuing is safe (reads are idempotent, flash writes
// generally need a re-erase first). The single sanctioned retry is
// the sync byte during handshake, which the device specifies as
// repeatable.
//
// Cancellation via context is honored only before a command's first
// byte is sent. A cancellation observed mid-command returns
// *CancellationUnsafeError and forces the session to StateUnsynced,
// because an abandoned half-sent frame corrupts the device's parser
// until a fresh handshake.
//
// # Concurrency
//
// The protocol is half-duplex with a single device-side thread of
// execution, so a Session supports one in-flight command and is not
// safe for concurrent use; serialize access externally.
package bootloader
