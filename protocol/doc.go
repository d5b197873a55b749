// Package protocol implements the wire level of the STM32 USART
// bootloader protocol (vendor application note AN3155).
//
// # Protocol Overview
//
// The protocol is a half-duplex byte exchange. Every command starts
// with a two-byte pair, the opcode and its bitwise complement, and
// every variable-length group carries a trailing XOR checksum:
//
//	Command:  [OPCODE][^OPCODE]            -> ACK
//	Group:    [BYTE]...[XOR CHECKSUM]      -> ACK
//	Sync:     [0x7F]                       -> ACK (unchecksummed)
//
// Two quirks are protocol facts and reproduced exactly:
//
//   - Length fields carry size-1; the device adds one.
//   - A single-byte group is checksummed with its bitwise complement
//     instead of the XOR rule.
//
// # Encoders
//
// Use the Encode* functions to build checksummed groups:
//
//	group := protocol.EncodeAddress(0x08000000)
//	group, err := protocol.EncodeWriteData(data)
//	group, err := protocol.EncodeExtendedErasePages(pages)
//
// Validation (address alignment, length bounds) happens before any
// encoding, returning *AlignmentError or *LengthError, so a bad
// request never produces wire traffic.
//
// # Capability Set
//
// The Get command reply is modeled by CommandSet; commands absent
// from the set must not be sent to the device:
//
//	set := protocol.NewCommandSet(reply)
//	if !set.Supports(protocol.CmdReadMemory) { ... }
//
// # Reference
//
// STMicroelectronics AN3155: "USART protocol used in the STM32
// bootloader".
package protocol
