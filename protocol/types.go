package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// Version is the bootloader protocol version byte as reported by the
// Get and Get Version commands. The high nibble is the major version,
// the low nibble the minor (0x31 reads as "3.1").
type Version byte

// Major returns the major version number.
func (v Version) Major() int { return int(v >> 4) }

// Minor returns the minor version number.
func (v Version) Minor() int { return int(v & 0x0F) }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// ChipID is the device product ID returned by the Get ID command.
// Big-endian on the wire, two bytes on all current devices.
type ChipID uint16

func (id ChipID) String() string {
	return fmt.Sprintf("0x%04X", uint16(id))
}

// ParseChipID decodes a big-endian chip ID of one to four bytes.
func ParseChipID(data []byte) (ChipID, error) {
	if len(data) < 1 || len(data) > 4 {
		return 0, &LengthError{Length: len(data), Min: 1, Max: 4}
	}

	var id uint32
	for _, b := range data {
		id = id<<8 | uint32(b)
	}
	return ChipID(id), nil
}

// ProtectionStatus is the reply of the Get Version & Read Protection
// Status command: the version byte and two device option bytes.
type ProtectionStatus struct {
	Version Version

	// OptionBytes holds the two read-protection bytes: the number of
	// times protection was disabled, then enabled
	OptionBytes [2]byte
}

// CommandSet is the set of opcodes a bootloader reported via the Get
// command. Populated once per session; an opcode absent from the set
// must never reach the wire.
type CommandSet map[byte]bool

// NewCommandSet builds a CommandSet from the opcode list of a Get
// reply.
func NewCommandSet(opcodes []byte) CommandSet {
	set := make(CommandSet, len(opcodes))
	for _, op := range opcodes {
		set[op] = true
	}
	return set
}

// Supports reports whether the bootloader advertised the opcode.
func (s CommandSet) Supports(opcode byte) bool {
	return s[opcode]
}

// EraseOpcode selects between the standard and extended erase
// commands. Devices advertise exactly one of the two; extended wins
// when both appear. The boolean is false when neither is supported.
func (s CommandSet) EraseOpcode() (byte, bool) {
	if s.Supports(CmdExtendedErase) {
		return CmdExtendedErase, true
	}
	if s.Supports(CmdErase) {
		return CmdErase, true
	}
	return 0, false
}

func (s CommandSet) String() string {
	opcodes := make([]int, 0, len(s))
	for op := range s {
		opcodes = append(opcodes, int(op))
	}
	sort.Ints(opcodes)

	parts := make([]string, len(opcodes))
	for i, op := range opcodes {
		parts[i] = fmt.Sprintf("0x%02X", op)
	}
	return strings.Join(parts, ", ")
}
