package protocol

// ProtocolName is the vendor application note defining this protocol.
const ProtocolName = "AN3155"

// Framing bytes per AN3155.
const (
	// Sync is the synchronization byte sent alone after device reset.
	// It is the only unchecksummed byte in the protocol.
	Sync = 0x7F

	// Ack is the positive acknowledgment byte
	Ack = 0x79

	// Nack is the negative acknowledgment byte
	Nack = 0x1F
)

// Command opcodes per AN3155. Each opcode is sent together with its
// bitwise complement; see CommandPair.
const (
	// CmdGet returns the bootloader version and the supported opcodes
	CmdGet = 0x00

	// CmdGetVersion returns the version and the read protection status
	CmdGetVersion = 0x01

	// CmdGetID returns the chip (product) ID
	CmdGetID = 0x02

	// CmdReadMemory reads up to 256 bytes from an address
	CmdReadMemory = 0x11

	// CmdGo jumps to an address, typically the application entry point
	CmdGo = 0x21

	// CmdWriteMemory programs up to 256 bytes at an address
	CmdWriteMemory = 0x31

	// CmdErase erases flash pages (single-byte page indexes)
	CmdErase = 0x43

	// CmdExtendedErase erases flash pages (two-byte page indexes);
	// devices support either Erase or Extended Erase, never both
	CmdExtendedErase = 0x44

	// CmdSpecial performs a vendor-specific sub-command exchange
	CmdSpecial = 0x50

	// CmdExtendedSpecial performs a vendor-specific sub-command
	// exchange with two request payloads
	CmdExtendedSpecial = 0x51

	// CmdWriteProtect enables write protection for a sector list
	CmdWriteProtect = 0x63

	// CmdWriteUnprotect disables write protection for all sectors
	CmdWriteUnprotect = 0x73

	// CmdReadoutProtect enables flash readout protection
	CmdReadoutProtect = 0x82

	// CmdReadoutUnprotect disables flash readout protection
	CmdReadoutUnprotect = 0x92

	// CmdGetChecksum computes a CRC over a memory area on the device.
	// Listed for capability reporting; not driven by this library.
	CmdGetChecksum = 0xA1
)

// MaxTransferSize is the largest payload a single read or write
// command can carry. The on-wire length field holds size-1 in one
// byte, so 256 is the hard protocol limit.
const MaxTransferSize = 256

// Write payload constraints. Payload sizes must be a multiple of
// WriteAlignment; shorter payloads are padded with PadByte, matching
// device behavior for the trailing bytes of a non-aligned transfer.
const (
	WriteAlignment = 4
	PadByte        = 0xFF
)

// Erase sentinels. MassErase is the single-byte global erase marker of
// the standard command; the extended command uses two-byte codes with
// separate markers for each flash bank.
const (
	MassErase = 0xFF

	ExtendedMassErase  = 0xFFFF
	ExtendedBank1Erase = 0xFFFE
	ExtendedBank2Erase = 0xFFFD
)

// MaxErasePages is the longest page list for the standard erase
// command. The extended command allows longer lists but keeps the
// count-minus-one encoding.
const MaxErasePages = 0xFF

// CommandName returns a human-readable name for an opcode,
// used in error messages.
func CommandName(opcode byte) string {
	switch opcode {
	case CmdGet:
		return "get"
	case CmdGetVersion:
		return "get version"
	case CmdGetID:
		return "get id"
	case CmdReadMemory:
		return "read memory"
	case CmdGo:
		return "go"
	case CmdWriteMemory:
		return "write memory"
	case CmdErase:
		return "erase"
	case CmdExtendedErase:
		return "extended erase"
	case CmdSpecial:
		return "special"
	case CmdExtendedSpecial:
		return "extended special"
	case CmdWriteProtect:
		return "write protect"
	case CmdWriteUnprotect:
		return "write unprotect"
	case CmdReadoutProtect:
		return "readout protect"
	case CmdReadoutUnprotect:
		return "readout unprotect"
	case CmdGetChecksum:
		return "get checksum"
	default:
		return "unknown command"
	}
}
