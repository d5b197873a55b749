package protocol

import "encoding/binary"

// ValidateAddress checks the word alignment required for program,
// erase and jump targets.
func ValidateAddress(addr uint32) error {
	if addr%WriteAlignment != 0 {
		return &AlignmentError{Address: addr}
	}
	return nil
}

// EncodeAddress returns the address group: 4 bytes big-endian plus
// the XOR checksum.
func EncodeAddress(addr uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, addr)
	return AppendChecksum(buf)
}

// EncodeReadLength returns the read-length group for n bytes:
// the wire carries n-1 plus its complement checksum.
func EncodeReadLength(n int) ([]byte, error) {
	if n < 1 || n > MaxTransferSize {
		return nil, &LengthError{Length: n, Min: 1, Max: MaxTransferSize}
	}
	return AppendChecksum([]byte{byte(n - 1)}), nil
}

// PadWriteData returns data padded with PadByte to a multiple of
// WriteAlignment. The input slice is never modified.
func PadWriteData(data []byte) []byte {
	rem := len(data) % WriteAlignment
	if rem == 0 {
		return data
	}

	padded := make([]byte, 0, len(data)+WriteAlignment-rem)
	padded = append(padded, data...)
	for i := rem; i < WriteAlignment; i++ {
		padded = append(padded, PadByte)
	}
	return padded
}

// EncodeWriteData returns the write payload group: the length byte
// (padded size minus one), the padded data, and the XOR checksum over
// length and data together.
func EncodeWriteData(data []byte) ([]byte, error) {
	if len(data) < 1 || len(data) > MaxTransferSize {
		return nil, &LengthError{Length: len(data), Min: 1, Max: MaxTransferSize}
	}

	padded := PadWriteData(data)
	group := make([]byte, 0, len(padded)+1)
	group = append(group, byte(len(padded)-1))
	group = append(group, padded...)
	return AppendChecksum(group), nil
}

// EncodeErasePages returns the standard erase page group: the page
// count minus one, the single-byte page indexes, and the XOR checksum.
// The count byte 0xFF is reserved for mass erase, so at most 255
// pages fit in one command.
func EncodeErasePages(pages []byte) ([]byte, error) {
	if len(pages) < 1 || len(pages) > MaxErasePages {
		return nil, &LengthError{Length: len(pages), Min: 1, Max: MaxErasePages}
	}

	group := make([]byte, 0, len(pages)+1)
	group = append(group, byte(len(pages)-1))
	group = append(group, pages...)
	return AppendChecksum(group), nil
}

// EncodeMassErase returns the standard mass erase group: the 0xFF
// marker with its complement checksum.
func EncodeMassErase() []byte {
	return AppendChecksum([]byte{MassErase})
}

// EncodeExtendedErasePages returns the extended erase page group:
// two-byte big-endian page count minus one, two bytes per page index,
// and the XOR checksum over everything. Counts at 0xFFF0 and above
// are reserved by the protocol for special erase codes.
func EncodeExtendedErasePages(pages []uint16) ([]byte, error) {
	if len(pages) < 1 || len(pages) > 0xFFF0 {
		return nil, &LengthError{Length: len(pages), Min: 1, Max: 0xFFF0}
	}

	group := make([]byte, 0, 2+2*len(pages))
	group = binary.BigEndian.AppendUint16(group, uint16(len(pages)-1))
	for _, page := range pages {
		group = binary.BigEndian.AppendUint16(group, page)
	}
	return AppendChecksum(group), nil
}

// EncodeExtendedEraseSpecial returns the extended erase group for one
// of the special two-byte codes (mass, bank 1, bank 2).
func EncodeExtendedEraseSpecial(code uint16) ([]byte, error) {
	switch code {
	case ExtendedMassErase, ExtendedBank1Erase, ExtendedBank2Erase:
	default:
		return nil, &LengthError{Length: int(code), Min: ExtendedBank2Erase, Max: ExtendedMassErase}
	}

	group := binary.BigEndian.AppendUint16(nil, code)
	return AppendChecksum(group), nil
}

// EncodeProtectSectors returns the write protect sector group:
// sector count minus one, single-byte sector codes, XOR checksum.
func EncodeProtectSectors(sectors []byte) ([]byte, error) {
	if len(sectors) < 1 || len(sectors) > MaxErasePages {
		return nil, &LengthError{Length: len(sectors), Min: 1, Max: MaxErasePages}
	}

	group := make([]byte, 0, len(sectors)+1)
	group = append(group, byte(len(sectors)-1))
	group = append(group, sectors...)
	return AppendChecksum(group), nil
}

// EncodeSubCommand returns the two-byte big-endian sub-command group
// used by the special commands, with its XOR checksum.
func EncodeSubCommand(code uint16) []byte {
	group := binary.BigEndian.AppendUint16(nil, code)
	return AppendChecksum(group)
}

// EncodeSpecialPayload returns a special-command request payload:
// two-byte big-endian data size, the data, and the XOR checksum over
// size and data together. Empty payloads are valid; the group then
// carries only the zero size and its checksum.
func EncodeSpecialPayload(data []byte) ([]byte, error) {
	if len(data) > 0xFFFF {
		return nil, &LengthError{Length: len(data), Min: 0, Max: 0xFFFF}
	}

	group := make([]byte, 0, 2+len(data))
	group = binary.BigEndian.AppendUint16(group, uint16(len(data)))
	group = append(group, data...)
	return AppendChecksum(group), nil
}
