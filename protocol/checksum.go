package protocol

// Checksum computes the XOR checksum over a checksummed group.
// Per AN3155 the checksum byte is the XOR of all preceding bytes in
// the group. The minimal group is two bytes; single bytes use the
// complement rule instead (see AppendChecksum).
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// AppendChecksum returns data with its trailing checksum byte.
// A single-byte group is checksummed with its bitwise complement,
// everything longer with the XOR of all bytes. This reproduces the
// device-side rule exactly; both cases reduce to "device XORs
// everything including the checksum and expects 0xFF or 0x00".
func AppendChecksum(data []byte) []byte {
	out := make([]byte, 0, len(data)+1)
	out = append(out, data...)

	if len(data) == 1 {
		return append(out, ^data[0])
	}
	return append(out, Checksum(data))
}

// CommandPair returns the two-byte opcode frame: the opcode followed
// by its bitwise complement. The complement doubles as the checksum
// for this two-byte group. Invariant: pair[1] == 0xFF - pair[0].
func CommandPair(opcode byte) [2]byte {
	return [2]byte{opcode, ^opcode}
}

// ValidateChecksum reports whether the last byte of frame is the
// correct XOR checksum of the preceding bytes.
func ValidateChecksum(frame []byte) bool {
	if len(frame) < 2 {
		return false
	}
	return Checksum(frame[:len(frame)-1]) == frame[len(frame)-1]
}
