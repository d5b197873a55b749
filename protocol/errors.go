package protocol

import "fmt"

// AlignmentError indicates an address that violates the word alignment
// required for program, erase and jump targets. Caught before any byte
// is transmitted; the device would NACK, but a typed error is clearer.
type AlignmentError struct {
	// Address is the offending address
	Address uint32
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("address 0x%08X is not word aligned", e.Address)
}

// LengthError indicates a transfer or page-list length outside the
// protocol's documented range. Caught before transmission.
type LengthError struct {
	// Length is the requested length
	Length int

	// Min and Max bound the valid range (inclusive)
	Min int
	Max int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("length %d is out of range %d-%d", e.Length, e.Min, e.Max)
}
