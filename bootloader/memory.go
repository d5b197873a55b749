package bootloader

import (
	"context"
	"encoding/binary"

	"github.com/bozokopic/stm32ctl/protocol"
)

// STM32F1 system memory locations used by Info. Other families place
// these registers elsewhere; Info targets the family the bootloader
// client was written against.
const (
	deviceIDAddr  = 0x1FFFF7E8
	flashSizeAddr = 0x1FFFF7E0
)

// Info is a device summary assembled from Get ID and two system
// memory reads.
type Info struct {
	// Version is the bootloader protocol version
	Version protocol.Version

	// ChipID is the product ID
	ChipID protocol.ChipID

	// DeviceID is the 96-bit unique device identifier
	DeviceID [12]byte

	// FlashSize is the flash capacity in bytes
	FlashSize int
}

// ReadMemory reads size bytes starting at addr, issuing one read
// command per chunk of at most the configured chunk size. Reads are
// idempotent; a failed read may simply be re-issued by the caller.
func (s *Session) ReadMemory(ctx context.Context, addr uint32, size int) ([]byte, error) {
	if err := s.begin(ctx, protocol.CmdReadMemory); err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, &protocol.LengthError{Length: size, Min: 1, Max: int(^uint32(0) >> 1)}
	}

	s.logDebug("reading memory", "address", hex32(addr), "size", size)

	data := make([]byte, 0, size)
	s.reportProgress(0, size)

	for len(data) < size {
		n := size - len(data)
		if n > s.config.ChunkSize {
			n = s.config.ChunkSize
		}

		chunk, err := s.readChunk(ctx, addr+uint32(len(data)), n)
		if err != nil {
			return nil, err
		}

		data = append(data, chunk...)
		s.reportProgress(len(data), size)
	}
	return data, nil
}

// readChunk performs one Read Memory exchange. The device ACKs the
// command and the two framing groups; the data itself arrives with no
// trailing acknowledgment.
func (s *Session) readChunk(ctx context.Context, addr uint32, size int) ([]byte, error) {
	const op = protocol.CmdReadMemory

	lengthGroup, err := protocol.EncodeReadLength(size)
	if err != nil {
		return nil, err
	}

	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return nil, err
	}

	if err := s.link.sendGroup(protocol.EncodeAddress(addr), s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "address ack", err)
	}
	if err := s.checkpoint(ctx, op, "address ack"); err != nil {
		return nil, err
	}

	if err := s.link.sendGroup(lengthGroup, s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "length ack", err)
	}

	data := make([]byte, size)
	if err := s.link.readFull(data, s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "data", err)
	}
	return data, nil
}

// WriteMemory programs data starting at addr, one write command per
// chunk. The final chunk is padded with 0xFF to a multiple of 4 on
// the wire, matching documented device behavior. The address must be
// word aligned.
//
// A failed write is not retried: blindly re-issuing a flash write
// without a fresh erase can mask corruption, so the decision stays
// with the caller.
func (s *Session) WriteMemory(ctx context.Context, addr uint32, data []byte) error {
	if err := s.begin(ctx, protocol.CmdWriteMemory); err != nil {
		return err
	}
	if err := protocol.ValidateAddress(addr); err != nil {
		return err
	}
	if len(data) < 1 {
		return &protocol.LengthError{Length: len(data), Min: 1, Max: int(^uint32(0) >> 1)}
	}

	s.logDebug("writing memory", "address", hex32(addr), "size", len(data))

	total := len(data)
	written := 0
	s.reportProgress(0, total)

	for written < total {
		n := total - written
		if n > s.config.ChunkSize {
			n = s.config.ChunkSize
		}

		if err := s.writeChunk(ctx, addr+uint32(written), data[written:written+n]); err != nil {
			return err
		}

		written += n
		s.reportProgress(written, total)
	}
	return nil
}

// writeChunk performs one Write Memory exchange: command, address
// group, then the length-prefixed payload with its checksum over
// length and data together.
func (s *Session) writeChunk(ctx context.Context, addr uint32, data []byte) error {
	const op = protocol.CmdWriteMemory

	payload, err := protocol.EncodeWriteData(data)
	if err != nil {
		return err
	}

	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return err
	}

	if err := s.link.sendGroup(protocol.EncodeAddress(addr), s.config.AckTimeout); err != nil {
		return s.fail(op, "address ack", err)
	}
	if err := s.checkpoint(ctx, op, "address ack"); err != nil {
		return err
	}

	if err := s.link.sendGroup(payload, s.config.AckTimeout); err != nil {
		return s.fail(op, "data ack", err)
	}
	return nil
}

// Go issues the Go command: the device jumps to the application at
// addr after the final acknowledgment. The bootloader state is
// discarded, so the session enters ResetPending; treat the channel as
// possibly closed and call Resync before any further command.
func (s *Session) Go(ctx context.Context, addr uint32) error {
	const op = protocol.CmdGo

	if err := s.begin(ctx, op); err != nil {
		return err
	}
	if err := protocol.ValidateAddress(addr); err != nil {
		return err
	}

	s.logInfo("starting execution", "address", hex32(addr))

	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return err
	}

	if err := s.link.sendGroup(protocol.EncodeAddress(addr), s.config.AckTimeout); err != nil {
		return s.fail(op, "address ack", err)
	}

	s.state = StateResetPending
	return nil
}

// Info reads the device summary: chip ID plus the unique device ID
// and flash size from system memory.
func (s *Session) Info(ctx context.Context) (*Info, error) {
	chipID, err := s.GetID(ctx)
	if err != nil {
		return nil, err
	}

	deviceID, err := s.ReadMemory(ctx, deviceIDAddr, 12)
	if err != nil {
		return nil, err
	}

	flashSize, err := s.ReadMemory(ctx, flashSizeAddr, 2)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Version:   s.version,
		ChipID:    chipID,
		FlashSize: int(binary.LittleEndian.Uint16(flashSize)) * 1024,
	}
	copy(info.DeviceID[:], deviceID)
	return info, nil
}
