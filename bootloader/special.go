package bootloader

import (
	"context"
	"encoding/binary"

	"github.com/bozokopic/stm32ctl/protocol"
)

// SpecialResult is the reply of a Special command: an opaque data
// block and an opaque status block, both interpreted only by the
// vendor-specific sub-command.
type SpecialResult struct {
	Data   []byte
	Status []byte
}

// Special performs the vendor-specific Special command: a 16-bit
// sub-command, one optional request payload, and two length-prefixed
// response blocks (data, then status). Sub-commands are treated as
// opaque; their meaning is defined by the device vendor.
func (s *Session) Special(ctx context.Context, subCommand uint16, data []byte) (*SpecialResult, error) {
	const op = protocol.CmdSpecial

	if err := s.begin(ctx, op); err != nil {
		return nil, err
	}

	payload, err := protocol.EncodeSpecialPayload(data)
	if err != nil {
		return nil, err
	}

	s.logDebug("sending special command", "sub_command", subCommand)

	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return nil, err
	}

	if err := s.link.sendGroup(protocol.EncodeSubCommand(subCommand), s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "sub-command ack", err)
	}
	if err := s.checkpoint(ctx, op, "sub-command ack"); err != nil {
		return nil, err
	}

	if err := s.link.sendGroup(payload, s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "payload ack", err)
	}

	result := &SpecialResult{}
	if result.Data, err = s.readSizedBlock(op, "response data"); err != nil {
		return nil, err
	}
	if result.Status, err = s.readSizedBlock(op, "response status"); err != nil {
		return nil, err
	}

	if err := s.link.waitAck(s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "final ack", err)
	}
	return result, nil
}

// ExtendedSpecial performs the vendor-specific Extended Special
// command: a 16-bit sub-command, two optional request payloads and
// one length-prefixed response block.
func (s *Session) ExtendedSpecial(ctx context.Context, subCommand uint16, data1, data2 []byte) ([]byte, error) {
	const op = protocol.CmdExtendedSpecial

	if err := s.begin(ctx, op); err != nil {
		return nil, err
	}

	payload1, err := protocol.EncodeSpecialPayload(data1)
	if err != nil {
		return nil, err
	}
	payload2, err := protocol.EncodeSpecialPayload(data2)
	if err != nil {
		return nil, err
	}

	s.logDebug("sending extended special command", "sub_command", subCommand)

	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return nil, err
	}

	if err := s.link.sendGroup(protocol.EncodeSubCommand(subCommand), s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "sub-command ack", err)
	}
	if err := s.checkpoint(ctx, op, "sub-command ack"); err != nil {
		return nil, err
	}

	if err := s.link.sendGroup(payload1, s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "first payload ack", err)
	}
	if err := s.checkpoint(ctx, op, "first payload ack"); err != nil {
		return nil, err
	}

	if err := s.link.sendGroup(payload2, s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "second payload ack", err)
	}

	data, err := s.readSizedBlock(op, "response data")
	if err != nil {
		return nil, err
	}

	if err := s.link.waitAck(s.config.AckTimeout); err != nil {
		return nil, s.fail(op, "final ack", err)
	}
	return data, nil
}

// readSizedBlock reads a 16-bit big-endian size followed by that many
// bytes. Zero-sized blocks are valid.
func (s *Session) readSizedBlock(op byte, step string) ([]byte, error) {
	var size [2]byte
	if err := s.link.readFull(size[:], s.config.AckTimeout); err != nil {
		return nil, s.fail(op, step, err)
	}

	n := binary.BigEndian.Uint16(size[:])
	if n == 0 {
		return nil, nil
	}

	block := make([]byte, n)
	if err := s.link.readFull(block, s.config.AckTimeout); err != nil {
		return nil, s.fail(op, step, err)
	}
	return block, nil
}
