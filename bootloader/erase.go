package bootloader

import (
	"context"

	"github.com/bozokopic/stm32ctl/protocol"
)

// Erase erases the listed flash pages, selecting the standard or
// extended erase command from the capability set (devices advertise
// exactly one). Page indexes above 0xFF require the extended command.
//
// Erasing may legitimately take many seconds; the final
// acknowledgment is awaited with the erase timeout.
func (s *Session) Erase(ctx context.Context, pages []uint16) error {
	op, err := s.beginErase(ctx)
	if err != nil {
		return err
	}
	if len(pages) < 1 {
		return &protocol.LengthError{Length: len(pages), Min: 1, Max: 0xFFF0}
	}

	var group []byte
	if op == protocol.CmdExtendedErase {
		group, err = protocol.EncodeExtendedErasePages(pages)
	} else {
		group, err = s.encodeStandardPages(pages)
	}
	if err != nil {
		return err
	}

	s.logInfo("erasing pages", "count", len(pages))
	return s.erase(ctx, op, group)
}

// MassErase erases the entire flash array via the appropriate
// sentinel: 0xFF for the standard command, 0xFFFF for the extended
// one. No page indexes are transmitted.
func (s *Session) MassErase(ctx context.Context) error {
	op, err := s.beginErase(ctx)
	if err != nil {
		return err
	}

	group := protocol.EncodeMassErase()
	if op == protocol.CmdExtendedErase {
		group, err = protocol.EncodeExtendedEraseSpecial(protocol.ExtendedMassErase)
		if err != nil {
			return err
		}
	}

	s.logInfo("erasing all flash memory")
	return s.erase(ctx, op, group)
}

// EraseBank erases one flash bank (1 or 2) via the extended erase
// bank sentinels. Only available when the device supports extended
// erase.
func (s *Session) EraseBank(ctx context.Context, bank int) error {
	if err := s.begin(ctx, protocol.CmdExtendedErase); err != nil {
		return err
	}

	var code uint16
	switch bank {
	case 1:
		code = protocol.ExtendedBank1Erase
	case 2:
		code = protocol.ExtendedBank2Erase
	default:
		return &protocol.LengthError{Length: bank, Min: 1, Max: 2}
	}

	group, err := protocol.EncodeExtendedEraseSpecial(code)
	if err != nil {
		return err
	}

	s.logInfo("erasing flash bank", "bank", bank)
	return s.erase(ctx, protocol.CmdExtendedErase, group)
}

// beginErase gates an erase request on whichever erase opcode the
// device advertised.
func (s *Session) beginErase(ctx context.Context) (byte, error) {
	if s.state != StateReady {
		return 0, &SessionStateError{State: s.state}
	}

	op, ok := s.commands.EraseOpcode()
	if !ok {
		return 0, &UnsupportedCommandError{Opcode: protocol.CmdErase}
	}
	return op, ctx.Err()
}

// encodeStandardPages narrows 16-bit page indexes to the standard
// command's single-byte encoding.
func (s *Session) encodeStandardPages(pages []uint16) ([]byte, error) {
	narrow := make([]byte, len(pages))
	for i, page := range pages {
		if page > 0xFF {
			return nil, &protocol.LengthError{Length: int(page), Min: 0, Max: 0xFF}
		}
		narrow[i] = byte(page)
	}
	return protocol.EncodeErasePages(narrow)
}

// erase performs the common exchange: command, page group, then the
// long-running final acknowledgment.
func (s *Session) erase(ctx context.Context, op byte, group []byte) error {
	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return err
	}

	if err := s.link.sendGroup(group, s.config.EraseTimeout); err != nil {
		return s.fail(op, "erase ack", err)
	}
	return nil
}
