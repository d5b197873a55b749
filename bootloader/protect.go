package bootloader

import (
	"context"
	"time"

	"github.com/bozokopic/stm32ctl/protocol"
)

// WriteProtect enables write protection for the listed flash sectors.
// The device resets itself after the final acknowledgment, so the
// session enters ResetPending; call Resync before the next command.
func (s *Session) WriteProtect(ctx context.Context, sectors []byte) error {
	const op = protocol.CmdWriteProtect

	if err := s.begin(ctx, op); err != nil {
		return err
	}

	group, err := protocol.EncodeProtectSectors(sectors)
	if err != nil {
		return err
	}

	s.logInfo("enabling write protection", "sectors", len(sectors))

	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return err
	}

	if err := s.link.sendGroup(group, s.config.AckTimeout); err != nil {
		return s.fail(op, "sector ack", err)
	}

	s.state = StateResetPending
	return nil
}

// WriteUnprotect disables write protection for all flash sectors.
// Triggers a device-side reset; the session enters ResetPending.
func (s *Session) WriteUnprotect(ctx context.Context) error {
	s.logInfo("disabling write protection")
	return s.toggleProtection(ctx, protocol.CmdWriteUnprotect, s.config.AckTimeout)
}

// ReadoutProtect enables flash readout protection. Triggers a
// device-side reset; the session enters ResetPending.
func (s *Session) ReadoutProtect(ctx context.Context) error {
	s.logInfo("enabling readout protection")
	return s.toggleProtection(ctx, protocol.CmdReadoutProtect, s.config.AckTimeout)
}

// ReadoutUnprotect disables flash readout protection. The device
// mass-erases the flash before acknowledging, so the second
// acknowledgment is awaited with the erase timeout. Triggers a
// device-side reset; the session enters ResetPending.
func (s *Session) ReadoutUnprotect(ctx context.Context) error {
	s.logInfo("disabling readout protection")
	return s.toggleProtection(ctx, protocol.CmdReadoutUnprotect, s.config.EraseTimeout)
}

// toggleProtection performs the two-acknowledgment exchange shared by
// the parameterless protection commands.
func (s *Session) toggleProtection(ctx context.Context, op byte, timeout time.Duration) error {
	if err := s.begin(ctx, op); err != nil {
		return err
	}

	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return err
	}

	if err := s.link.waitAck(timeout); err != nil {
		// The command was already accepted; the device may reset even
		// when the completion is rejected.
		s.state = StateResetPending
		return s.fail(op, "completion ack", err)
	}

	s.state = StateResetPending
	return nil
}
