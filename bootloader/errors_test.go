package bootloader

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bozokopic/stm32ctl/protocol"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "handshake",
			err:  &HandshakeError{Err: ErrNACK},
			want: "handshake failed",
		},
		{
			name: "protocol timeout",
			err:  &ProtocolError{Timeout: true},
			want: "timed out",
		},
		{
			name: "protocol unexpected byte",
			err:  &ProtocolError{Byte: 0x42},
			want: "unexpected reply byte 0x42",
		},
		{
			name: "command failed",
			err: &CommandFailedError{
				Opcode: protocol.CmdWriteMemory,
				Step:   "data ack",
				Err:    ErrNACK,
			},
			want: "write memory command (0x31) failed at data ack",
		},
		{
			name: "unsupported command",
			err:  &UnsupportedCommandError{Opcode: protocol.CmdExtendedErase},
			want: "extended erase command (0x44) not supported",
		},
		{
			name: "stale after reset",
			err:  &SessionStateError{State: StateResetPending},
			want: "stale after device reset",
		},
		{
			name: "not synced",
			err:  &SessionStateError{State: StateUnsynced},
			want: "not ready (state unsynced)",
		},
		{
			name: "cancellation unsafe",
			err: &CancellationUnsafeError{
				Opcode: protocol.CmdErase,
				Step:   "erase ack",
				Err:    context.Canceled,
			},
			want: "resync",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("Error() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	cmdErr := &CommandFailedError{
		Opcode: protocol.CmdReadMemory,
		Step:   "command ack",
		Err:    ErrNACK,
	}
	if !errors.Is(cmdErr, ErrNACK) {
		t.Error("CommandFailedError should unwrap to ErrNACK")
	}

	hsErr := &HandshakeError{Err: &ProtocolError{Timeout: true}}
	var protoErr *ProtocolError
	if !errors.As(hsErr, &protoErr) {
		t.Error("HandshakeError should unwrap to ProtocolError")
	}

	unsafeErr := &CancellationUnsafeError{
		Opcode: protocol.CmdGo,
		Step:   "address ack",
		Err:    context.Canceled,
	}
	if !errors.Is(unsafeErr, context.Canceled) {
		t.Error("CancellationUnsafeError should unwrap to context.Canceled")
	}
}
