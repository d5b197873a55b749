package bootloader

import (
	"bytes"
	"context"
	"testing"

	"github.com/bozokopic/stm32ctl/protocol"
)

func TestWriteProtect(t *testing.T) {
	sess, ch := openTestSession(t, allOpcodes())
	wireLen := ch.writes.Len()

	ch.queue(protocol.Ack)
	ch.queue(protocol.Ack)

	if err := sess.WriteProtect(context.Background(), []byte{0x00, 0x01}); err != nil {
		t.Fatalf("WriteProtect failed: %v", err)
	}

	want := []byte{
		0x63, 0x9C,
		0x01, 0x00, 0x01, 0x00, // count-1, sectors, checksum
	}
	if got := ch.writes.Bytes()[wireLen:]; !bytes.Equal(got, want) {
		t.Errorf("wire bytes = % X, want % X", got, want)
	}
	if got := sess.State(); got != StateResetPending {
		t.Errorf("state = %s, want %s", got, StateResetPending)
	}
}

func TestProtectionToggles(t *testing.T) {
	tests := []struct {
		name string
		call func(*Session, context.Context) error
		want []byte
	}{
		{
			name: "write unprotect",
			call: (*Session).WriteUnprotect,
			want: []byte{0x73, 0x8C},
		},
		{
			name: "readout protect",
			call: (*Session).ReadoutProtect,
			want: []byte{0x82, 0x7D},
		},
		{
			name: "readout unprotect",
			call: (*Session).ReadoutUnprotect,
			want: []byte{0x92, 0x6D},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, ch := openTestSession(t, allOpcodes())
			wireLen := ch.writes.Len()

			ch.queue(protocol.Ack) // command ack
			ch.queue(protocol.Ack) // completion ack

			if err := tt.call(sess, context.Background()); err != nil {
				t.Fatalf("command failed: %v", err)
			}

			if got := ch.writes.Bytes()[wireLen:]; !bytes.Equal(got, tt.want) {
				t.Errorf("wire bytes = % X, want % X", got, tt.want)
			}

			// All protection changes trigger a device reset.
			if got := sess.State(); got != StateResetPending {
				t.Errorf("state = %s, want %s", got, StateResetPending)
			}
		})
	}
}

func TestSpecial(t *testing.T) {
	sess, ch := openTestSession(t, allOpcodes())
	wireLen := ch.writes.Len()

	ch.queue(protocol.Ack)       // command ack
	ch.queue(protocol.Ack)       // sub-command ack
	ch.queue(protocol.Ack)       // payload ack
	ch.queue(0x00, 0x02)         // data block size
	ch.queue(0xAB, 0xCD)         // data block
	ch.queue(0x00, 0x01)         // status block size
	ch.queue(0x00)               // status block
	ch.queue(protocol.Ack)       // final ack

	result, err := sess.Special(context.Background(), 0x0054, nil)
	if err != nil {
		t.Fatalf("Special failed: %v", err)
	}

	if !bytes.Equal(result.Data, []byte{0xAB, 0xCD}) {
		t.Errorf("data = % X, want AB CD", result.Data)
	}
	if !bytes.Equal(result.Status, []byte{0x00}) {
		t.Errorf("status = % X, want 00", result.Status)
	}

	want := []byte{
		0x50, 0xAF,
		0x00, 0x54, 0x54, // sub-command with checksum
		0x00, 0x00, 0x00, // empty payload with checksum
	}
	if got := ch.writes.Bytes()[wireLen:]; !bytes.Equal(got, want) {
		t.Errorf("wire bytes = % X, want % X", got, want)
	}
}

func TestExtendedSpecial(t *testing.T) {
	sess, ch := openTestSession(t, allOpcodes())
	wireLen := ch.writes.Len()

	ch.queue(protocol.Ack) // command ack
	ch.queue(protocol.Ack) // sub-command ack
	ch.queue(protocol.Ack) // first payload ack
	ch.queue(protocol.Ack) // second payload ack
	ch.queue(0x00, 0x00)   // empty response block
	ch.queue(protocol.Ack) // final ack

	data, err := sess.ExtendedSpecial(context.Background(), 0x0101, []byte{0x5A}, nil)
	if err != nil {
		t.Fatalf("ExtendedSpecial failed: %v", err)
	}
	if data != nil {
		t.Errorf("data = % X, want empty", data)
	}

	want := []byte{
		0x51, 0xAE,
		0x01, 0x01, 0x00, // sub-command with checksum
		0x00, 0x01, 0x5A, 0x5B, // first payload
		0x00, 0x00, 0x00, // empty second payload
	}
	if got := ch.writes.Bytes()[wireLen:]; !bytes.Equal(got, want) {
		t.Errorf("wire bytes = % X, want % X", got, want)
	}
}
