package bootloader

import (
	"context"
	"fmt"

	"github.com/bozokopic/stm32ctl/protocol"
)

// State is the session lifecycle state.
type State int

const (
	// StateUnsynced means no synchronization has been achieved, or a
	// mid-command cancellation left the device's parser undefined
	StateUnsynced State = iota

	// StateHandshaking means sync and capability negotiation are in
	// progress
	StateHandshaking

	// StateReady means the session accepts commands
	StateReady

	// StateResetPending means the last command triggers a device-side
	// reset; Resync is required before the next command
	StateResetPending
)

func (s State) String() string {
	switch s {
	case StateUnsynced:
		return "unsynced"
	case StateHandshaking:
		return "handshaking"
	case StateReady:
		return "ready"
	case StateResetPending:
		return "reset pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session drives the bootloader protocol over a Channel: handshake,
// capability discovery, then ordered command invocations. The protocol
// is strictly half-duplex, so a Session supports at most one in-flight
// command; callers sharing a Session across goroutines must serialize
// access themselves.
type Session struct {
	link   link
	config Config

	state      State
	commands   protocol.CommandSet
	version    protocol.Version
	protection *protocol.ProtectionStatus
}

// Open creates a Session on the channel and performs the handshake:
// the sync byte exchange (retried per configuration, the one exchange
// the protocol allows retrying) followed by the Get command that
// populates the capability set. Returns *HandshakeError if no sync is
// achieved.
//
// Example:
//
//	port, err := serialport.Open("/dev/ttyUSB0", 115200)
//	if err != nil { ... }
//	sess, err := bootloader.Open(ctx, port,
//	    bootloader.WithLogger(logger),
//	    bootloader.WithEraseTimeout(time.Minute),
//	)
func Open(ctx context.Context, ch Channel, opts ...Option) (*Session, error) {
	if ch == nil {
		panic("channel cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		link:   link{ch: ch},
		config: cfg,
		state:  StateUnsynced,
	}

	if err := s.handshake(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Resync re-runs the handshake and capability negotiation. Required
// after any command that triggers a device-side reset (Go and the
// protection toggles discard the bootloader state) and after a
// mid-command cancellation. The capability set and version are
// recreated from scratch.
func (s *Session) Resync(ctx context.Context) error {
	return s.handshake(ctx)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Version returns the bootloader version reported by Get.
func (s *Session) Version() protocol.Version {
	return s.version
}

// Commands returns the negotiated capability set.
func (s *Session) Commands() protocol.CommandSet {
	set := make(protocol.CommandSet, len(s.commands))
	for op, ok := range s.commands {
		set[op] = ok
	}
	return set
}

// ProtectionStatus returns the Get Version & Read Protection Status
// reply gathered during handshake, if WithProtectionStatus was set.
func (s *Session) ProtectionStatus() (protocol.ProtectionStatus, bool) {
	if s.protection == nil {
		return protocol.ProtectionStatus{}, false
	}
	return *s.protection, true
}

func (s *Session) handshake(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = StateHandshaking
	s.commands = nil
	s.version = 0
	s.protection = nil

	if !s.config.SkipSync {
		if err := s.sync(); err != nil {
			s.state = StateUnsynced
			return &HandshakeError{Err: err}
		}
	}

	if err := s.negotiate(ctx); err != nil {
		s.state = StateUnsynced
		return err
	}

	s.state = StateReady
	return nil
}

// sync sends the synchronization byte until the device acknowledges.
// A NACK or timeout here is retryable: the device specifies the sync
// exchange as repeatable until the auto-baud detection locks.
func (s *Session) sync() error {
	var err error
	for attempt := 0; attempt <= s.config.SyncRetries; attempt++ {
		s.logDebug("sending sync byte", "attempt", attempt+1)

		if err = s.link.sendSync(); err != nil {
			return err
		}

		err = s.link.waitAck(s.config.SyncTimeout)
		if err == nil {
			s.logDebug("device synchronized")
			return nil
		}
	}
	return err
}

// negotiate issues Get to learn the version and the supported opcode
// set, plus Get Version & Read Protection Status when configured.
func (s *Session) negotiate(ctx context.Context) error {
	const op = protocol.CmdGet

	s.logDebug("requesting supported commands")

	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return err
	}

	var head [2]byte // opcode count, version
	if err := s.link.readFull(head[:], s.config.AckTimeout); err != nil {
		return s.fail(op, "response header", err)
	}

	opcodes := make([]byte, head[0])
	if err := s.link.readFull(opcodes, s.config.AckTimeout); err != nil {
		return s.fail(op, "opcode list", err)
	}
	if err := s.link.waitAck(s.config.AckTimeout); err != nil {
		return s.fail(op, "final ack", err)
	}

	s.version = protocol.Version(head[1])
	s.commands = protocol.NewCommandSet(opcodes)

	s.logInfo("capabilities negotiated",
		"version", s.version.String(),
		"commands", s.commands.String(),
	)

	if !s.config.QueryProtection {
		return nil
	}

	// Negotiation is the one context where GetVersion runs outside
	// the Ready state, so it is issued directly.
	status, err := s.getVersion(ctx)
	if err != nil {
		return err
	}
	s.protection = &status
	return nil
}

// GetVersion issues the Get Version & Read Protection Status command.
func (s *Session) GetVersion(ctx context.Context) (protocol.ProtectionStatus, error) {
	if err := s.begin(ctx, protocol.CmdGetVersion); err != nil {
		return protocol.ProtectionStatus{}, err
	}
	return s.getVersion(ctx)
}

func (s *Session) getVersion(ctx context.Context) (protocol.ProtectionStatus, error) {
	const op = protocol.CmdGetVersion
	var status protocol.ProtectionStatus

	s.logDebug("requesting protection status")

	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return status, s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return status, err
	}

	var body [3]byte // version, two option bytes
	if err := s.link.readFull(body[:], s.config.AckTimeout); err != nil {
		return status, s.fail(op, "response body", err)
	}
	if err := s.link.waitAck(s.config.AckTimeout); err != nil {
		return status, s.fail(op, "final ack", err)
	}

	status.Version = protocol.Version(body[0])
	status.OptionBytes = [2]byte{body[1], body[2]}

	s.logDebug("protection status received",
		"version", status.Version.String(),
		"option_bytes", fmt.Sprintf("%02X %02X", body[1], body[2]),
	)
	return status, nil
}

// GetID issues the Get ID command and returns the chip product ID.
func (s *Session) GetID(ctx context.Context) (protocol.ChipID, error) {
	const op = protocol.CmdGetID

	if err := s.begin(ctx, op); err != nil {
		return 0, err
	}

	s.logDebug("requesting chip id")

	if err := s.link.sendCommand(op, s.config.AckTimeout); err != nil {
		return 0, s.fail(op, "command ack", err)
	}
	if err := s.checkpoint(ctx, op, "command ack"); err != nil {
		return 0, err
	}

	var count [1]byte
	if err := s.link.readFull(count[:], s.config.AckTimeout); err != nil {
		return 0, s.fail(op, "response header", err)
	}

	// The device sends count+1 ID bytes, big-endian.
	id := make([]byte, int(count[0])+1)
	if err := s.link.readFull(id, s.config.AckTimeout); err != nil {
		return 0, s.fail(op, "chip id", err)
	}
	if err := s.link.waitAck(s.config.AckTimeout); err != nil {
		return 0, s.fail(op, "final ack", err)
	}

	chipID, err := protocol.ParseChipID(id)
	if err != nil {
		return 0, s.fail(op, "chip id", err)
	}

	s.logDebug("chip id received", "chip_id", chipID.String())
	return chipID, nil
}

// begin gates a command: the session must be Ready, the opcode must
// be in the capability set, and the context must not be cancelled.
// Nothing reaches the channel when begin fails.
func (s *Session) begin(ctx context.Context, opcode byte) error {
	if s.state != StateReady {
		return &SessionStateError{State: s.state}
	}
	if !s.commands.Supports(opcode) {
		return &UnsupportedCommandError{Opcode: opcode}
	}
	// Cancellation is only honored before the first byte is sent.
	return ctx.Err()
}

// checkpoint observes the context between command steps. Cancellation
// here cannot abort the device-side operation, so the session is
// forced to Unsynced and the caller gets CancellationUnsafeError.
func (s *Session) checkpoint(ctx context.Context, opcode byte, step string) error {
	if err := ctx.Err(); err != nil {
		s.state = StateUnsynced
		return &CancellationUnsafeError{Opcode: opcode, Step: step, Err: err}
	}
	return nil
}

// fail wraps a step failure. The session stays in its current state:
// a NACKed command leaves the device's parser at the command boundary
// and a fresh command may be attempted.
func (s *Session) fail(opcode byte, step string, err error) error {
	s.logError("command failed",
		"command", protocol.CommandName(opcode),
		"step", step,
		"error", err,
	)
	return &CommandFailedError{Opcode: opcode, Step: step, Err: err}
}

func (s *Session) reportProgress(done, total int) {
	if s.config.ProgressCallback != nil {
		s.config.ProgressCallback(done, total)
	}
}

func (s *Session) logDebug(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (s *Session) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

func (s *Session) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
