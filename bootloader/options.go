package bootloader

import (
	"time"

	"github.com/bozokopic/stm32ctl/protocol"
)

// Config holds the session configuration.
type Config struct {
	// AckTimeout bounds ordinary acknowledgment and data reads
	AckTimeout time.Duration

	// SyncTimeout bounds the sync byte's acknowledgment; generous
	// because the device may be slow right after reset
	SyncTimeout time.Duration

	// EraseTimeout bounds the final acknowledgment of erase and
	// readout-unprotect, which legitimately take many seconds
	EraseTimeout time.Duration

	// SyncRetries is the number of additional sync byte attempts.
	// Synchronization is the only exchange the protocol allows
	// retrying; commands are never retried.
	SyncRetries int

	// SkipSync suppresses the sync byte exchange for lines that are
	// already synchronized
	SkipSync bool

	// ChunkSize is the per-command transfer size for chunked memory
	// operations; a multiple of 4 between 4 and 256
	ChunkSize int

	// QueryProtection additionally issues Get Version & Read
	// Protection Status during handshake
	QueryProtection bool

	// ProgressCallback is called during chunked transfers (optional)
	ProgressCallback ProgressFunc

	// Logger is used for logging operations (optional)
	Logger Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		AckTimeout:   time.Second,
		SyncTimeout:  2 * time.Second,
		EraseTimeout: 30 * time.Second,
		SyncRetries:  2,
		ChunkSize:    protocol.MaxTransferSize,
	}
}

// Option is a functional option for configuring the Session.
type Option func(*Config)

// WithAckTimeout sets the timeout for ordinary acknowledgment and
// data reads.
func WithAckTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.AckTimeout = timeout
		}
	}
}

// WithSyncTimeout sets the timeout for the sync byte acknowledgment.
func WithSyncTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.SyncTimeout = timeout
		}
	}
}

// WithEraseTimeout sets the timeout for the final acknowledgment of
// erase and readout-unprotect commands.
func WithEraseTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.EraseTimeout = timeout
		}
	}
}

// WithSyncRetries sets how many times the sync byte is re-sent after
// a NACK or timeout before the handshake fails.
func WithSyncRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.SyncRetries = retries
		}
	}
}

// WithSkipSync suppresses the sync byte exchange. Useful when the
// line was already synchronized by a previous session.
func WithSkipSync() Option {
	return func(c *Config) {
		c.SkipSync = true
	}
}

// WithChunkSize sets the per-command transfer size for chunked memory
// operations. Must be a multiple of 4 between 4 and 256; other values
// are ignored.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size >= protocol.WriteAlignment &&
			size <= protocol.MaxTransferSize &&
			size%protocol.WriteAlignment == 0 {
			c.ChunkSize = size
		}
	}
}

// WithProtectionStatus additionally issues the Get Version & Read
// Protection Status command during handshake; the result is available
// via Session.ProtectionStatus.
func WithProtectionStatus() Option {
	return func(c *Config) {
		c.QueryProtection = true
	}
}

// WithProgressCallback sets a callback reporting chunked transfer
// progress.
func WithProgressCallback(callback ProgressFunc) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for session operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
