package bootloader

// ProgressFunc is called during chunked memory transfers with the
// number of bytes completed so far and the total transfer size.
// It is invoked once with done == 0 before the first chunk and once
// after every completed chunk. Implementations should return quickly;
// the transfer blocks while the callback runs.
//
// Example:
//
//	sess, err := bootloader.Open(ctx, port,
//	    bootloader.WithProgressCallback(func(done, total int) {
//	        fmt.Fprintf(os.Stderr, "\r%d/%d bytes", done, total)
//	    }),
//	)
type ProgressFunc func(done, total int)

// Logger is an optional logging interface. This allows integration
// with any logging framework; cmd/stm32ctl binds it to logrus.
//
// Example with the standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	sess, err := bootloader.Open(ctx, port, bootloader.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
