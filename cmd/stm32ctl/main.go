// Command stm32ctl controls the STM32 system bootloader over a
// serial port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/bozokopic/stm32ctl/bootloader"
	"github.com/bozokopic/stm32ctl/serialport"
)

const usage = `Usage:
  stm32ctl [global options] <action> [action options]

STM32 system bootloader control

Actions:
  info        show device information
  read        read binary data
  write       write binary data
  erase       erase flash memory
  execute     start application execution
  protection  change read/write protection

Global options:
  -port PORT     serial port (default /dev/ttyUSB0)
  -baudrate N    serial baudrate (default 115200)
  -skip-init     skip communication initialization
  -log LEVEL     enable logging (debug|info|warning|error)

Read options:
  -address ADDR  starting address (default 0x08000000)
  -size N        number of bytes (default 65536)
  -path PATH     output file path or '-' for stdout (default '-')
  -progress      show progress

Write options:
  -address ADDR  starting address (default 0x08000000)
  -path PATH     input file path or '-' for stdin (default '-')
  -progress      show progress

Erase options:
  -pages N|N1-N2,...
                 erase listed pages (or page ranges) instead of all
                 flash memory

Execute options:
  -address ADDR  starting address (default 0x08000000)

Protection options:
  -protect-read     enable readout protection
  -unprotect-read   disable readout protection (mass erases flash)
  -protect-write    enable write protection for -sectors
  -unprotect-write  disable write protection
  -sectors N,...    sector list for -protect-write
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "stm32ctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("stm32ctl", flag.ExitOnError)
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	port := global.String("port", "/dev/ttyUSB0", "serial port")
	baudrate := global.Int("baudrate", 115200, "serial baudrate")
	skipInit := global.Bool("skip-init", false, "skip communication initialization")
	logLevel := global.String("log", "", "enable logging with minimal level")

	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing action")
	}

	action, actionArgs := global.Arg(0), global.Args()[1:]

	opts := []bootloader.Option{}
	if *skipInit {
		opts = append(opts, bootloader.WithSkipSync())
	}
	if *logLevel != "" {
		logger, err := newLogger(*logLevel)
		if err != nil {
			return err
		}
		opts = append(opts, bootloader.WithLogger(logger))
	}

	ctx := context.Background()

	switch action {
	case "info":
		return actInfo(ctx, *port, *baudrate, opts)
	case "read":
		return actRead(ctx, *port, *baudrate, opts, actionArgs)
	case "write":
		return actWrite(ctx, *port, *baudrate, opts, actionArgs)
	case "erase":
		return actErase(ctx, *port, *baudrate, opts, actionArgs)
	case "execute":
		return actExecute(ctx, *port, *baudrate, opts, actionArgs)
	case "protection":
		return actProtection(ctx, *port, *baudrate, opts, actionArgs)
	default:
		global.Usage()
		return fmt.Errorf("unsupported action %q", action)
	}
}

func openSession(ctx context.Context, port string, baudrate int, opts []bootloader.Option) (*bootloader.Session, func(), error) {
	ch, err := serialport.Open(port, baudrate)
	if err != nil {
		return nil, nil, err
	}

	sess, err := bootloader.Open(ctx, ch, opts...)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	return sess, func() { ch.Close() }, nil
}

func actInfo(ctx context.Context, port string, baudrate int, opts []bootloader.Option) error {
	sess, closeFn, err := openSession(ctx, port, baudrate, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	info, err := sess.Info(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("version: %s\n", info.Version)
	fmt.Printf("chip id: %s\n", info.ChipID)
	fmt.Printf("device id: % x\n", info.DeviceID)
	fmt.Printf("flash size: %dK\n", info.FlashSize/1024)
	return nil
}

func actRead(ctx context.Context, port string, baudrate int, opts []bootloader.Option, args []string) error {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	address := fs.String("address", "0x08000000", "starting address")
	size := fs.Int("size", 64*1024, "number of bytes")
	path := fs.String("path", "-", "output file path or '-' for stdout")
	progress := fs.Bool("progress", false, "show progress")
	if err := fs.Parse(args); err != nil {
		return err
	}

	addr, err := parseAddress(*address)
	if err != nil {
		return err
	}

	if *progress {
		opts = append(opts, bootloader.WithProgressCallback(progressPrinter("reading")))
	}

	sess, closeFn, err := openSession(ctx, port, baudrate, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	data, err := sess.ReadMemory(ctx, addr, *size)
	if *progress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	if *path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(*path, data, 0o644)
}

func actWrite(ctx context.Context, port string, baudrate int, opts []bootloader.Option, args []string) error {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	address := fs.String("address", "0x08000000", "starting address")
	path := fs.String("path", "-", "input file path or '-' for stdin")
	progress := fs.Bool("progress", false, "show progress")
	if err := fs.Parse(args); err != nil {
		return err
	}

	addr, err := parseAddress(*address)
	if err != nil {
		return err
	}

	var data []byte
	if *path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(*path)
	}
	if err != nil {
		return err
	}

	if *progress {
		opts = append(opts, bootloader.WithProgressCallback(progressPrinter("writing")))
	}

	sess, closeFn, err := openSession(ctx, port, baudrate, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	err = sess.WriteMemory(ctx, addr, data)
	if *progress {
		fmt.Fprintln(os.Stderr)
	}
	return err
}

func actErase(ctx context.Context, port string, baudrate int, opts []bootloader.Option, args []string) error {
	fs := flag.NewFlagSet("erase", flag.ExitOnError)
	pagesArg := fs.String("pages", "", "pages (or page ranges) to erase instead of all memory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var pages []uint16
	if *pagesArg != "" {
		var err error
		if pages, err = parsePages(*pagesArg); err != nil {
			return err
		}
	}

	sess, closeFn, err := openSession(ctx, port, baudrate, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	if pages == nil {
		return sess.MassErase(ctx)
	}
	return sess.Erase(ctx, pages)
}

func actExecute(ctx context.Context, port string, baudrate int, opts []bootloader.Option, args []string) error {
	fs := flag.NewFlagSet("execute", flag.ExitOnError)
	address := fs.String("address", "0x08000000", "starting address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	addr, err := parseAddress(*address)
	if err != nil {
		return err
	}

	sess, closeFn, err := openSession(ctx, port, baudrate, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	return sess.Go(ctx, addr)
}

func actProtection(ctx context.Context, port string, baudrate int, opts []bootloader.Option, args []string) error {
	fs := flag.NewFlagSet("protection", flag.ExitOnError)
	protectRead := fs.Bool("protect-read", false, "enable readout protection")
	unprotectRead := fs.Bool("unprotect-read", false, "disable readout protection")
	protectWrite := fs.Bool("protect-write", false, "enable write protection")
	unprotectWrite := fs.Bool("unprotect-write", false, "disable write protection")
	sectorsArg := fs.String("sectors", "", "sector list for -protect-write")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, closeFn, err := openSession(ctx, port, baudrate, opts)
	if err != nil {
		return err
	}
	defer closeFn()

	switch {
	case *protectRead:
		return sess.ReadoutProtect(ctx)
	case *unprotectRead:
		return sess.ReadoutUnprotect(ctx)
	case *protectWrite:
		sectors, err := parseSectors(*sectorsArg)
		if err != nil {
			return err
		}
		return sess.WriteProtect(ctx, sectors)
	case *unprotectWrite:
		return sess.WriteUnprotect(ctx)
	default:
		return errors.New("no protection change requested")
	}
}

func newLogger(level string) (bootloader.Logger, error) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(parsed)
	log.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return &logrusLogger{log: log}, nil
}

// logrusLogger adapts logrus to the bootloader.Logger interface.
type logrusLogger struct {
	log *logrus.Logger
}

func (l *logrusLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Info(msg)
}

func (l *logrusLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		f[key] = keysAndValues[i+1]
	}
	return f
}

func progressPrinter(verb string) bootloader.ProgressFunc {
	return func(done, total int) {
		fmt.Fprintf(os.Stderr, "\r%s: %d/%d bytes", verb, done, total)
	}
}

func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(v), nil
}

// parsePages parses "N" and "N1-N2" items separated by commas.
func parsePages(s string) ([]uint16, error) {
	var pages []uint16
	for _, item := range strings.Split(s, ",") {
		lo, hi, found := strings.Cut(item, "-")
		first, err := strconv.ParseUint(strings.TrimSpace(lo), 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", item)
		}

		last := first
		if found {
			if last, err = strconv.ParseUint(strings.TrimSpace(hi), 0, 16); err != nil || last < first {
				return nil, fmt.Errorf("invalid page range %q", item)
			}
		}

		for page := first; page <= last; page++ {
			pages = append(pages, uint16(page))
		}
	}
	if len(pages) == 0 {
		return nil, errors.New("empty page list")
	}
	return pages, nil
}

func parseSectors(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("-protect-write requires -sectors")
	}

	var sectors []byte
	for _, item := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(item), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid sector %q", item)
		}
		sectors = append(sectors, byte(v))
	}
	return sectors, nil
}
