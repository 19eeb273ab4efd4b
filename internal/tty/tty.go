// Package tty is the terminal primitive the picker draws on: raw mode,
// single-byte reads and named output capabilities.
package tty

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xo/terminfo"
	"golang.org/x/term"
)

// ErrTimeout is returned by ReadByteTimeout when no byte arrived in time.
var ErrTimeout = errors.New("read timed out")

// Capability names a terminal output capability resolved per terminal type.
type Capability int

const (
	ClearToEOL Capability = iota // el
	CursorUp                     // cuu1
	CarriageReturn               // cr
	ColumnAddress                // hpa, takes a 0-based column
	CursorDown                   // cud1
)

func (c Capability) String() string {
	switch c {
	case ClearToEOL:
		return "el"
	case CursorUp:
		return "cuu1"
	case CarriageReturn:
		return "cr"
	case ColumnAddress:
		return "hpa"
	case CursorDown:
		return "cud1"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// Terminal is the narrow set of operations the picker needs from a terminal.
type Terminal interface {
	// EnterRaw switches the terminal to raw mode, remembering the previous mode.
	EnterRaw() error
	// Restore puts back the mode saved by EnterRaw. Calling it again is a no-op.
	Restore() error
	// ReadByte blocks until one byte of input is available.
	ReadByte() (byte, error)
	// ReadByteTimeout is ReadByte bounded by d. It returns ErrTimeout when
	// nothing arrived. Terminals without deadline support block instead.
	ReadByteTimeout(d time.Duration) (byte, error)
	Write(p []byte) (int, error)
	// Puts emits the control sequence for a named capability.
	Puts(c Capability, args ...int) error
	Flush() error
	// Width is the number of columns, or 0 when unknown.
	Width() int
}

// TTY is a Terminal backed by a file descriptor, normally /dev/tty.
type TTY struct {
	in    *os.File
	out   *os.File
	w     *bufio.Writer
	info  *terminfo.Terminfo
	state *term.State
	owned bool
	buf   [1]byte
}

// DevicePath is the controlling terminal of the process.
const DevicePath = "/dev/tty"

// OpenDevice opens the controlling terminal for reading and writing. The
// caller owns the returned file.
func OpenDevice() (*os.File, error) {
	f, err := os.OpenFile(DevicePath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	return f, nil
}

// Open opens the controlling terminal as a TTY. Close releases it.
func Open() (*TTY, error) {
	f, err := OpenDevice()
	if err != nil {
		return nil, err
	}
	t := New(f, f)
	t.owned = true
	return t, nil
}

// New wraps an input and an output file. Capabilities are looked up in the
// terminfo entry named by $TERM; missing entries fall back to ANSI sequences.
func New(in, out *os.File) *TTY {
	t := &TTY{
		in:  in,
		out: out,
		w:   bufio.NewWriter(out),
	}
	if info, err := terminfo.LoadFromEnv(); err == nil {
		t.info = info
	}
	return t
}

// IsTerminal reports whether f refers to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (t *TTY) EnterRaw() error {
	if t.state != nil {
		return nil
	}
	state, err := term.MakeRaw(int(t.in.Fd()))
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	t.state = state
	return nil
}

func (t *TTY) Restore() error {
	if t.state == nil {
		return nil
	}
	state := t.state
	t.state = nil
	if err := term.Restore(int(t.in.Fd()), state); err != nil {
		return fmt.Errorf("failed to restore terminal: %w", err)
	}
	return nil
}

func (t *TTY) ReadByte() (byte, error) {
	for {
		n, err := t.in.Read(t.buf[:])
		if n == 1 {
			return t.buf[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func (t *TTY) ReadByteTimeout(d time.Duration) (byte, error) {
	if d <= 0 {
		return t.ReadByte()
	}
	if err := t.in.SetReadDeadline(time.Now().Add(d)); err != nil {
		// Not pollable (e.g. an inherited blocking stdin).
		return t.ReadByte()
	}
	defer t.in.SetReadDeadline(time.Time{})

	b, err := t.ReadByte()
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return 0, ErrTimeout
	}
	return b, err
}

func (t *TTY) Write(p []byte) (int, error) {
	return t.w.Write(p)
}

func (t *TTY) Puts(c Capability, args ...int) error {
	_, err := io.WriteString(t.w, t.sequence(c, args))
	return err
}

func (t *TTY) Flush() error {
	return t.w.Flush()
}

func (t *TTY) Width() int {
	w, _, err := term.GetSize(int(t.out.Fd()))
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

// Close restores the terminal and closes the device if Open created it.
func (t *TTY) Close() error {
	err := t.Restore()
	if t.owned {
		if cerr := t.in.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var terminfoCaps = map[Capability]int{
	ClearToEOL:     terminfo.ClrEol,
	CursorUp:       terminfo.CursorUp,
	CarriageReturn: terminfo.CarriageReturn,
	ColumnAddress:  terminfo.ColumnAddress,
	CursorDown:     terminfo.CursorDown,
}

func (t *TTY) sequence(c Capability, args []int) string {
	if t.info != nil {
		if idx, ok := terminfoCaps[c]; ok {
			if _, ok := t.info.Strings[idx]; ok {
				params := make([]interface{}, len(args))
				for i, a := range args {
					params[i] = a
				}
				return t.info.Printf(idx, params...)
			}
		}
	}
	return ANSISequence(c, args...)
}

// ANSISequence returns the VT100/xterm sequence for c. It is used when the
// terminal type has no terminfo entry.
func ANSISequence(c Capability, args ...int) string {
	switch c {
	case ClearToEOL:
		return "\033[K"
	case CursorUp:
		return "\033[A"
	case CarriageReturn:
		return "\r"
	case ColumnAddress:
		col := 0
		if len(args) > 0 {
			col = args[0]
		}
		return fmt.Sprintf("\033[%dG", col+1)
	case CursorDown:
		return "\n"
	default:
		return ""
	}
}
