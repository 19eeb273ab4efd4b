// Package ttytest provides an in-memory tty.Terminal for tests.
package ttytest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"optsel/internal/tty"
)

// Terminal records everything written to it and replays scripted input.
//
// Input is a list of bursts. Bytes inside one burst arrive together, so
// ReadByteTimeout only times out at a burst boundary. Capabilities are
// recorded as tokens such as "<el>", "<cuu1>" or "<hpa:3>".
type Terminal struct {
	Input [][]byte
	Cols  int

	// Injected failures.
	EnterErr error
	WriteErr error
	ReadErr  error

	Raw          bool
	EnterCount   int
	RestoreCount int
	Flushes      int

	burst   int
	pos     int
	pending strings.Builder
	flushed strings.Builder
	row     int
	maxRow  int
}

var _ tty.Terminal = (*Terminal)(nil)

// New returns a Terminal that will deliver each burst in order.
func New(bursts ...string) *Terminal {
	t := &Terminal{}
	for _, b := range bursts {
		t.Input = append(t.Input, []byte(b))
	}
	return t
}

func (t *Terminal) EnterRaw() error {
	if t.EnterErr != nil {
		return t.EnterErr
	}
	t.EnterCount++
	t.Raw = true
	return nil
}

func (t *Terminal) Restore() error {
	if t.Raw {
		t.RestoreCount++
	}
	t.Raw = false
	return nil
}

func (t *Terminal) ReadByte() (byte, error) {
	if t.ReadErr != nil {
		return 0, t.ReadErr
	}
	for t.burst < len(t.Input) && t.pos >= len(t.Input[t.burst]) {
		t.burst++
		t.pos = 0
	}
	if t.burst >= len(t.Input) {
		return 0, io.EOF
	}
	b := t.Input[t.burst][t.pos]
	t.pos++
	return b, nil
}

func (t *Terminal) ReadByteTimeout(d time.Duration) (byte, error) {
	if t.ReadErr != nil {
		return 0, t.ReadErr
	}
	if t.burst < len(t.Input) && t.pos >= len(t.Input[t.burst]) {
		t.burst++
		t.pos = 0
		return 0, tty.ErrTimeout
	}
	return t.ReadByte()
}

func (t *Terminal) Write(p []byte) (int, error) {
	if t.WriteErr != nil {
		return 0, t.WriteErr
	}
	for _, b := range p {
		if b == '\n' {
			t.down()
		}
	}
	t.pending.Write(p)
	return len(p), nil
}

func (t *Terminal) Puts(c tty.Capability, args ...int) error {
	if t.WriteErr != nil {
		return t.WriteErr
	}
	switch c {
	case tty.CursorUp:
		t.row--
	case tty.CursorDown:
		t.down()
	}
	if c == tty.ColumnAddress && len(args) > 0 {
		fmt.Fprintf(&t.pending, "<%s:%d>", c, args[0])
	} else {
		fmt.Fprintf(&t.pending, "<%s>", c)
	}
	return nil
}

func (t *Terminal) Flush() error {
	if t.WriteErr != nil {
		return t.WriteErr
	}
	t.Flushes++
	t.flushed.WriteString(t.pending.String())
	t.pending.Reset()
	return nil
}

func (t *Terminal) Width() int {
	return t.Cols
}

func (t *Terminal) down() {
	t.row++
	if t.row > t.maxRow {
		t.maxRow = t.row
	}
}

// Output returns everything flushed so far.
func (t *Terminal) Output() string {
	return t.flushed.String()
}

// Pending returns what was written but not yet flushed.
func (t *Terminal) Pending() string {
	return t.pending.String()
}

// Reset forgets the recorded output but keeps the cursor row.
func (t *Terminal) Reset() {
	t.flushed.Reset()
	t.pending.Reset()
}

// Row is the cursor row relative to where the terminal started.
func (t *Terminal) Row() int {
	return t.row
}

// MaxRow is the lowest row the cursor has reached.
func (t *Terminal) MaxRow() int {
	return t.maxRow
}

// Remaining reports how many scripted bytes have not been read.
func (t *Terminal) Remaining() int {
	n := 0
	for i := t.burst; i < len(t.Input); i++ {
		if i == t.burst {
			n += len(t.Input[i]) - t.pos
		} else {
			n += len(t.Input[i])
		}
	}
	return n
}
