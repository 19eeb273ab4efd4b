// Package cursor moves the terminal cursor and clears lines. Every call is
// flushed before it returns so the terminal reflects it immediately.
//
// The package keeps no position state: callers track which row they are on.
package cursor

import (
	"io"

	"optsel/internal/tty"
)

const (
	hideSeq = "\033[?25l"
	showSeq = "\033[?25h"

	// Raw mode turns off output post-processing, so "\n" alone would not
	// return to the first column.
	lineSeparator = "\r\n"
)

// ClearRestOfLine erases from the cursor to the end of the line.
func ClearRestOfLine(t tty.Terminal) error {
	return putsAndFlush(t, tty.ClearToEOL)
}

// NewLine moves to the first column of the next line, scrolling if needed.
func NewLine(t tty.Terminal) error {
	return writeAndFlush(t, lineSeparator)
}

// GoToFirstColumn moves to column 1 of the current line.
func GoToFirstColumn(t tty.Terminal) error {
	return putsAndFlush(t, tty.CarriageReturn)
}

// GoToColumn moves to col on the current line. The first column is 1.
func GoToColumn(t tty.Terminal, col int) error {
	if err := GoToFirstColumn(t); err != nil {
		return err
	}
	return putsAndFlush(t, tty.ColumnAddress, col-1)
}

// MoveUp moves the cursor to the previous line.
func MoveUp(t tty.Terminal) error {
	return putsAndFlush(t, tty.CursorUp)
}

// MoveUpN moves the cursor up n lines.
func MoveUpN(t tty.Terminal, n int) error {
	for i := 0; i < n; i++ {
		if err := MoveUp(t); err != nil {
			return err
		}
	}
	return nil
}

// GoDown moves the cursor to the next line.
func GoDown(t tty.Terminal) error {
	return putsAndFlush(t, tty.CursorDown)
}

// Hide makes the cursor invisible. Used around multi-line redraws.
func Hide(t tty.Terminal) error {
	return writeAndFlush(t, hideSeq)
}

func Show(t tty.Terminal) error {
	return writeAndFlush(t, showSeq)
}

func putsAndFlush(t tty.Terminal, c tty.Capability, args ...int) error {
	if err := t.Puts(c, args...); err != nil {
		return err
	}
	return t.Flush()
}

func writeAndFlush(t tty.Terminal, s string) error {
	if _, err := io.WriteString(t, s); err != nil {
		return err
	}
	return t.Flush()
}
