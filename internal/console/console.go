// Package console prints errors and warnings and asks yes/no questions.
//
// A Console owns its input reader. It is never shared with the raw-mode
// keystroke reader of a picker session.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Console writes messages to out and errOut and reads answers from in.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

// New returns a Console reading answers from in.
func New(in io.Reader, out, errOut io.Writer) *Console {
	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}
}

// Error prints message framed by blank lines on the error stream.
func (c *Console) Error(message string) {
	fmt.Fprintf(c.errOut, "\n[Error] %s\n\n", message)
}

// Warning prints message framed by blank lines on the output stream.
func (c *Console) Warning(message string) {
	fmt.Fprintf(c.out, "\n[Warning] %s\n\n", message)
}

// Confirm prints the question followed by "(y/N): " and reads one line.
// Only "y" (any case, surrounding blanks ignored) counts as yes. End of
// input before an answer counts as no.
func (c *Console) Confirm(format string, args ...any) (bool, error) {
	if _, err := fmt.Fprintf(c.out, "%s (y/N): ", fmt.Sprintf(format, args...)); err != nil {
		return false, fmt.Errorf("failed to write question: %w", err)
	}

	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	return strings.ToLower(strings.TrimSpace(line)) == "y", nil
}
