package main

import (
	"errors"
	"io"
	"os"

	"optsel/internal/console"
	"optsel/internal/tty"
)

// version is set at build time.
var version = "0.1.0"

// errDeclined ends the run with status 1 and no message.
var errDeclined = errors.New("selection declined")

// app carries the process streams so commands can run against pipes and
// pseudo-terminals in tests.
type app struct {
	stdin   *os.File
	stdout  io.Writer
	stderr  io.Writer
	openTTY func() (*os.File, error)
}

// messages reports errors and warnings on stderr so stdout only ever carries
// the selection.
func (a *app) messages() *console.Console {
	return console.New(a.stdin, a.stderr, a.stderr)
}

func main() {
	a := &app{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		openTTY: tty.OpenDevice,
	}
	os.Exit(run(a, os.Args[1:]))
}

func run(a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)

	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errDeclined):
		return 1
	default:
		a.messages().Error(err.Error())
		return 1
	}
}
