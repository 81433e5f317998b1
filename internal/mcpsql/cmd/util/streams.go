package util

import (
	"io"
	"os"

	"github.com/moby/term"
)

// IOStreams are the standard streams a command reads from and writes to.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// IsInteractive reports whether In is a terminal.
func (s IOStreams) IsInteractive() bool {
	_, isTerm := term.GetFdInfo(s.In)
	return isTerm
}

// TerminalWidth returns the width of Out, or fallback when Out is not a
// terminal.
func (s IOStreams) TerminalWidth(fallback uint) uint {
	fd, isTerm := term.GetFdInfo(s.Out)
	if !isTerm {
		return fallback
	}
	ws, err := term.GetWinsize(fd)
	if err != nil || ws.Width == 0 {
		return fallback
	}
	return uint(ws.Width)
}

// StdStreams returns the process streams.
func StdStreams() IOStreams {
	return IOStreams{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}
}
