package input

import (
	"os"

	"golang.org/x/term"
)

// RawMode holds the previous terminal state for restoration.
type RawMode struct {
	fd       int
	oldState *term.State
}

// EnableRawMode puts stdin into raw mode.
func EnableRawMode(f *os.File) (*RawMode, error) {
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &RawMode{fd: fd, oldState: oldState}, nil
}

// Restore reverts stdin to its state before EnableRawMode was called.
func (r *RawMode) Restore() error {
	if r == nil || r.oldState == nil {
		return nil
	}
	return term.Restore(r.fd, r.oldState)
}
