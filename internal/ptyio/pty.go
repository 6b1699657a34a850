// Package ptyio is a thin PTY adapter: spawn, write, resize, kill, with
// on_data/on_exit callbacks. A session manager owns many of these
// concurrently, one per running session.
package ptyio

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/creack/pty"
)

// PTY owns one spawned child process's pseudo-terminal.
type PTY struct {
	Ptm *os.File
	Cmd *exec.Cmd

	mu      sync.Mutex
	exited  bool
	onData  func([]byte)
	onExit  func(error)
}

// Start spawns command/args in a new PTY sized cols x rows. extraEnv
// entries override the inherited environment ("inherits
// parent environment plus TERM=xterm-256color, COLORTERM=truecolor").
func Start(command string, args []string, cols, rows int, dir string, extraEnv map[string]string) (*PTY, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		env := make([]string, 0, len(os.Environ())+len(extraEnv))
		for _, e := range os.Environ() {
			key := e
			if idx := strings.IndexByte(e, '='); idx >= 0 {
				key = e[:idx]
			}
			if _, overridden := extraEnv[key]; !overridden {
				env = append(env, e)
			}
		}
		for k, v := range extraEnv {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("start pty command %q: %w", command, err)
	}
	return &PTY{Ptm: ptm, Cmd: cmd}, nil
}

// OnData registers the callback invoked with each chunk read from the PTY.
func (p *PTY) OnData(fn func([]byte)) {
	p.mu.Lock()
	p.onData = fn
	p.mu.Unlock()
}

// OnExit registers the callback invoked once when the child exits.
func (p *PTY) OnExit(fn func(error)) {
	p.mu.Lock()
	p.onExit = fn
	p.mu.Unlock()
}

// Pump reads PTY output in a loop, invoking the on_data callback for each
// chunk and on_exit when the read loop ends. Intended to run in its own
// goroutine; it never touches session/store state directly, only calls
// back into the owner .
func (p *PTY) Pump() {
	buf := make([]byte, 4096)
	for {
		n, err := p.Ptm.Read(buf)
		if n > 0 {
			p.mu.Lock()
			onData := p.onData
			p.mu.Unlock()
			if onData != nil {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				onData(chunk)
			}
		}
		if err != nil {
			break
		}
	}

	p.mu.Lock()
	if p.exited {
		p.mu.Unlock()
		return
	}
	p.exited = true
	onExit := p.onExit
	p.mu.Unlock()

	var exitErr error
	if p.Cmd != nil {
		exitErr = p.Cmd.Wait()
	}
	if onExit != nil {
		onExit(exitErr)
	}
}

// Write sends bytes to the child's stdin (via the PTY master).
func (p *PTY) Write(b []byte) (int, error) {
	return p.Ptm.Write(b)
}

// Resize updates the PTY window size.
func (p *PTY) Resize(cols, rows int) error {
	return pty.Setsize(p.Ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Kill sends SIGKILL to the child, best-effort.
func (p *PTY) Kill() {
	if p.Cmd != nil && p.Cmd.Process != nil {
		p.Cmd.Process.Kill()
	}
}

// Close closes the PTY master file descriptor.
func (p *PTY) Close() error {
	return p.Ptm.Close()
}

// ExitCode extracts a process exit code from an error returned by Wait, or
// -1 if it cannot be determined (e.g. killed by signal).
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}
