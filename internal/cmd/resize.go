package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"hydra/internal/app"
)

// terminalSize reads stdout's current size.
func terminalSize(f *os.File) (cols, rows int, err error) {
	cols, rows, err = term.GetSize(int(f.Fd()))
	return cols, rows, err
}

// watchResize installs a SIGWINCH handler that feeds the app controller
// new dimensions whenever the host terminal is resized.
func watchResize(a *app.App, f *os.File) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	go func() {
		for range sigCh {
			cols, rows, err := terminalSize(f)
			if err != nil || rows < 4 {
				continue
			}
			a.Resize(cols, rows)
		}
	}()
}
