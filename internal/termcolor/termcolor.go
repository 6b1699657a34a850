// Package termcolor picks the chrome's SGR color scheme from the host
// terminal's background, using github.com/muesli/termenv's OSC 10/11
// query (with its COLORFGBG/no-tty fallback) to tell dark from light:
// dark backgrounds get bold white on blue for the active tab; light
// backgrounds get bold black on bright blue so the highlight doesn't
// wash out on a white terminal.
package termcolor

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Scheme holds the SGR parameter lists chrome.go uses for each tab state.
type Scheme struct {
	Active   []string
	Exited   []string
	Inactive []string
}

// Dark is the scheme used on dark-background terminals (the common case).
var Dark = Scheme{Active: []string{"1", "37", "44"}, Exited: []string{"31"}, Inactive: []string{"90"}}

// Light is the scheme used on light-background terminals.
var Light = Scheme{Active: []string{"1", "30", "104"}, Exited: []string{"31"}, Inactive: []string{"37"}}

// Detect queries the host terminal's background color via termenv and
// returns the matching scheme. If stdout is not a terminal, it returns
// Dark without querying (termenv's OSC query would otherwise block
// waiting on a reply that never arrives).
func Detect() Scheme {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return Dark
	}
	if termenv.HasDarkBackground() {
		return Dark
	}
	return Light
}
