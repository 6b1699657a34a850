package compositor

import (
	"regexp"
	"strconv"
	"strings"

	"hydra/internal/ansi"
	"hydra/internal/status"
	"hydra/internal/termcolor"
)

const keybindHint = "CTRL_B: q n w ] [ 1-9"

// scheme is the active tab color scheme; SetScheme lets the app
// controller install the host-terminal-appropriate one detected at
// startup (see internal/termcolor). Defaults to the dark scheme so
// tests and any caller that skips SetScheme still render sensibly.
var scheme = termcolor.Dark

// SetScheme installs the chrome's tab color scheme.
func SetScheme(s termcolor.Scheme) {
	scheme = s
}

var sgrRe = regexp.MustCompile("\x1b\\[[0-9;]*m")

// visibleLen measures a string's length ignoring embedded SGR sequences, so
// colored tokens don't inflate the column count used for padding.
func visibleLen(s string) int {
	return len(sgrRe.ReplaceAllString(s, ""))
}

// RenderChromeLine builds the single status line of chrome
// area: left label + mode tag + colored tab list + scroll/exited tags,
// right keybinding hint, padded with spaces to exactly totalCols visible
// columns. The hint is dropped when it does not fit beside the left side,
// and a left side wider than totalCols is cut to totalCols.
func RenderChromeLine(tabs []TabInfo, statuses map[string]status.Status, modeTag string, scrollOffset int, totalCols int) string {
	var left strings.Builder
	left.WriteString(" hydra | ")
	if modeTag != "" {
		left.WriteString(modeTag)
		left.WriteString(" ")
	}

	parts := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		parts = append(parts, renderTab(i, tab, statuses))
	}
	left.WriteString(strings.Join(parts, "|"))

	if scrollOffset > 0 {
		left.WriteString(" [scroll: -")
		left.WriteString(strconv.Itoa(scrollOffset))
		left.WriteString("]")
	}
	for i, tab := range tabs {
		if tab.Active && tab.Exited {
			left.WriteString(" exited(")
			left.WriteString(strconv.Itoa(tab.ExitCode))
			left.WriteString(")")
			_ = i
			break
		}
	}

	right := keybindHint
	leftStr := left.String()
	if visibleLen(leftStr)+visibleLen(right) >= totalCols {
		right = ""
	}
	if visibleLen(leftStr) > totalCols {
		texts, seqs := sgrRe.Split(leftStr, -1), sgrRe.FindAllString(leftStr, -1)
		var cut strings.Builder
		for i, budget := 0, totalCols; i < len(texts); i++ {
			n := min(len(texts[i]), budget)
			budget -= n
			cut.WriteString(texts[i][:n])
			if i < len(seqs) {
				cut.WriteString(seqs[i])
			}
		}
		leftStr = cut.String()
	}
	gap := totalCols - visibleLen(leftStr) - visibleLen(right)
	return leftStr + strings.Repeat(" ", gap) + right
}

// renderTab renders one " <i+1>:<branch> " token colored from the
// installed scheme: exited (overrides active), active, or inactive. With
// the default Dark scheme that is red, bold white on blue, and gray.
func renderTab(i int, tab TabInfo, statuses map[string]status.Status) string {
	label := " " + strconv.Itoa(i+1) + ":" + tab.Branch + " "
	if st, ok := statuses[tab.SessionID]; ok && st == status.Waiting && !tab.Exited {
		label += "~"
	}

	switch {
	case tab.Exited:
		return ansi.SGR(scheme.Exited...) + label + ansi.Reset()
	case tab.Active:
		return ansi.SGR(scheme.Active...) + label + ansi.Reset()
	default:
		return ansi.SGR(scheme.Inactive...) + label + ansi.Reset()
	}
}

// ModeTag returns the mode-indicator token for the chrome line ("" for
// Normal). mode is the output of store.Mode.String().
func ModeTag(mode string) string {
	switch mode {
	case "CreatingSession":
		return "[CREATE]"
	case "ConfirmingClose":
		return "[CLOSE?]"
	default:
		return ""
	}
}
