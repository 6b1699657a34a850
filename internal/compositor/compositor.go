// Package compositor owns the host terminal, reserving a chrome area
// via the scroll region (DECSTBM) and streaming PTY output through into
// native scrollback. Many tab-switchable sessions share one scroll
// region; only the active session's bytes reach the host live.
package compositor

import (
	"io"
	"strings"

	"hydra/internal/ansi"
	"hydra/internal/emulator"
	"hydra/internal/render"
	"hydra/internal/status"
)

// ChromeRows is the fixed height of the chrome area: top border, status
// line, bottom border.
const ChromeRows = 3

// TabInfo is the minimal per-tab data the chrome line needs, decoupling
// the compositor from sessionmgr/store types directly.
type TabInfo struct {
	SessionID string
	Branch    string
	Active    bool
	Exited    bool
	ExitCode  int
}

// Compositor owns the host terminal's stdout writes.
type Compositor struct {
	out         io.Writer
	totalCols   int
	totalRows   int
	chromeDirty bool
	modalActive bool
	onError     func(error)

	modeTag      string
	scrollOffset int
}

// New creates a Compositor writing to out, sized cols x rows.
func New(out io.Writer, cols, rows int) *Compositor {
	return &Compositor{out: out, totalCols: cols, totalRows: rows, chromeDirty: true}
}

// SetErrorSink registers a callback for dropped write errors.
func (c *Compositor) SetErrorSink(fn func(error)) { c.onError = fn }

// InnerRows is the number of rows available to session viewports:
// total rows minus ChromeRows, floored at 1.
func (c *Compositor) InnerRows() int {
	n := c.totalRows - ChromeRows
	if n < 1 {
		return 1
	}
	return n
}

func (c *Compositor) write(s string) {
	if s == "" {
		return
	}
	if _, err := io.WriteString(c.out, s); err != nil && c.onError != nil {
		c.onError(err)
	}
}

// Initialize clears the screen, installs the scroll region, and disables
// focus reporting against the dimensions already known via New/Resize.
func (c *Compositor) Initialize() {
	var b strings.Builder
	b.WriteString(ansi.ClearScreen())
	b.WriteString(ansi.SetScrollRegion(1, c.InnerRows()))
	b.WriteString(ansi.CursorTo(1, 1))
	b.WriteString(ansi.DisableFocusReporting())
	c.write(b.String())
	c.chromeDirty = true
}

// Resize updates the compositor's known dimensions and reinstalls the
// scroll region; idempotent under repeated calls.
func (c *Compositor) Resize(cols, rows int) {
	c.totalCols = cols
	c.totalRows = rows
	c.write(ansi.SetScrollRegion(1, c.InnerRows()))
	c.chromeDirty = true
}

// Cleanup resets the scroll region, shows the cursor, and moves to the
// bottom.
func (c *Compositor) Cleanup() {
	var b strings.Builder
	b.WriteString(ansi.ResetScrollRegion())
	b.WriteString(ansi.ShowCursor())
	b.WriteString(ansi.CursorTo(c.totalRows, 1))
	b.WriteString(ansi.Newline())
	c.write(b.String())
}

// MarkModal toggles whether a modal is active; pass-through bytes are
// dropped while true.
func (c *Compositor) MarkModal(active bool) {
	c.modalActive = active
}

// MarkChromeDirty requests that the next WritePassthrough call redraw
// chrome first.
func (c *Compositor) MarkChromeDirty() {
	c.chromeDirty = true
}

// SetChromeState records the mode tag and scroll offset consumed by the
// next chrome redraw; the app controller updates this whenever the store
// notifies a change.
func (c *Compositor) SetChromeState(modeTag string, scrollOffset int) {
	c.modeTag = modeTag
	c.scrollOffset = scrollOffset
	c.chromeDirty = true
}

// WritePassthrough is the hot path: filter host-destabilizing sequences
// out of b, redraw chrome first if dirty, then write the filtered bytes
// to stdout. Bytes are dropped entirely while a modal is active.
func (c *Compositor) WritePassthrough(b []byte, tabs []TabInfo, statuses map[string]status.Status) {
	if c.chromeDirty {
		c.renderChromeNow(tabs, statuses)
		c.chromeDirty = false
	}
	if c.modalActive {
		return
	}
	filtered := filterDestabilizing(b, c.InnerRows())
	c.write(filtered)
}

// RepaintViewport resets the scroll region, draws each of the emulator's
// visible rows, restores the scroll region, and positions the cursor at
// the emulator's cursor. Used on session switch, modal exit, and resize.
func (c *Compositor) RepaintViewport(e *emulator.Emulator, scrollOffset int) {
	var b strings.Builder
	b.WriteString(ansi.ResetScrollRegion())

	rows := c.InnerRows()
	lines := render.Buffer(e, scrollOffset, rows, c.totalCols)
	for i, line := range lines {
		b.WriteString(ansi.CursorTo(i+1, 1))
		b.WriteString(ansi.ClearLine())
		b.WriteString(line)
		b.WriteString(ansi.Reset())
	}

	b.WriteString(ansi.SetScrollRegion(1, rows))
	cx, cy := e.CursorPosition()
	baseY := e.BaseY()
	start := baseY - scrollOffset
	if start < 0 {
		start = 0
	}
	cursorRow := baseY + cy - start + 1
	if cursorRow < 1 {
		cursorRow = 1
	}
	if cursorRow > rows {
		cursorRow = rows
	}
	b.WriteString(ansi.CursorTo(cursorRow, cx+1))
	c.write(b.String())
}

// RepaintEmptyViewport draws the "no active session" placeholder used
// when the session list is empty.
func (c *Compositor) RepaintEmptyViewport() {
	var b strings.Builder
	b.WriteString(ansi.ResetScrollRegion())
	rows := c.InnerRows()
	msg := "no sessions — press CTRL_B n to create one"
	for i := 0; i < rows; i++ {
		b.WriteString(ansi.CursorTo(i+1, 1))
		b.WriteString(ansi.ClearLine())
		if i == rows/2 {
			b.WriteString(msg)
		}
	}
	b.WriteString(ansi.SetScrollRegion(1, rows))
	c.write(b.String())
}

// SwitchSession repaints the viewport for the new active session, then
// redraws chrome.
func (c *Compositor) SwitchSession(e *emulator.Emulator, scrollOffset int, tabs []TabInfo, statuses map[string]status.Status) {
	if e == nil {
		c.RepaintEmptyViewport()
	} else {
		c.RepaintViewport(e, scrollOffset)
	}
	c.renderChromeNow(tabs, statuses)
	c.chromeDirty = false
}

// EnterModal clears the viewport and writes centered lines, leaving
// chrome intact.
func (c *Compositor) EnterModal(lines []string) {
	c.MarkModal(true)
	var b strings.Builder
	b.WriteString(ansi.ResetScrollRegion())
	rows := c.InnerRows()
	start := (rows - len(lines)) / 2
	if start < 0 {
		start = 0
	}
	for i := 0; i < rows; i++ {
		b.WriteString(ansi.CursorTo(i+1, 1))
		b.WriteString(ansi.ClearLine())
		li := i - start
		if li >= 0 && li < len(lines) {
			b.WriteString(centered(lines[li], c.totalCols))
		}
	}
	b.WriteString(ansi.SetScrollRegion(1, rows))
	c.write(b.String())
}

// ExitModal leaves modal mode and repaints the viewport (or the empty
// placeholder if e is nil).
func (c *Compositor) ExitModal(e *emulator.Emulator, scrollOffset int) {
	c.MarkModal(false)
	if e == nil {
		c.RepaintEmptyViewport()
		return
	}
	c.RepaintViewport(e, scrollOffset)
}

func centered(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

// renderChromeNow draws the chrome area using SAVE_CURSOR/RESTORE_CURSOR
// so the in-region cursor is undisturbed.
func (c *Compositor) renderChromeNow(tabs []TabInfo, statuses map[string]status.Status) {
	var b strings.Builder
	b.WriteString(ansi.SaveCursor())
	b.WriteString(ansi.ResetScrollRegion())

	rows := c.InnerRows()
	topRow := rows + 1
	statusRow := rows + 2
	bottomRow := rows + 3

	border := strings.Repeat("─", max0(c.totalCols))
	b.WriteString(ansi.CursorTo(topRow, 1))
	b.WriteString(ansi.ClearLine())
	b.WriteString(border)

	b.WriteString(ansi.CursorTo(statusRow, 1))
	b.WriteString(ansi.ClearLine())
	b.WriteString(RenderChromeLine(tabs, statuses, c.modeTag, c.scrollOffset, c.totalCols))

	b.WriteString(ansi.CursorTo(bottomRow, 1))
	b.WriteString(ansi.ClearLine())
	b.WriteString(border)

	b.WriteString(ansi.SetScrollRegion(1, rows))
	b.WriteString(ansi.RestoreCursor())
	c.write(b.String())
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
