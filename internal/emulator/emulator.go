// Package emulator wraps a headless VT/xterm-compatible terminal,
// exposing a narrow surface to the rest of Hydra: write, resize,
// dispose, and a read-only buffer view, backed by
// github.com/vito/midterm. One *midterm.Terminal is owned per session
// rather than one for the whole process.
package emulator

import (
	"sync"

	"github.com/vito/midterm"
)

// ColorMode distinguishes how a color is encoded on a CellStyle's
// foreground/background.
type ColorMode int

const (
	ColorDefault ColorMode = iota
	ColorPalette16
	ColorPalette256
	ColorRGB
)

// Color is a single foreground or background color value.
type Color struct {
	Mode  ColorMode
	Value uint32 // palette index, or packed (r<<16)|(g<<8)|b for ColorRGB
}

// CellStyle holds a cell's foreground/background color plus its boolean
// display attributes (bold, dim, italic, underline, inverse, strikethrough).
type CellStyle struct {
	Fg, Bg        Color
	Bold, Dim     bool
	Italic        bool
	Underline     bool
	Inverse       bool
	Strikethrough bool
}

// Cell is a single grid position: a rune (possibly empty for a
// zero-width continuation slot of a wide glyph) plus its style.
type Cell struct {
	Ch    string
	Style CellStyle
	Wide  bool // marks a continuation slot of a wide glyph, which render.Line skips; GetLine does not set it
}

// Emulator owns one headless terminal instance for one session.
type Emulator struct {
	mu   sync.Mutex
	term *midterm.Terminal
	baseY int
	cols, rows int
	scrollback int
}

// New creates an Emulator sized cols x rows. The scrollback value is
// stored but does not bound anything: lines that scroll off the top of
// the live grid are not kept, only counted in BaseY.
func New(cols, rows, scrollback int) *Emulator {
	e := &Emulator{
		term:       midterm.NewTerminal(rows, cols),
		cols:       cols,
		rows:       rows,
		scrollback: scrollback,
	}
	e.term.OnScrollback(func(midterm.Line) {
		e.mu.Lock()
		e.baseY++
		e.mu.Unlock()
	})
	return e
}

// Write feeds PTY bytes into the terminal and invokes onComplete once the
// write lands.
func (e *Emulator) Write(p []byte, onComplete func()) {
	e.mu.Lock()
	e.term.Write(p)
	e.mu.Unlock()
	if onComplete != nil {
		onComplete()
	}
}

// Resize changes the emulator's grid dimensions.
func (e *Emulator) Resize(cols, rows int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cols, e.rows = cols, rows
	e.term.Resize(rows, cols)
}

// Dispose releases any emulator-held resources. midterm.Terminal needs no
// explicit teardown; this exists so callers have a stable lifecycle hook
// independent of the backing library.
func (e *Emulator) Dispose() {}

// Cols reports the current column count.
func (e *Emulator) Cols() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cols
}

// Rows reports the current row count.
func (e *Emulator) Rows() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows
}

// BaseY returns the count of lines that have scrolled off the top of the
// viewport into scrollback.
func (e *Emulator) BaseY() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseY
}

// CursorPosition returns the 0-indexed cursor column and row.
func (e *Emulator) CursorPosition() (x, y int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.term.Cursor.X, e.term.Cursor.Y
}

// Length reports the number of addressable rows in the live grid.
func (e *Emulator) Length() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.term.Content)
}

// GetLine returns the cells for row y (0-indexed into the live grid, not
// the scrollback). Rows beyond the grid return nil.
func (e *Emulator) GetLine(y int) []Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	if y < 0 || y >= len(e.term.Content) {
		return nil
	}
	line := e.term.Content[y]
	cells := make([]Cell, 0, len(line))
	pos := 0
	for region := range e.term.Format.Regions(y) {
		style := styleFromFormat(region.F)
		end := pos + region.Size
		for pos < end {
			if pos < len(line) {
				cells = append(cells, Cell{Ch: string(line[pos]), Style: style})
			} else {
				cells = append(cells, Cell{Ch: "", Style: style})
			}
			pos++
		}
	}
	return cells
}

// styleFromFormat converts the backing library's per-cell format into
// CellStyle. midterm.Format exposes fg/bg colors and boolean attribute
// fields; Render() already emits its own SGR string, but the buffer
// renderer (internal/render) needs the structured form to do its own
// run-length compression and color-parameter encoding.
func styleFromFormat(f midterm.Format) CellStyle {
	style := CellStyle{
		Bold:          f.Bold,
		Underline:     f.Underline,
		Inverse:       f.Reverse,
		Strikethrough: f.Strike,
		Italic:        f.Italic,
		Dim:           f.Faint,
	}
	style.Fg = colorFromMidterm(f.Fg)
	style.Bg = colorFromMidterm(f.Bg)
	return style
}

func colorFromMidterm(c midterm.Color) Color {
	switch {
	case c.ColorMode == midterm.ColorModeNone:
		return Color{Mode: ColorDefault}
	case c.ColorMode == midterm.ColorModeRGB:
		return Color{Mode: ColorRGB, Value: uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)}
	case c.Code < 16:
		return Color{Mode: ColorPalette16, Value: uint32(c.Code)}
	default:
		return Color{Mode: ColorPalette256, Value: uint32(c.Code)}
	}
}
