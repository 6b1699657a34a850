// Package render walks an Emulator's cell grid and emits styled byte
// sequences with SGR run-length compression, row by row, rather than
// relying on the underlying terminal library's own formatting.
package render

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"hydra/internal/ansi"
	"hydra/internal/emulator"
)

// Line renders one row (cols wide) of e starting at the given grid row
// index y into a styled byte sequence. Entirely empty lines render to ""
// to avoid needless SGR noise.
func Line(e *emulator.Emulator, y, cols int) string {
	cells := e.GetLine(y)
	if len(cells) == 0 {
		return ""
	}

	var b strings.Builder
	var last emulator.CellStyle
	haveLast := false
	wroteVisible := false

	col := 0
	for i := 0; i < len(cells) && col < cols; i++ {
		cell := cells[i]
		if cell.Wide {
			// Zero-width continuation slot of a wide glyph already emitted.
			continue
		}

		ch := cell.Ch
		if ch == "" {
			ch = " "
		} else if runewidth.StringWidth(ch) == 0 {
			// Combining/zero-width rune with no visible glyph of its
			// own; still occupies a column, but emits nothing extra.
			ch = " "
		} else if ch != " " {
			wroteVisible = true
		}
		if cell.Style != (emulator.CellStyle{}) {
			// A styled blank (background color, inverse, etc.) still
			// needs to reach the host even though its glyph is a space.
			wroteVisible = true
		}

		if !haveLast || cell.Style != last {
			b.WriteString(sgrFor(cell.Style))
			last = cell.Style
			haveLast = true
		}
		b.WriteString(ch)
		col++
	}

	if !wroteVisible {
		return ""
	}

	b.WriteString(ansi.Reset())
	return b.String()
}

// Buffer renders visibleRows lines of e starting at row max(0, baseY -
// scrollOffset), counting rows from the first line ever written (row
// baseY is the top of the live grid). Absent rows are "". The emulator
// does not keep lines that scrolled above the live grid, so those rows
// also render as "".
func Buffer(e *emulator.Emulator, scrollOffset, visibleRows, cols int) []string {
	baseY := e.BaseY()
	start := baseY - scrollOffset
	if start < 0 {
		start = 0
	}
	n := visibleRows
	if n > e.Rows() {
		n = e.Rows()
	}
	lines := make([]string, visibleRows)
	for i := 0; i < n; i++ {
		lines[i] = Line(e, start+i-baseY, cols)
	}
	return lines
}

// sgrFor builds the "CSI 0;<attrs>;<fg>;<bg> m" sequence for a style,
// always leading with a reset so styles never bleed across writes.
func sgrFor(s emulator.CellStyle) string {
	var attrs []string
	if s.Bold {
		attrs = append(attrs, "1")
	}
	if s.Dim {
		attrs = append(attrs, "2")
	}
	if s.Italic {
		attrs = append(attrs, "3")
	}
	if s.Underline {
		attrs = append(attrs, "4")
	}
	if s.Inverse {
		attrs = append(attrs, "7")
	}
	if s.Strikethrough {
		attrs = append(attrs, "9")
	}

	params := append([]string{}, attrs...)
	if fg := colorParam(s.Fg, false); fg != "" {
		params = append(params, fg)
	}
	if bg := colorParam(s.Bg, true); bg != "" {
		params = append(params, bg)
	}
	return ansi.SGR(params...)
}

// colorParam encodes a single color as SGR parameters: 16-color palette
// entries use the classic 30-37/90-97 (or 40-47/100-107) ranges, 256-color
// uses 38;5;n/48;5;n, and RGB uses 38;2;r;g;b/48;2;r;g;b.
func colorParam(c emulator.Color, background bool) string {
	switch c.Mode {
	case emulator.ColorDefault:
		return ""
	case emulator.ColorPalette16:
		n := c.Value
		if n <= 7 {
			if background {
				return strconv.Itoa(40 + int(n))
			}
			return strconv.Itoa(30 + int(n))
		}
		bright := (n - 8) & 7
		if background {
			return strconv.Itoa(100 + int(bright))
		}
		return strconv.Itoa(90 + int(bright))
	case emulator.ColorPalette256:
		if background {
			return "48;5;" + strconv.Itoa(int(c.Value))
		}
		return "38;5;" + strconv.Itoa(int(c.Value))
	case emulator.ColorRGB:
		r := (c.Value >> 16) & 0xFF
		g := (c.Value >> 8) & 0xFF
		b := c.Value & 0xFF
		prefix := "38;2;"
		if background {
			prefix = "48;2;"
		}
		return prefix + strconv.Itoa(int(r)) + ";" + strconv.Itoa(int(g)) + ";" + strconv.Itoa(int(b))
	default:
		return ""
	}
}
