package render

import (
	"strings"
	"testing"

	"hydra/internal/emulator"
)

func TestLine_EmptyLineRendersEmptyString(t *testing.T) {
	e := emulator.New(10, 3, 100)
	if got := Line(e, 0, 10); got != "" {
		t.Fatalf("expected empty line to render \"\", got %q", got)
	}
}

func TestLine_WritesVisibleTextAndResets(t *testing.T) {
	e := emulator.New(10, 3, 100)
	e.Write([]byte("hi"), nil)

	got := Line(e, 0, 10)
	if !strings.Contains(got, "hi") {
		t.Fatalf("expected rendered line to contain %q, got %q", "hi", got)
	}
	if !strings.HasSuffix(got, "\x1b[0m") {
		t.Fatalf("expected line to terminate with a reset, got %q", got)
	}
}

func TestColorParam_Palette16(t *testing.T) {
	fg := colorParam(emulator.Color{Mode: emulator.ColorPalette16, Value: 3}, false)
	if fg != "33" {
		t.Fatalf("expected fg palette 3 => 33, got %q", fg)
	}
	bg := colorParam(emulator.Color{Mode: emulator.ColorPalette16, Value: 3}, true)
	if bg != "43" {
		t.Fatalf("expected bg palette 3 => 43, got %q", bg)
	}
}

func TestColorParam_BrightPalette(t *testing.T) {
	fg := colorParam(emulator.Color{Mode: emulator.ColorPalette16, Value: 9}, false)
	if fg != "91" {
		t.Fatalf("expected bright palette 9 => 91, got %q", fg)
	}
}

func TestColorParam_Palette256(t *testing.T) {
	fg := colorParam(emulator.Color{Mode: emulator.ColorPalette256, Value: 200}, false)
	if fg != "38;5;200" {
		t.Fatalf("expected 38;5;200, got %q", fg)
	}
}

func TestColorParam_RGB(t *testing.T) {
	packed := uint32(10)<<16 | uint32(20)<<8 | uint32(30)
	fg := colorParam(emulator.Color{Mode: emulator.ColorRGB, Value: packed}, false)
	if fg != "38;2;10;20;30" {
		t.Fatalf("expected 38;2;10;20;30, got %q", fg)
	}
}

func TestColorParam_Default(t *testing.T) {
	if got := colorParam(emulator.Color{Mode: emulator.ColorDefault}, false); got != "" {
		t.Fatalf("expected no param for default color, got %q", got)
	}
}

func TestLine_StyledBlankRowIsNotCollapsedToEmptyString(t *testing.T) {
	e := emulator.New(10, 3, 100)
	e.Write([]byte("\x1b[44m          \x1b[0m"), nil)

	got := Line(e, 0, 10)
	if got == "" {
		t.Fatalf("expected a blue-background blank row to still carry SGR output, got empty string")
	}
	if !strings.Contains(got, "44") {
		t.Fatalf("expected rendered line to carry the background color param, got %q", got)
	}
}

func TestBuffer_PadsAbsentRowsWithEmptyString(t *testing.T) {
	e := emulator.New(10, 2, 100)
	lines := Buffer(e, 0, 5, 10)
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	for i := 2; i < 5; i++ {
		if lines[i] != "" {
			t.Fatalf("expected absent row %d to be empty, got %q", i, lines[i])
		}
	}
}
