package compositor

import "testing"

func TestFilterDestabilizing_StripsAltScreenToggles(t *testing.T) {
	in := []byte("X\x1b[?1049hY\x1b[?1049lZ")
	got := filterDestabilizing(in, 20)
	if got != "XYZ" {
		t.Fatalf("expected %q, got %q", "XYZ", got)
	}
}

func TestFilterDestabilizing_RewritesDECSTBM(t *testing.T) {
	in := []byte("\x1b[5;10r")
	got := filterDestabilizing(in, 20)
	if got != "\x1b[1;20r" {
		t.Fatalf("expected scroll region rewritten to inner rows, got %q", got)
	}
}

func TestFilterDestabilizing_StripsCursorPositionReportRequest(t *testing.T) {
	in := []byte("A\x1b[6nB")
	got := filterDestabilizing(in, 20)
	if got != "AB" {
		t.Fatalf("expected CPR request stripped, got %q", got)
	}
}

func TestFilterDestabilizing_StripsFocusReporting(t *testing.T) {
	in := []byte("A\x1b[?1004hB\x1b[?1004lC")
	got := filterDestabilizing(in, 20)
	if got != "ABC" {
		t.Fatalf("expected focus reporting toggles stripped, got %q", got)
	}
}

func TestFilterDestabilizing_PassesThroughOrdinaryText(t *testing.T) {
	in := []byte("hello\r\nworld")
	got := filterDestabilizing(in, 20)
	if got != "hello\r\nworld" {
		t.Fatalf("expected unmodified passthrough, got %q", got)
	}
}

func TestFilterDestabilizing_StripsSecondaryDeviceAttributes(t *testing.T) {
	in := []byte("A\x1b[>0cB")
	got := filterDestabilizing(in, 20)
	if got != "AB" {
		t.Fatalf("expected secondary DA stripped, got %q", got)
	}
}
