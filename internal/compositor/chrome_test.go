package compositor

import (
	"strings"
	"testing"

	"hydra/internal/status"
)

func TestRenderChromeLine_VisibleLengthMatchesTotalCols(t *testing.T) {
	tabs := []TabInfo{
		{SessionID: "s1", Branch: "feature-a", Active: true},
		{SessionID: "s2", Branch: "feature-b"},
	}
	for _, cols := range []int{40, 80, 120} {
		line := RenderChromeLine(tabs, map[string]status.Status{}, "", 0, cols)
		if got := visibleLen(line); got != cols {
			t.Fatalf("cols=%d: expected visible length %d, got %d (%q)", cols, cols, got, line)
		}
	}
}

func TestRenderChromeLine_IncludesModeTag(t *testing.T) {
	line := RenderChromeLine(nil, map[string]status.Status{}, "[CREATE]", 0, 80)
	if !strings.Contains(line, "[CREATE]") {
		t.Fatalf("expected mode tag in chrome line, got %q", line)
	}
}

func TestRenderChromeLine_IncludesScrollTag(t *testing.T) {
	line := RenderChromeLine(nil, map[string]status.Status{}, "", 3, 80)
	if !strings.Contains(line, "[scroll: -3]") {
		t.Fatalf("expected scroll tag, got %q", line)
	}
}

func TestRenderChromeLine_IncludesExitedTagForActiveSession(t *testing.T) {
	tabs := []TabInfo{{SessionID: "s1", Branch: "feature-a", Active: true, Exited: true, ExitCode: 2}}
	line := RenderChromeLine(tabs, map[string]status.Status{}, "", 0, 80)
	if !strings.Contains(line, "exited(2)") {
		t.Fatalf("expected exited tag, got %q", line)
	}
}

func TestModeTag_MapsModes(t *testing.T) {
	if got := ModeTag("Normal"); got != "" {
		t.Fatalf("expected no tag for Normal, got %q", got)
	}
	if got := ModeTag("CreatingSession"); got != "[CREATE]" {
		t.Fatalf("expected [CREATE], got %q", got)
	}
	if got := ModeTag("ConfirmingClose"); got != "[CLOSE?]" {
		t.Fatalf("expected [CLOSE?], got %q", got)
	}
}
