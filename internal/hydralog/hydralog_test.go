package hydralog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	return lines
}

func TestSessionCreated_WritesOneJSONLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydra.log")
	l, err := New(true, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.SessionCreated("session-1", "feature-x")

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	var e entry
	if err := json.Unmarshal([]byte(lines[0]), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Event != "session_created" {
		t.Errorf("event = %q, want %q", e.Event, "session_created")
	}
	if e.SessionID != "session-1" {
		t.Errorf("session_id = %q, want %q", e.SessionID, "session-1")
	}
}

func TestDisabledLogger_WritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydra.log")
	l, err := New(false, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.SessionCreated("session-1", "feature-x")

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no log file to be created, stat err = %v", err)
	}
}

func TestError_SkipsNilError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydra.log")
	l, err := New(true, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.Error("session-1", nil)

	// New(true, ...) creates the file up front, so check it stays empty.
	if data, err := os.ReadFile(path); err != nil || len(data) != 0 {
		t.Fatalf("expected nothing logged for nil error, got %q (read err = %v)", data, err)
	}
}
