package sessionmgr

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hydra/internal/checkout"
	"hydra/internal/config"
	"hydra/internal/hydralog"
	"hydra/internal/status"
	"hydra/internal/store"
)

func initGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}
	run("init", "-b", "main")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi\n"), 0o644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	run("add", "README.md")
	run("commit", "-m", "initial")
	return dir
}

func newTestManager(t *testing.T, cfg *config.Config) (*Manager, func()) {
	t.Helper()
	repo := initGitRepo(t)
	home := t.TempDir()

	coMgr, err := checkout.NewManager(repo, home)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	st := store.New(store.AppState{})
	tr := status.New(nil)

	m := New(st, coMgr, tr, cfg, hydralog.Disabled(), Callbacks{})
	return m, func() {}
}

func TestCreateSession_AddsToStoreAndSpawnsPTY(t *testing.T) {
	cfg := &config.Config{Command: "cat", BranchFrom: "main", Scrollback: 100, BatchMs: 4}
	m, cleanup := newTestManager(t, cfg)
	defer cleanup()

	id, err := m.CreateSession("feature-a", 80, 24, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	st := m.st.State()
	if st.ActiveSessionID != id {
		t.Fatalf("expected new session active, got %q", st.ActiveSessionID)
	}
	if len(st.Sessions) != 1 || st.Sessions[0].Branch != "feature-a" {
		t.Fatalf("expected one session for feature-a, got %+v", st.Sessions)
	}

	if e := m.Emulator(id); e == nil {
		t.Fatal("expected a live emulator for the created session")
	}

	if err := m.CloseSession(id); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if len(m.st.State().Sessions) != 0 {
		t.Fatalf("expected session removed after close, got %+v", m.st.State().Sessions)
	}
}

func TestCreateSession_RawPTYDataFiresBeforeBatch(t *testing.T) {
	var raw [][]byte
	cfg := &config.Config{Command: "cat", BranchFrom: "main", Scrollback: 100, BatchMs: 50}
	repo := initGitRepo(t)
	home := t.TempDir()
	coMgr, err := checkout.NewManager(repo, home)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	st := store.New(store.AppState{})
	tr := status.New(nil)
	done := make(chan struct{}, 1)

	m := New(st, coMgr, tr, cfg, hydralog.Disabled(), Callbacks{
		OnRawPTYData: func(id string, chunk []byte) {
			raw = append(raw, chunk)
			select {
			case done <- struct{}{}:
			default:
			}
		},
	})

	id, err := m.CreateSession("feature-b", 80, 24, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if ok := m.Write(id, []byte("hello\n")); !ok {
		t.Fatal("expected write to succeed")
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for raw PTY data")
	}

	if len(raw) == 0 {
		t.Fatal("expected at least one raw data callback")
	}

	m.CloseSession(id)
}

func TestCreateAndCloseSession_LogsLifecycleEvents(t *testing.T) {
	cfg := &config.Config{Command: "cat", BranchFrom: "main", Scrollback: 100, BatchMs: 4}
	repo := initGitRepo(t)
	home := t.TempDir()
	coMgr, err := checkout.NewManager(repo, home)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	st := store.New(store.AppState{})
	tr := status.New(nil)

	logPath := filepath.Join(t.TempDir(), "hydra.log")
	log, err := hydralog.New(true, logPath)
	if err != nil {
		t.Fatalf("hydralog.New: %v", err)
	}
	defer log.Close()

	m := New(st, coMgr, tr, cfg, log, Callbacks{})

	id, err := m.CreateSession("feature-d", 80, 24, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := m.CloseSession(id); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	logText := string(data)
	if !strings.Contains(logText, `"event":"session_created"`) {
		t.Errorf("expected session_created event, log = %s", logText)
	}
	if !strings.Contains(logText, `"event":"session_closed"`) {
		t.Errorf("expected session_closed event, log = %s", logText)
	}
}

func TestResizeAll_SkipsExitedSessions(t *testing.T) {
	cfg := &config.Config{Command: "cat", BranchFrom: "main", Scrollback: 100, BatchMs: 4}
	m, cleanup := newTestManager(t, cfg)
	defer cleanup()

	id, err := m.CreateSession("feature-c", 80, 24, nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	// Once the session is marked exited, ResizeAll leaves its emulator at
	// the size it was created with.
	m.st.Dispatch(store.SessionExited{ID: id, Code: 0})
	m.ResizeAll(100, 30)
	if got := m.Emulator(id).Cols(); got != 80 {
		t.Fatalf("expected exited session's emulator to stay at 80 cols, got %d", got)
	}
}
