package checkout

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func initRepo(t *testing.T) string {
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

func TestAdd_CreatesBranchAndWorktreeWithMetaSidecar(t *testing.T) {
	repo := initRepo(t)
	home := t.TempDir()
	m, err := NewManager(repo, home)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	co, err := m.Add("feature-a", "main")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if co.Branch != "feature-a" {
		t.Fatalf("expected branch feature-a, got %q", co.Branch)
	}
	if co.UUID == "" {
		t.Fatal("expected a generated uuid")
	}
	if _, err := os.Stat(filepath.Join(co.Path, metaFileName)); err != nil {
		t.Fatalf("expected meta sidecar written: %v", err)
	}
}

func TestAdd_ReattachesToExistingCheckout(t *testing.T) {
	repo := initRepo(t)
	home := t.TempDir()
	m, err := NewManager(repo, home)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	first, err := m.Add("feature-b", "main")
	if err != nil {
		t.Fatalf("first Add: %v", err)
	}
	second, err := m.Add("feature-b", "main")
	if err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if first.UUID != second.UUID {
		t.Fatalf("expected re-attaching to the same branch to return the same checkout, got %q vs %q", first.UUID, second.UUID)
	}
}

func TestList_ReturnsExistingCheckouts(t *testing.T) {
	repo := initRepo(t)
	home := t.TempDir()
	m, err := NewManager(repo, home)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := m.Add("feature-c", "main"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	list, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Branch != "feature-c" {
		t.Fatalf("expected one checkout for feature-c, got %+v", list)
	}
}

func TestList_EmptyWhenBaseDirMissing(t *testing.T) {
	repo := initRepo(t)
	home := t.TempDir()
	m, err := NewManager(repo, home)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	list, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no checkouts before any Add, got %+v", list)
	}
}

func TestRemove_DeletesWorktree(t *testing.T) {
	repo := initRepo(t)
	home := t.TempDir()
	m, err := NewManager(repo, home)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	co, err := m.Add("feature-d", "main")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := m.Remove(co.Path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(co.Path); !os.IsNotExist(err) {
		t.Fatalf("expected checkout directory removed, stat err=%v", err)
	}
}

func TestPruneOrphans_RemovesUnregisteredDirectory(t *testing.T) {
	repo := initRepo(t)
	home := t.TempDir()
	m, err := NewManager(repo, home)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := os.MkdirAll(m.BaseDir, 0o755); err != nil {
		t.Fatalf("mkdir base dir: %v", err)
	}
	orphan := filepath.Join(m.BaseDir, "stale-branch")
	if err := os.MkdirAll(orphan, 0o755); err != nil {
		t.Fatalf("mkdir orphan: %v", err)
	}

	if err := m.PruneOrphans(); err != nil {
		t.Fatalf("PruneOrphans: %v", err)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("expected orphaned checkout dir removed, stat err=%v", err)
	}
}
