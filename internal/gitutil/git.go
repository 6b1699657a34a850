// Package gitutil is a thin git subprocess driver: repo root/name
// resolution and branch/worktree plumbing. Deliberately minimal — the
// actual checkout lifecycle lives in internal/checkout.
package gitutil

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// RepoRoot returns the absolute path to the git repository containing dir.
func RepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (or any parent): %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RepoName returns the basename of the repo root.
func RepoName(repoRoot string) string {
	return filepath.Base(repoRoot)
}

// BranchExists reports whether branch exists in the repo at root.
func BranchExists(root, branch string) bool {
	cmd := exec.Command("git", "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = root
	return cmd.Run() == nil
}

// CreateBranch creates branch in root, based on from.
func CreateBranch(root, branch, from string) error {
	cmd := exec.Command("git", "branch", branch, from)
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("create branch %q from %q: %w: %s", branch, from, err, out)
	}
	return nil
}

// AddWorktree runs `git worktree add <path> <branch>` in root.
func AddWorktree(root, path, branch string) error {
	cmd := exec.Command("git", "worktree", "add", path, branch)
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git worktree add %s %s: %w: %s", path, branch, err, out)
	}
	return nil
}

// RemoveWorktree runs `git worktree remove --force <path>` in root.
func RemoveWorktree(root, path string) error {
	cmd := exec.Command("git", "worktree", "remove", "--force", path)
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git worktree remove %s: %w: %s", path, err, out)
	}
	return nil
}

// PruneWorktrees runs `git worktree prune` in root.
func PruneWorktrees(root string) error {
	cmd := exec.Command("git", "worktree", "prune")
	cmd.Dir = root
	return cmd.Run()
}

// ListWorktreeBranches returns the branch name for every worktree
// registered with git (via `git worktree list --porcelain`), keyed by
// worktree path.
func ListWorktreeBranches(root string) (map[string]string, error) {
	cmd := exec.Command("git", "worktree", "list", "--porcelain")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git worktree list: %w", err)
	}

	result := make(map[string]string)
	var currentPath string
	for _, line := range strings.Split(string(out), "\n") {
		switch {
		case strings.HasPrefix(line, "worktree "):
			currentPath = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			result[currentPath] = strings.TrimPrefix(ref, "refs/heads/")
		}
	}
	return result, nil
}
