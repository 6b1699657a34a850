// Package checkout creates/removes/lists isolated working copies of the
// surrounding repository under ${HOME}/.hydra/worktrees/<repo-name>/<branch>/,
// and prunes orphans at startup. A file lock around the base directory
// guards concurrent checkout creation across processes.
package checkout

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"hydra/internal/gitutil"
)

// Checkout describes one isolated working copy.
type Checkout struct {
	Path      string
	Branch    string
	UUID      string
	CreatedAt time.Time
}

// meta is the on-disk sidecar persisted as <path>/.hydra-meta.yaml.
type meta struct {
	Branch    string    `yaml:"branch"`
	UUID      string    `yaml:"uuid"`
	CreatedAt time.Time `yaml:"created_at"`
}

const metaFileName = ".hydra-meta.yaml"

// Manager creates/removes/lists checkouts for one repo.
type Manager struct {
	RepoRoot string
	RepoName string
	BaseDir  string // ${HOME}/.hydra/worktrees/<repo-name>/
}

// NewManager builds a Manager rooted at ${HOME}/.hydra/worktrees/<repo-name>/.
func NewManager(repoRoot, homeDir string) (*Manager, error) {
	name := gitutil.RepoName(repoRoot)
	return &Manager{
		RepoRoot: repoRoot,
		RepoName: name,
		BaseDir:  filepath.Join(homeDir, ".hydra", "worktrees", name),
	}, nil
}

func (m *Manager) lockPath() string {
	return filepath.Join(m.BaseDir, ".lock")
}

func (m *Manager) withLock(fn func() error) error {
	if err := os.MkdirAll(m.BaseDir, 0o755); err != nil {
		return fmt.Errorf("create worktree base dir: %w", err)
	}
	lock := flock.New(m.lockPath())
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock worktree base dir: %w", err)
	}
	defer lock.Unlock()
	return fn()
}

// Add creates (or attaches to) a checkout for branch, creating the branch
// from branchFrom if it does not already exist. Branch names are used
// verbatim as a directory component; a branch containing "/" becomes
// nested subdirectories under BaseDir. Branch names are not validated
// here.
func (m *Manager) Add(branch, branchFrom string) (*Checkout, error) {
	var co *Checkout
	err := m.withLock(func() error {
		path := filepath.Join(m.BaseDir, branch)
		if _, err := os.Stat(path); err == nil {
			existing, err := loadMeta(path)
			if err != nil {
				return err
			}
			co = existing
			return nil
		}

		if !gitutil.BranchExists(m.RepoRoot, branch) {
			if err := gitutil.CreateBranch(m.RepoRoot, branch, branchFrom); err != nil {
				return err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create checkout parent dir: %w", err)
		}
		if err := gitutil.AddWorktree(m.RepoRoot, path, branch); err != nil {
			return err
		}

		record := &Checkout{
			Path:      path,
			Branch:    branch,
			UUID:      uuid.NewString(),
			CreatedAt: time.Now(),
		}
		if err := writeMeta(record); err != nil {
			return err
		}
		co = record
		return nil
	})
	return co, err
}

// Remove deletes a checkout's working tree and branch metadata,
// best-effort .
func (m *Manager) Remove(path string) error {
	return m.withLock(func() error {
		if err := gitutil.RemoveWorktree(m.RepoRoot, path); err != nil {
			return err
		}
		return gitutil.PruneWorktrees(m.RepoRoot)
	})
}

// List enumerates existing checkouts under BaseDir by reading their
// .hydra-meta.yaml sidecars.
func (m *Manager) List() ([]*Checkout, error) {
	entries, err := os.ReadDir(m.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read worktree base dir: %w", err)
	}

	var out []*Checkout
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(m.BaseDir, e.Name())
		co, err := loadMeta(path)
		if err != nil {
			continue // no valid sidecar; not a Hydra checkout
		}
		out = append(out, co)
	}
	return out, nil
}

// PruneOrphans removes worktree directories that git no longer recognizes
// as worktrees (e.g. left behind by a crash between checkout creation and
// PTY spawn), run once at startup cleanup_orphans.
func (m *Manager) PruneOrphans() error {
	return m.withLock(func() error {
		if err := gitutil.PruneWorktrees(m.RepoRoot); err != nil {
			return err
		}
		registered, err := gitutil.ListWorktreeBranches(m.RepoRoot)
		if err != nil {
			return err
		}
		entries, err := os.ReadDir(m.BaseDir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("read worktree base dir: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			path := filepath.Join(m.BaseDir, e.Name())
			if _, ok := registered[path]; !ok {
				os.RemoveAll(path)
			}
		}
		return nil
	})
}

func loadMeta(path string) (*Checkout, error) {
	data, err := os.ReadFile(filepath.Join(path, metaFileName))
	if err != nil {
		return nil, fmt.Errorf("read checkout metadata: %w", err)
	}
	var m meta
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse checkout metadata: %w", err)
	}
	return &Checkout{
		Path:      path,
		Branch:    m.Branch,
		UUID:      m.UUID,
		CreatedAt: m.CreatedAt,
	}, nil
}

func writeMeta(co *Checkout) error {
	m := meta{Branch: co.Branch, UUID: co.UUID, CreatedAt: co.CreatedAt}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal checkout metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(co.Path, metaFileName), data, 0o644); err != nil {
		return fmt.Errorf("write checkout metadata: %w", err)
	}
	return nil
}
