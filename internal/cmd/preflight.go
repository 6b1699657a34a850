// Preflight runs the startup checks required before the event loop
// starts: stdin/stdout must be a terminal, the working directory must be
// inside a git repository, and $HOME must resolve.
package cmd

import (
	"os"

	"github.com/mattn/go-isatty"

	"hydra/internal/apperrors"
	"hydra/internal/gitutil"
)

// Preflight holds the resolved facts a successful preflight check
// produces, so callers don't re-derive them.
type Preflight struct {
	RepoRoot string
	HomeDir  string
}

// RunPreflight implements ordered check list, returning on
// the first failure (each failure maps to a distinct, actionable
// message) rather than aggregating — the original program exits 1 at
// the first unmet precondition too.
func RunPreflight(stdin, stdout *os.File) (*Preflight, error) {
	if !isatty.IsTerminal(stdin.Fd()) {
		return nil, &apperrors.PreflightError{Reason: "stdin is not attached to a terminal"}
	}
	if !isatty.IsTerminal(stdout.Fd()) {
		return nil, &apperrors.PreflightError{Reason: "stdout is not attached to a terminal"}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, &apperrors.PreflightError{Reason: "resolve working directory", Cause: err}
	}
	repoRoot, err := gitutil.RepoRoot(cwd)
	if err != nil {
		return nil, &apperrors.PreflightError{Reason: "must be run inside a git working tree", Cause: err}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, &apperrors.PreflightError{Reason: "resolve home directory", Cause: err}
	}

	return &Preflight{RepoRoot: repoRoot, HomeDir: home}, nil
}
