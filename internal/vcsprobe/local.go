package vcsprobe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/arjunv/headlamp/internal/contract"
)

// LocalClient implements VCSClient by executing the local 'git' binary,
// grounded on the teacher's internal/contract/git_local.go LocalGitClient.
type LocalClient struct{}

var _ contract.VCSClient = &LocalClient{}

// NewLocalClient creates a new local git-backed VCS client.
func NewLocalClient() *LocalClient {
	return &LocalClient{}
}

// Run executes a git command and returns its stdout, propagating context
// cancellation/timeout into the child process.
func (c *LocalClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s", repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w", err)
	}
	return out, nil
}

func (c *LocalClient) lines(ctx context.Context, repoPath string, args ...string) ([]string, error) {
	out, err := c.Run(ctx, repoPath, args...)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

// StagedFiles implements spec.md §4.2's `staged` mode:
// `diff --name-only --diff-filter=ACMRTUXB --cached`.
func (c *LocalClient) StagedFiles(ctx context.Context, repoPath string) ([]string, error) {
	return c.lines(ctx, repoPath, "diff", "--name-only", "--diff-filter=ACMRTUXB", "--cached")
}

// UnstagedFiles implements spec.md §4.2's `unstaged` mode: the union of
// `diff --name-only --diff-filter=ACMRTUXB` and
// `ls-files --others --exclude-standard`.
func (c *LocalClient) UnstagedFiles(ctx context.Context, repoPath string) ([]string, error) {
	modified, err := c.lines(ctx, repoPath, "diff", "--name-only", "--diff-filter=ACMRTUXB")
	if err != nil {
		return nil, err
	}
	untracked, err := c.lines(ctx, repoPath, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return append(modified, untracked...), nil
}

// LastCommitFiles implements spec.md §4.2's `lastCommit` mode:
// `diff --name-only --diff-filter=ACMRTUXB HEAD^ HEAD`.
func (c *LocalClient) LastCommitFiles(ctx context.Context, repoPath string) ([]string, error) {
	return c.lines(ctx, repoPath, "diff", "--name-only", "--diff-filter=ACMRTUXB", "HEAD^", "HEAD")
}

// BranchFiles implements spec.md §4.2's `branch` mode: resolve the default
// branch via `symbolic-ref refs/remotes/origin/HEAD`, falling back to
// `origin/main` then `origin/master`; compute the merge-base against HEAD,
// falling back to HEAD^ if no default branch resolves; then return
// `diff <base> HEAD` union staged, unstaged, and untracked files.
func (c *LocalClient) BranchFiles(ctx context.Context, repoPath string) ([]string, error) {
	base, err := c.resolveDiffBase(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	diffed, err := c.lines(ctx, repoPath, "diff", "--name-only", base, "HEAD")
	if err != nil {
		return nil, err
	}
	staged, err := c.StagedFiles(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	unstaged, err := c.UnstagedFiles(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	return append(append(diffed, staged...), unstaged...), nil
}

// resolveDiffBase resolves the default branch, then the merge-base against
// HEAD. If no default branch can be resolved it falls back to HEAD^, per
// spec.md §8 scenario 2.
func (c *LocalClient) resolveDiffBase(ctx context.Context, repoPath string) (string, error) {
	defaultBranch, err := c.defaultBranch(ctx, repoPath)
	if err != nil {
		return "HEAD^", nil
	}
	out, err := c.Run(ctx, repoPath, "merge-base", "HEAD", defaultBranch)
	if err != nil {
		return "HEAD^", nil
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *LocalClient) defaultBranch(ctx context.Context, repoPath string) (string, error) {
	if out, err := c.Run(ctx, repoPath, "symbolic-ref", "refs/remotes/origin/HEAD"); err == nil {
		ref := strings.TrimSpace(string(out))
		ref = strings.TrimPrefix(ref, "refs/remotes/")
		if ref != "" {
			return ref, nil
		}
	}
	for _, candidate := range []string{"origin/main", "origin/master"} {
		if _, err := c.Run(ctx, repoPath, "rev-parse", "--verify", candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.New("no default branch could be resolved")
}

// RepoHash returns the current HEAD commit hash.
func (c *LocalClient) RepoHash(ctx context.Context, repoPath string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// RepoRoot returns the absolute path to the repository root.
func (c *LocalClient) RepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
