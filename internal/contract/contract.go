// Package contract provides interfaces and shared utilities for headlamp's
// internal architecture. Production code depends only on these interfaces,
// never a concrete implementation, so the selection-and-dispatch pipeline can
// be tested without a real git binary or backing test runner.
package contract

import (
	"context"
	"time"

	"github.com/arjunv/headlamp/schema"
)

// VCSClient defines the operations the change probe needs from version
// control (spec.md §4.2). Its use should be minimized in favor of the
// explicit methods below over the generic Run.
type VCSClient interface {
	// Run executes a VCS command and returns its combined stdout.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// StagedFiles returns files changed in the index.
	StagedFiles(ctx context.Context, repoPath string) ([]string, error)

	// UnstagedFiles returns files changed in the working tree plus untracked files.
	UnstagedFiles(ctx context.Context, repoPath string) ([]string, error)

	// LastCommitFiles returns files changed in HEAD relative to HEAD^.
	LastCommitFiles(ctx context.Context, repoPath string) ([]string, error)

	// BranchFiles returns files changed relative to the repo's default-branch
	// merge-base, falling back to HEAD^ when no merge base can be resolved.
	BranchFiles(ctx context.Context, repoPath string) ([]string, error)

	// RepoHash returns the current HEAD commit hash, used as a cache-key component.
	RepoHash(ctx context.Context, repoPath string) (string, error)

	// RepoRoot returns the absolute path to the repository root.
	RepoRoot(ctx context.Context, contextPath string) (string, error)
}

// CacheManager defines the interface for managing the discovery cache store.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetDiscoveryStore() CacheStore
}

// CacheStore is the durable discovery-cache backend interface. Implemented
// over SQLite/MySQL/PostgreSQL via database/sql, or a no-op store when
// caching is disabled.
type CacheStore interface {
	Get(key string) (value []byte, version int, timestamp int64, err error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunnerClient is the contract each backing-runner adapter implements: list
// the test files it would run for an argument set, and execute with the
// event bridge wired in. See spec.md §6 for the wire contract.
type RunnerClient interface {
	// ListTests interrogates the runner in list-only mode and returns the
	// test files it would execute for the given arguments.
	ListTests(ctx context.Context, project schema.Project, args []string, timeout time.Duration) ([]string, error)

	// Execute runs the project's tests with the bridge wired in and returns
	// the exit code plus captured combined stdout/stderr.
	Execute(ctx context.Context, project schema.Project, args []string, env []string) (exitCode int, captured []byte, err error)
}
