// Package vcsprobe implements the VCS change probe (spec.md §4.2): querying
// git for changed-file sets under five modes and normalizing the result into
// absolute, forward-slash paths with vendor/coverage directories excluded.
package vcsprobe

import (
	"context"
	"strings"
	"time"

	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/schema"
)

// VCSClient is the interface this package's LocalClient implements. Kept
// as an alias onto contract.VCSClient so callers can depend on either name,
// matching the teacher's internal/gitclient re-export idiom.
type VCSClient = contract.VCSClient

// auxTimeout bounds every auxiliary VCS subprocess call, per spec.md §4.2
// ("all with a 4-second timeout; empty set on failure").
const auxTimeout = 4 * time.Second

// ChangedFiles queries the probe for the given mode and returns absolute,
// forward-slash-normalized paths excluding vendor and coverage directories.
// On any auxiliary failure it fails soft and returns an empty set, per
// spec.md §7 error kind 2.
func ChangedFiles(client VCSClient, repoPath string, mode schema.ChangedMode) []string {
	ctx, cancel := context.WithTimeout(context.Background(), auxTimeout)
	defer cancel()

	var raw []string
	var err error
	switch mode {
	case schema.ChangedStaged:
		raw, err = client.StagedFiles(ctx, repoPath)
	case schema.ChangedUnstaged:
		raw, err = client.UnstagedFiles(ctx, repoPath)
	case schema.ChangedAll:
		raw, err = unionFiles(ctx, client, repoPath)
	case schema.ChangedLastCommit:
		raw, err = client.LastCommitFiles(ctx, repoPath)
	case schema.ChangedBranch:
		raw, err = client.BranchFiles(ctx, repoPath)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return normalize(repoPath, raw)
}

// unionFiles implements mode=all as the union of staged and unstaged,
// per spec.md §4.2's table and the testable property in §8.
func unionFiles(ctx context.Context, client VCSClient, repoPath string) ([]string, error) {
	staged, err := client.StagedFiles(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	unstaged, err := client.UnstagedFiles(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(staged)+len(unstaged))
	var out []string
	for _, f := range append(staged, unstaged...) {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

// normalize converts every path to absolute, forward-slash form, dedupes,
// and drops vendor/coverage directory entries, per spec.md §3's Selection
// invariant and §4.2's output contract.
func normalize(repoPath string, raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		abs := contract.NormalizeAbsPath(repoPath, p)
		if contract.IsExcludedPath(p) || contract.IsExcludedPath(abs) {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}
