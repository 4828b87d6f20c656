// Package dispatch implements the dispatch planner (spec.md §4.6): decides
// whether to run each project's runner, assembles per-project argument
// lists, and orchestrates bounded-parallel execution across projects.
package dispatch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/schema"
)

// CandidateThreshold is the default share-of-total a project's candidate
// set must clear to run when the selection wasn't explicit, per spec.md
// §4.6's should_run rule.
const CandidateThreshold = 0.05

// Candidate is one project's discovered-and-owned test-file set going into
// the dispatch decision.
type Candidate struct {
	Project schema.Project
	Files   []string
}

// ShouldRun implements spec.md §4.6's should_run decision function.
func ShouldRun(sel schema.Selection, candidate Candidate, totalDiscovered int) bool {
	if sel.NamePatternOnly() {
		return true
	}
	if len(candidate.Files) == 0 {
		return false
	}
	if sel.Specified {
		return true
	}
	if totalDiscovered == 0 {
		return false
	}
	share := float64(len(candidate.Files)) / float64(totalDiscovered)
	return share > CandidateThreshold
}

// RunResult is the outcome of dispatching one project.
type RunResult struct {
	Project  schema.Project
	ExitCode int
	Captured []byte
	Err      error
}

// RunFunc executes one project's dispatched run.
type RunFunc func(ctx context.Context, candidate Candidate, args []string) RunResult

// Dispatch runs each selected project's runner in bounded-parallel strides
// of 3, or strictly serialized when sel.Sequential is set, per spec.md §4.6
// and §5.
func Dispatch(ctx context.Context, candidates []Candidate, sel schema.Selection, bridgeOut map[string]string, run RunFunc) ([]RunResult, error) {
	total := 0
	for _, c := range candidates {
		total += len(c.Files)
	}

	var toRun []Candidate
	for _, c := range candidates {
		if ShouldRun(sel, c, total) {
			toRun = append(toRun, c)
		}
	}

	stride := contract.DefaultStride
	if sel.Sequential {
		stride = 1
	}

	results := make([]RunResult, len(toRun))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(stride)
	for i, c := range toRun {
		i, c := i, c
		g.Go(func() error {
			args := AssembleArgs(c.Project, c.Files, sel, bridgeOut[c.Project.ConfigPath])
			results[i] = run(gctx, c, args)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// AssembleArgs builds a project's final argument list: config path,
// test-location flag, reporter-plugin path, color forcing, forwarded args
// (stripped of positional path tokens when the selection was
// production-like), coverage directory injection, and per-file
// `--collectCoverageFrom` entries, per spec.md §4.6.
func AssembleArgs(project schema.Project, files []string, sel schema.Selection, reporterPath string) []string {
	args := []string{"--config", project.ConfigPath, "--testLocationInResults", "--color"}

	if reporterPath != "" {
		args = append(args, "--reporters", reporterPath)
	}

	if !sel.NamePatternOnly() {
		args = append(args, files...)
	}
	if sel.NamePattern != "" {
		args = append(args, "-t", sel.NamePattern)
	}

	args = append(args, forwardedWithoutPositionals(sel)...)

	if sel.Coverage != nil && sel.Coverage.Enabled {
		args = append(args, "--coverage", "--coverageDirectory", coverageDir(project))
		for _, f := range files {
			if !schema.IsTestPath(f) {
				args = append(args, fmt.Sprintf("--collectCoverageFrom=%s", f))
			}
		}
	}
	return args
}

func forwardedWithoutPositionals(sel schema.Selection) []string {
	if !isProductionLikeSelection(sel) {
		return sel.Forwarded
	}
	var out []string
	for _, tok := range sel.Forwarded {
		if schema.LooksPathLike(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isProductionLikeSelection(sel schema.Selection) bool {
	if !sel.Specified || len(sel.Paths) == 0 {
		return false
	}
	for _, p := range sel.Paths {
		if schema.IsTestPath(p) {
			return false
		}
	}
	return true
}

func coverageDir(project schema.Project) string {
	return project.WorkingDirectory + "/coverage"
}
