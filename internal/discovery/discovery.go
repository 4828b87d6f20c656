package discovery

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/schema"
)

// runnerTimeout bounds a single list-only interrogation of a backing runner,
// per spec.md §4.3.
const runnerTimeout = 4 * time.Second

// namePatternGlobs are the candidate globs used by name-pattern-only mode,
// per spec.md §4.3.
var namePatternGlobs = []string{"**/*.test.*", "**/*.spec.*", "tests/**/*"}

// Engine runs the discovery operation, cached by CacheManager when one is
// configured.
type Engine struct {
	Runner contract.RunnerClient
	Cache  contract.CacheManager
	// SelectorUnion supplies the full set of known test files for a project,
	// used by the fast content pre-selector (spec.md §4.3 strategy 1) and by
	// name-pattern-only mode's ownership hand-off.
	SelectorUnion func(project schema.Project) ([]string, error)
}

// Discover produces the set of test files a project's runner would execute
// for the given selection, trying the fast pre-selector, then the cache,
// then runner interrogation, in that order.
func (e *Engine) Discover(ctx context.Context, project schema.Project, sel schema.Selection, repoHeadCommit string) ([]string, error) {
	args := buildRunnerArgs(sel)

	if sel.NamePatternOnly() {
		return e.discoverByNamePattern(project, sel.NamePattern)
	}

	if isProductionLikeOnly(sel) {
		if e.SelectorUnion != nil {
			return e.SelectorUnion(project)
		}
	}

	key := CacheKey(project.ConfigPath, args, repoHeadCommit)
	if !sel.NoCache && e.Cache != nil {
		if store := e.Cache.GetDiscoveryStore(); store != nil {
			if cached, ok := e.readCache(store, key); ok {
				return cached, nil
			}
		}
	}

	files, err := e.interrogateRunner(ctx, project, args)
	if err != nil {
		return nil, err
	}

	if !sel.NoCache && e.Cache != nil {
		if store := e.Cache.GetDiscoveryStore(); store != nil {
			e.writeCache(store, key, files)
		}
	}
	return files, nil
}

func isProductionLikeOnly(sel schema.Selection) bool {
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

func buildRunnerArgs(sel schema.Selection) []string {
	args := append([]string{}, sel.Paths...)
	if sel.NamePattern != "" {
		args = append(args, "-t", sel.NamePattern)
	}
	args = append(args, sel.Forwarded...)
	return args
}

func (e *Engine) readCache(store contract.CacheStore, key string) ([]string, bool) {
	value, _, ts, err := store.Get(key)
	if err != nil {
		return nil, false
	}
	if time.Since(time.Unix(ts, 0)) > schema.DiscoveryCacheTTL {
		return nil, false
	}
	var files []string
	if err := json.Unmarshal(value, &files); err != nil {
		return nil, false
	}
	return files, true
}

func (e *Engine) writeCache(store contract.CacheStore, key string, files []string) {
	value, err := json.Marshal(files)
	if err != nil {
		return
	}
	_ = store.Set(key, value, 1, time.Now().Unix())
}

// interrogateRunner invokes the backing runner in list-only mode with a
// strict timeout. On non-zero exit, output is still parsed for file paths
// one-per-line, filtered for existence, per spec.md §4.3 strategy 2.
func (e *Engine) interrogateRunner(ctx context.Context, project schema.Project, args []string) ([]string, error) {
	if e.Runner == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, runnerTimeout)
	defer cancel()

	files, err := e.Runner.ListTests(ctx, project, args, runnerTimeout)
	if err == nil {
		return files, nil
	}
	// Fall back to salvaging whatever paths came back despite the error.
	return filterExisting(files), nil
}

func filterExisting(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := os.Stat(c); err == nil {
			out = append(out, c)
		}
	}
	return out
}

// discoverByNamePattern implements spec.md §4.3's name-pattern-only mode:
// filesystem-grep candidate test files for literal occurrences of pattern.
func (e *Engine) discoverByNamePattern(project schema.Project, pattern string) ([]string, error) {
	var candidates []string
	if e.SelectorUnion != nil {
		union, err := e.SelectorUnion(project)
		if err != nil {
			return nil, err
		}
		candidates = union
	} else {
		var err error
		candidates, err = walkGlobs(project.WorkingDirectory, namePatternGlobs)
		if err != nil {
			return nil, err
		}
	}

	var matches []string
	for _, c := range candidates {
		if containsLiteral(c, pattern) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func walkGlobs(root string, globs []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if contract.IsExcludedPath(rel) {
			return nil
		}
		for _, g := range globs {
			if ok, matchErr := doublestar.Match(g, rel); matchErr == nil && ok {
				out = append(out, path)
				break
			}
		}
		return nil
	})
	return out, err
}

func containsLiteral(path, pattern string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if bytes.Contains(scanner.Bytes(), []byte(pattern)) {
			return true
		}
	}
	return false
}
