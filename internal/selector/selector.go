// Package selector implements the graph-based test selector (spec.md §4.4):
// given a set of changed/selected production files, it computes the set of
// test files that transitively reach them through imports, along with a
// directness rank for ordering results.
package selector

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/schema"
)

// WorkerPoolSize is the fixed selector concurrency, per spec.md §5.
const WorkerPoolSize = contract.DefaultSelectorPool

// importRegexes extract import specifiers by regex, per spec.md §3: ES
// import/export-from and CommonJS require.
var importRegexes = []*regexp.Regexp{
	regexp.MustCompile(`import\s+(?:[^'"]*\s+from\s+)?["']([^"']+)["']`),
	regexp.MustCompile(`export\s+(?:[^'"]*\s+from\s+)?["']([^"']+)["']`),
	regexp.MustCompile(`require\(\s*["']([^"']+)["']\s*\)`),
}

// Arena is the memoization arena shared across a single selection run:
// file bodies, extracted import specifiers, resolved import edges, and
// (file, depth) match results, each an LRU bounded by NewArena's size so
// memory stays bounded on large repositories, per spec.md §4.4 step 3.
type Arena struct {
	bodies    *lru.Cache[string, string]
	specs     *lru.Cache[string, []string]
	resolved  *lru.Cache[string, string]
	matchMemo *lru.Cache[string, matchResult]
}

type matchResult struct {
	matched bool
	rank    int
}

// NewArena creates a fresh memoization arena. size bounds each internal
// cache; 4096 comfortably covers most repositories in one invocation.
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		size = 4096
	}
	bodies, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	specs, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	resolved, err := lru.New[string, string](size * 4)
	if err != nil {
		return nil, err
	}
	matchMemo, err := lru.New[string, matchResult](size * 4)
	if err != nil {
		return nil, err
	}
	return &Arena{bodies: bodies, specs: specs, resolved: resolved, matchMemo: matchMemo}, nil
}

func (a *Arena) body(path string) string {
	if cached, ok := a.bodies.Get(path); ok {
		return cached
	}
	data, err := os.ReadFile(path)
	body := ""
	if err == nil {
		body = string(data)
	}
	a.bodies.Add(path, body)
	return body
}

func (a *Arena) importSpecifiers(path string) []string {
	if cached, ok := a.specs.Get(path); ok {
		return cached
	}
	body := a.body(path)
	seen := make(map[string]struct{})
	var specs []string
	for _, re := range importRegexes {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			if _, ok := seen[m[1]]; ok {
				continue
			}
			seen[m[1]] = struct{}{}
			specs = append(specs, m[1])
		}
	}
	a.specs.Add(path, specs)
	return specs
}

// SeedTokens builds the substring-match tokens for a production path, per
// spec.md §4.4 step 1: the repo-relative path without extension, its
// basename, and its last-two-segment suffix.
func SeedTokens(repoRoot, path string) []string {
	rel, err := filepath.Rel(repoRoot, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	noExt := strings.TrimSuffix(rel, filepath.Ext(rel))
	base := filepath.Base(noExt)

	tokens := []string{noExt, base}
	segments := strings.Split(noExt, "/")
	if len(segments) >= 2 {
		tokens = append(tokens, strings.Join(segments[len(segments)-2:], "/"))
	}
	return tokens
}

func bodyMatches(body string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(body, t) {
			return true
		}
	}
	return false
}

// resolveImport resolves a relative or root-anchored specifier against the
// repo's extension-and-index rules (spec.md §3). Non-relative bare
// specifiers are left unresolved and dropped, per spec.md §4.4's failure
// modes.
func resolveImport(fromFile, repoRoot, specifier string) (string, bool) {
	if !strings.HasPrefix(specifier, ".") && !strings.HasPrefix(specifier, "/") {
		return "", false
	}
	base := specifier
	if strings.HasPrefix(specifier, "/") {
		base = filepath.Join(repoRoot, specifier)
	} else {
		base = filepath.Join(filepath.Dir(fromFile), specifier)
	}

	for _, ext := range schema.ResolutionExtensions() {
		candidate := base + ext
		if fileExists(candidate) {
			return candidate, true
		}
	}
	for _, ext := range schema.ResolutionExtensions() {
		if ext == "" {
			continue
		}
		candidate := filepath.Join(base, "index"+ext)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// matchesTransitively implements spec.md §4.4 step 2: depth-bounded
// depth-first search through imports, memoized by (file, depth). The rank is
// the smallest depth at which any import path reaches a seed.
func matchesTransitively(arena *Arena, repoRoot, file string, depth, changedDepth int, seeds []string) matchResult {
	key := file + "\x00" + strconv.Itoa(depth)
	if cached, ok := arena.matchMemo.Get(key); ok {
		return cached
	}

	var result matchResult
	switch {
	case depth > changedDepth:
		result = matchResult{matched: false}
	case bodyMatches(arena.body(file), seeds):
		result = matchResult{matched: true, rank: depth}
	default:
		result = matchResult{matched: false}
		for _, spec := range arena.importSpecifiers(file) {
			cacheKey := file + "\x00" + spec
			resolvedPath, cached := arena.resolved.Get(cacheKey)
			if !cached {
				resolvedPath, _ = resolveImport(file, repoRoot, spec)
				arena.resolved.Add(cacheKey, resolvedPath)
			}
			if resolvedPath == "" {
				continue
			}
			sub := matchesTransitively(arena, repoRoot, resolvedPath, depth+1, changedDepth, seeds)
			if sub.matched && (!result.matched || sub.rank < result.rank) {
				result = matchResult{matched: true, rank: sub.rank}
			}
		}
	}

	arena.matchMemo.Add(key, result)
	return result
}

// SelectDirectTests implements spec.md's `select_direct_tests`. It always
// runs the fast content-substring pass (depth 0 check) first; transitive
// depth-first refinement into imports only matters once changedDepth > 0, preserving
// the original's fast-path/slow-path layering.
func SelectDirectTests(ctx context.Context, arena *Arena, repoRoot string, testFiles, productionSeeds []string, changedDepth int) ([]string, schema.DirectnessRank, error) {
	if arena == nil {
		var err error
		arena, err = NewArena(0)
		if err != nil {
			return nil, nil, err
		}
	}

	seeds := make([]string, 0, len(productionSeeds)*3)
	for _, p := range productionSeeds {
		seeds = append(seeds, SeedTokens(repoRoot, p)...)
	}

	rank := make(schema.DirectnessRank, len(productionSeeds))
	for _, p := range productionSeeds {
		rank[p] = 0
	}

	kept := make([]string, len(testFiles))
	matched := make([]bool, len(testFiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(WorkerPoolSize)
	for i, tf := range testFiles {
		i, tf := i, tf
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			result := matchesTransitively(arena, repoRoot, tf, 0, changedDepth, seeds)
			if result.matched {
				matched[i] = true
				kept[i] = tf
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make([]string, 0, len(testFiles))
	for i, tf := range testFiles {
		if matched[i] {
			out = append(out, tf)
			rank[tf] = matchesTransitively(arena, repoRoot, tf, 0, changedDepth, seeds).rank
		}
	}
	return out, rank, nil
}

// SelectWithFallback implements spec.md §4.4's fallback chain: (a) if the
// scoped selection yields zero, re-run against the full union of tests
// across all projects; (b) if still zero, skip graph selection entirely and
// let the caller fall back to running every test.
func SelectWithFallback(ctx context.Context, arena *Arena, repoRoot string, scopedTests, unionTests, productionSeeds []string, changedDepth int) (kept []string, rank schema.DirectnessRank, usedFallback bool, err error) {
	kept, rank, err = SelectDirectTests(ctx, arena, repoRoot, scopedTests, productionSeeds, changedDepth)
	if err != nil || len(kept) > 0 {
		return kept, rank, false, err
	}
	kept, rank, err = SelectDirectTests(ctx, arena, repoRoot, unionTests, productionSeeds, changedDepth)
	if err != nil {
		return nil, nil, false, err
	}
	if len(kept) > 0 {
		return kept, rank, true, nil
	}
	return unionTests, rank, true, nil
}
