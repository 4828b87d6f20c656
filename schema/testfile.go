package schema

import (
	"math"
	"regexp"
	"strings"
)

// testFilePattern matches Jest-style `.test.`/`.spec.` suffixed source files.
var testFilePattern = regexp.MustCompile(`\.(test|spec)\.[tj]sx?$`)

// testDirPattern matches a `/test/` or `/tests/` path segment.
var testDirPattern = regexp.MustCompile(`(^|/)tests?/`)

// IsTestPath reports whether path looks like a test file per spec §3:
// matches the test-suffix regex, or contains a /test/ or /tests/ segment.
func IsTestPath(path string) bool {
	return testFilePattern.MatchString(path) || testDirPattern.MatchString(path)
}

// sourceExtensions is the fixed resolution list used when resolving a
// relative or root-anchored import specifier to a file on disk.
var sourceExtensions = []string{"", ".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"}

// ResolutionExtensions returns the fixed extension list (plus index
// fallback handled by callers) used to resolve import specifiers.
func ResolutionExtensions() []string {
	return sourceExtensions
}

// Unrelated is the directness rank of a file with no import path to any seed.
const Unrelated = math.MaxInt

// DirectnessRank maps an absolute file path to its shortest import-graph
// distance from some production seed. Absence means Unrelated.
type DirectnessRank map[string]int

// RankOf returns the rank for path, or Unrelated if absent.
func (r DirectnessRank) RankOf(path string) int {
	if rank, ok := r[path]; ok {
		return rank
	}
	return Unrelated
}

// ImportEdge is a directed edge from a source file to a resolved or
// unresolved import target.
type ImportEdge struct {
	From     string
	To       string // absolute resolved path, or the raw bare specifier
	Resolved bool
}

// sourceExtRegex recognizes path-like tokens ending in a known source extension.
var sourceExtRegex = regexp.MustCompile(`\.(test|spec\.)?[tj]sx?$|\.py$|\.rs$|\.go$`)

// LooksPathLike reports whether a raw CLI token looks like a filesystem
// path: it contains a path separator, or ends in a recognized source-file
// extension.
func LooksPathLike(token string) bool {
	if strings.ContainsRune(token, '/') || strings.ContainsRune(token, '\\') {
		return true
	}
	return sourceExtRegex.MatchString(token)
}
