package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultExcludedDirs are the directory prefixes every path-producing
// component (VCS probe, discovery, selector, coverage merger) filters out,
// per spec.md §3: "paths never contain vendor/coverage directories."
var defaultExcludedDirs = []string{
	"node_modules/", "vendor/", "coverage/", ".git/", "dist/", "build/",
}

// IsExcludedPath reports whether path falls under a vendor or coverage
// directory and should never appear in a selection, VCS diff, or discovery
// result.
func IsExcludedPath(path string) bool {
	for _, prefix := range defaultExcludedDirs {
		if strings.Contains(path, "/"+prefix) || strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// NormalizeAbsPath converts path to an absolute, forward-slash path rooted
// at repoRoot, matching the normalization spec.md §2/§3 require of every
// component that produces paths.
func NormalizeAbsPath(repoRoot, path string) string {
	abs := path
	if !filepath.IsAbs(path) {
		abs = filepath.Join(repoRoot, path)
	}
	return filepath.ToSlash(abs)
}

// MatchAnyGlob reports whether path matches any of the given doublestar
// glob patterns (supporting `**`). The coverage merger and the ownership
// filter call doublestar directly rather than this helper.
func MatchAnyGlob(path string, globs []string) bool {
	for _, g := range globs {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. It falls back to os.Stdout when filePath is empty.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// TruncatePath truncates a file path to a maximum width with an ellipsis
// prefix. Requires maxWidth > 3 so there's room for both the "..." prefix
// and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean. Accepts "yes",
// "no", "true", "false", "1", "0" (case-insensitive). Returns an error for
// invalid values, per spec.md §4.1's `--color` flag.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// DiscoveryCacheDBFilePath returns the default path to the SQLite discovery
// cache database, rooted under the repository's .cache directory per
// spec.md §6 "Persisted state".
func DiscoveryCacheDBFilePath(repoRoot string) string {
	return filepath.Join(repoRoot, ".cache", "headlamp", "discovery.db")
}
