package covmerge

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arjunv/headlamp/schema"
)

// LCOVFileName is the filename the native test tool's coverage exporter
// writes its trace file as.
const LCOVFileName = "lcov.info"

// MergeLCOVFiles concatenates every non-empty lcov.info file under root into
// one merged trace file at destPath, per spec.md §4.10's native-runner merge
// path (LCOV has no in-process merge semantics, only textual concatenation).
func MergeLCOVFiles(root, destPath string) (int, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != LCOVFileName {
			return nil
		}
		if info, statErr := d.Info(); statErr == nil && info.Size() > 0 {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(found) == 0 {
		return 0, nil
	}

	out, err := os.Create(destPath)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	for _, path := range found {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			continue
		}
		if _, err := out.Write(data); err != nil {
			return 0, err
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			if _, err := out.Write([]byte("\n")); err != nil {
				return 0, err
			}
		}
	}
	return len(found), nil
}

// ParseLCOV parses an lcov.info trace file into a CoverageMap; WalkAndMerge
// uses it for every lcov.info report it finds.
func ParseLCOV(path string) (schema.CoverageMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := schema.CoverageMap{}
	var current string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "SF:"):
			current = strings.TrimPrefix(line, "SF:")
			out[current] = schema.FileCoverage{Path: current}
		case strings.HasPrefix(line, "LH:"):
			applyLCOVCount(out, current, parseLCOVInt(line, "LH:"), func(fc *schema.FileCoverage, v int) { fc.Lines.Covered = v })
		case strings.HasPrefix(line, "LF:"):
			applyLCOVCount(out, current, parseLCOVInt(line, "LF:"), func(fc *schema.FileCoverage, v int) { fc.Lines.Total = v })
		case strings.HasPrefix(line, "FNH:"):
			applyLCOVCount(out, current, parseLCOVInt(line, "FNH:"), func(fc *schema.FileCoverage, v int) { fc.Functions.Covered = v })
		case strings.HasPrefix(line, "FNF:"):
			applyLCOVCount(out, current, parseLCOVInt(line, "FNF:"), func(fc *schema.FileCoverage, v int) { fc.Functions.Total = v })
		case strings.HasPrefix(line, "BRH:"):
			applyLCOVCount(out, current, parseLCOVInt(line, "BRH:"), func(fc *schema.FileCoverage, v int) { fc.Branches.Covered = v })
		case strings.HasPrefix(line, "BRF:"):
			applyLCOVCount(out, current, parseLCOVInt(line, "BRF:"), func(fc *schema.FileCoverage, v int) { fc.Branches.Total = v })
		}
	}
	return out, scanner.Err()
}

func applyLCOVCount(m schema.CoverageMap, path string, value int, set func(*schema.FileCoverage, int)) {
	if path == "" {
		return
	}
	fc := m[path]
	set(&fc, value)
	m[path] = fc
}

func parseLCOVInt(line, prefix string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(line, prefix))
	return n
}
