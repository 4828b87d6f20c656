package covmerge

import (
	"fmt"
	"sort"

	"github.com/arjunv/headlamp/schema"
)

// ThresholdFailure names one file (or the aggregate, when Path is empty)
// whose coverage fell below the configured threshold.
type ThresholdFailure struct {
	Path string
	Pct  float64
}

func (f ThresholdFailure) String() string {
	if f.Path == "" {
		return fmt.Sprintf("aggregate coverage %.2f%% below threshold", f.Pct)
	}
	return fmt.Sprintf("%s: %.2f%% below threshold", f.Path, f.Pct)
}

// EnforceThresholds checks the merged map's aggregate statement coverage,
// and every individual file, against a single global percentage threshold,
// per spec.md §4.1's `--coverage.threshold` option. A threshold of zero
// disables enforcement entirely.
func EnforceThresholds(m schema.CoverageMap, threshold float64) []ThresholdFailure {
	if threshold <= 0 {
		return nil
	}

	var failures []ThresholdFailure
	if totals := m.Totals(); totals.Statements.Pct() < threshold {
		failures = append(failures, ThresholdFailure{Pct: totals.Statements.Pct()})
	}

	for path, cov := range m {
		if pct := cov.Statements.Pct(); pct < threshold {
			failures = append(failures, ThresholdFailure{Path: path, Pct: pct})
		}
	}

	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Path == "" {
			return true
		}
		if failures[j].Path == "" {
			return false
		}
		return failures[i].Path < failures[j].Path
	})
	return failures
}
