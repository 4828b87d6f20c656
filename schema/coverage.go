package schema

// CoverageCount is a covered/total pair for one coverage metric.
type CoverageCount struct {
	Covered int `json:"covered"`
	Total   int `json:"total"`
}

// Add returns the additive union of two coverage counts.
func (c CoverageCount) Add(other CoverageCount) CoverageCount {
	return CoverageCount{Covered: c.Covered + other.Covered, Total: c.Total + other.Total}
}

// Pct returns the covered percentage, or 100 when Total is zero.
func (c CoverageCount) Pct() float64 {
	if c.Total == 0 {
		return 100
	}
	return 100 * float64(c.Covered) / float64(c.Total)
}

// FileCoverage is the per-file coverage record: statements, branches,
// functions, and lines, each with a covered/total pair.
type FileCoverage struct {
	Path       string        `json:"path"`
	Statements CoverageCount `json:"statements"`
	Branches   CoverageCount `json:"branches"`
	Functions  CoverageCount `json:"functions"`
	Lines      CoverageCount `json:"lines"`
	// Uncovered indexes locations (by line number) not exercised, used by the
	// detail/deep-dive printer's hotspot listing.
	Uncovered []int `json:"uncovered,omitempty"`
}

// Merge additively unions two FileCoverage records for the same path.
func (f FileCoverage) Merge(other FileCoverage) FileCoverage {
	return FileCoverage{
		Path:       f.Path,
		Statements: f.Statements.Add(other.Statements),
		Branches:   f.Branches.Add(other.Branches),
		Functions:  f.Functions.Add(other.Functions),
		Lines:      f.Lines.Add(other.Lines),
		Uncovered:  append(append([]int{}, f.Uncovered...), other.Uncovered...),
	}
}

// CoverageMap is a mapping of file path to its coverage record. Mergeable
// by additive union on covered counts, per spec.md §3.
type CoverageMap map[string]FileCoverage

// Merge additively unions other into a new CoverageMap, leaving both inputs
// untouched.
func (m CoverageMap) Merge(other CoverageMap) CoverageMap {
	out := make(CoverageMap, len(m)+len(other))
	for path, cov := range m {
		out[path] = cov
	}
	for path, cov := range other {
		if existing, ok := out[path]; ok {
			out[path] = existing.Merge(cov)
		} else {
			out[path] = cov
		}
	}
	return out
}

// Totals sums statements/branches/functions/lines across every file.
func (m CoverageMap) Totals() FileCoverage {
	var total FileCoverage
	for _, cov := range m {
		total = total.Merge(cov)
	}
	return total
}
