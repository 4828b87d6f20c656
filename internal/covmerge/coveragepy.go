package covmerge

import (
	"encoding/json"
	"os"

	"github.com/arjunv/headlamp/schema"
)

// coveragePyFile mirrors the per-file shape of `coverage json`'s output
// (coverage.py's native JSON exporter), restricted to the fields the
// merger needs.
type coveragePyFile struct {
	Summary struct {
		CoveredLines    int `json:"covered_lines"`
		NumStatements   int `json:"num_statements"`
		CoveredBranches int `json:"covered_branches"`
		NumBranches     int `json:"num_branches"`
	} `json:"summary"`
	MissingLines []int `json:"missing_lines"`
}

type coveragePyReport struct {
	Files map[string]coveragePyFile `json:"files"`
}

// ParseCoveragePyJSON parses a `coverage json` report into a CoverageMap,
// used for the scripting-language runner's native coverage exporter.
func ParseCoveragePyJSON(path string) (schema.CoverageMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var report coveragePyReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	out := make(schema.CoverageMap, len(report.Files))
	for path, rec := range report.Files {
		out[path] = schema.FileCoverage{
			Path: path,
			Statements: schema.CoverageCount{
				Covered: rec.Summary.CoveredLines,
				Total:   rec.Summary.NumStatements,
			},
			Lines: schema.CoverageCount{
				Covered: rec.Summary.CoveredLines,
				Total:   rec.Summary.NumStatements,
			},
			Branches: schema.CoverageCount{
				Covered: rec.Summary.CoveredBranches,
				Total:   rec.Summary.NumBranches,
			},
			Uncovered: rec.MissingLines,
		}
	}
	return out, nil
}
