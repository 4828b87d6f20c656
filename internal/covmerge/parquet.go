package covmerge

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/arjunv/headlamp/schema"
)

// CoverageSnapshot is one row of a Parquet-exported coverage run: one
// project's merged coverage at a point in time, persisted for long-running
// trend analysis the same way the teacher persists analysis runs.
type CoverageSnapshot struct {
	RunTime           time.Time `parquet:"run_time,snappy"`
	FilePath          string    `parquet:"file_path,snappy"`
	StatementsCovered int32     `parquet:"statements_covered,snappy"`
	StatementsTotal   int32     `parquet:"statements_total,snappy"`
	BranchesCovered   int32     `parquet:"branches_covered,snappy"`
	BranchesTotal     int32     `parquet:"branches_total,snappy"`
	FunctionsCovered  int32     `parquet:"functions_covered,snappy"`
	FunctionsTotal    int32     `parquet:"functions_total,snappy"`
	LinesCovered      int32     `parquet:"lines_covered,snappy"`
	LinesTotal        int32     `parquet:"lines_total,snappy"`
}

// ToSnapshots flattens a CoverageMap into one CoverageSnapshot row per file,
// stamped with runTime.
func ToSnapshots(m schema.CoverageMap, runTime time.Time) []CoverageSnapshot {
	out := make([]CoverageSnapshot, 0, len(m))
	for path, cov := range m {
		out = append(out, CoverageSnapshot{
			RunTime:           runTime,
			FilePath:          path,
			StatementsCovered: int32(cov.Statements.Covered),
			StatementsTotal:   int32(cov.Statements.Total),
			BranchesCovered:   int32(cov.Branches.Covered),
			BranchesTotal:     int32(cov.Branches.Total),
			FunctionsCovered:  int32(cov.Functions.Covered),
			FunctionsTotal:    int32(cov.Functions.Total),
			LinesCovered:      int32(cov.Lines.Covered),
			LinesTotal:        int32(cov.Lines.Total),
		})
	}
	return out
}

// WriteSnapshotsParquet writes coverage snapshot rows to a Parquet file at
// outputPath, for consumption by external trend-analysis tooling.
func WriteSnapshotsParquet(data []CoverageSnapshot, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create parquet output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[CoverageSnapshot](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("write coverage snapshots to parquet: %w", err)
	}
	return nil
}
