package covmerge

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arjunv/headlamp/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIstanbul = `{
  "src/a.ts": {
    "path": "src/a.ts",
    "s": {"0": 1, "1": 0},
    "b": {"0": [1, 0]},
    "f": {"0": 1}
  }
}`

func TestParseIstanbulJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, CoverageFinalName)
	require.NoError(t, os.WriteFile(path, []byte(sampleIstanbul), 0o644))

	m, err := ParseIstanbulJSON(path)
	require.NoError(t, err)
	require.Contains(t, m, "src/a.ts")
	cov := m["src/a.ts"]
	assert.Equal(t, 1, cov.Statements.Covered)
	assert.Equal(t, 2, cov.Statements.Total)
	assert.Equal(t, 1, cov.Branches.Covered)
	assert.Equal(t, 2, cov.Branches.Total)
	assert.Equal(t, 1, cov.Functions.Covered)
	assert.Equal(t, 1, cov.Functions.Total)
}

func TestWalkAndMerge_FindsNestedArtifacts(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "project-a", "coverage")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, CoverageFinalName), []byte(sampleIstanbul), 0o644))

	merged, err := WalkAndMerge(root)
	require.NoError(t, err)
	assert.Contains(t, merged, "src/a.ts")
}

func TestWalkAndMerge_MergesAllThreeArtifactKinds(t *testing.T) {
	root := t.TempDir()
	jestDir := filepath.Join(root, "web")
	nativeDir := filepath.Join(root, "core")
	pyDir := filepath.Join(root, "scripts")
	require.NoError(t, os.MkdirAll(jestDir, 0o755))
	require.NoError(t, os.MkdirAll(nativeDir, 0o755))
	require.NoError(t, os.MkdirAll(pyDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(jestDir, CoverageFinalName), []byte(sampleIstanbul), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nativeDir, LCOVFileName), []byte("SF:src/b.go\nLH:1\nLF:2\nend_of_record\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pyDir, CoveragePyFileName),
		[]byte(`{"files": {"app/main.py": {"summary": {"covered_lines": 1, "num_statements": 2, "covered_branches": 0, "num_branches": 0}}}}`), 0o644))

	merged, err := WalkAndMerge(root)
	require.NoError(t, err)
	assert.Contains(t, merged, "src/a.ts")
	assert.Contains(t, merged, "src/b.go")
	assert.Contains(t, merged, "app/main.py")
}

func TestFilterByGlobs_RetriesWithWildcardWhenEmpty(t *testing.T) {
	m := schema.CoverageMap{
		"src/a.ts": {Path: "src/a.ts", Statements: schema.CoverageCount{Covered: 1, Total: 2}},
	}
	filtered := FilterByGlobs(m, []string{"nomatch/**"}, nil)
	assert.Len(t, filtered, 1)
}

func TestFilterByGlobs_ExcludeWins(t *testing.T) {
	m := schema.CoverageMap{
		"src/a.ts": {Path: "src/a.ts"},
		"src/b.ts": {Path: "src/b.ts"},
	}
	filtered := FilterByGlobs(m, []string{"src/**"}, []string{"src/b.ts"})
	assert.Contains(t, filtered, "src/a.ts")
	assert.NotContains(t, filtered, "src/b.ts")
}

func TestEnforceThresholds_FlagsFilesBelowThreshold(t *testing.T) {
	m := schema.CoverageMap{
		"src/a.ts": {Path: "src/a.ts", Statements: schema.CoverageCount{Covered: 9, Total: 10}},
		"src/b.ts": {Path: "src/b.ts", Statements: schema.CoverageCount{Covered: 1, Total: 10}},
	}
	failures := EnforceThresholds(m, 80)
	var gotFile bool
	for _, f := range failures {
		if f.Path == "src/b.ts" {
			gotFile = true
		}
	}
	assert.True(t, gotFile)
}

func TestEnforceThresholds_DisabledAtZero(t *testing.T) {
	m := schema.CoverageMap{"src/a.ts": {Statements: schema.CoverageCount{Covered: 0, Total: 10}}}
	assert.Empty(t, EnforceThresholds(m, 0))
}

func TestMergeLCOVFiles_ConcatenatesNonEmptyFiles(t *testing.T) {
	root := t.TempDir()
	dir1 := filepath.Join(root, "p1")
	dir2 := filepath.Join(root, "p2")
	require.NoError(t, os.MkdirAll(dir1, 0o755))
	require.NoError(t, os.MkdirAll(dir2, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir1, LCOVFileName), []byte("SF:a.go\nLH:1\nLF:2\nend_of_record\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir2, LCOVFileName), []byte(""), 0o644))

	dest := filepath.Join(root, "merged.info")
	n, err := MergeLCOVFiles(root, dest)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SF:a.go")
}

func TestParseLCOV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LCOVFileName)
	content := "SF:src/a.go\nFNF:2\nFNH:1\nBRF:4\nBRH:2\nLF:10\nLH:8\nend_of_record\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := ParseLCOV(path)
	require.NoError(t, err)
	cov := m["src/a.go"]
	assert.Equal(t, 8, cov.Lines.Covered)
	assert.Equal(t, 10, cov.Lines.Total)
	assert.Equal(t, 1, cov.Functions.Covered)
	assert.Equal(t, 4, cov.Branches.Total)
}

func TestParseCoveragePyJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coverage.json")
	content := `{"files": {"app/main.py": {"summary": {"covered_lines": 8, "num_statements": 10, "covered_branches": 1, "num_branches": 2}, "missing_lines": [5, 6]}}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := ParseCoveragePyJSON(path)
	require.NoError(t, err)
	cov := m["app/main.py"]
	assert.Equal(t, 8, cov.Lines.Covered)
	assert.Equal(t, []int{5, 6}, cov.Uncovered)
}

func TestWriteCompositeTable_RendersWithoutError(t *testing.T) {
	m := schema.CoverageMap{
		"src/a.ts": {Statements: schema.CoverageCount{Covered: 1, Total: 2}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCompositeTable(&buf, m))
	assert.NotEmpty(t, buf.String())
}

func TestWriteDeepDive_BoundsByMaxFilesAndHotspots(t *testing.T) {
	m := schema.CoverageMap{
		"src/a.ts": {Statements: schema.CoverageCount{Covered: 1, Total: 10}, Uncovered: []int{1, 2, 3, 4}},
		"src/b.ts": {Statements: schema.CoverageCount{Covered: 9, Total: 10}},
	}
	var buf bytes.Buffer
	WriteDeepDive(&buf, m, DetailOptions{Detail: "1", MaxHotspots: 2})
	out := buf.String()
	assert.Contains(t, out, "src/a.ts")
	assert.NotContains(t, out, "src/b.ts")
	assert.Contains(t, out, "2 more")
}

func TestToSnapshots(t *testing.T) {
	m := schema.CoverageMap{"src/a.ts": {Statements: schema.CoverageCount{Covered: 1, Total: 2}}}
	rows := ToSnapshots(m, time.Unix(0, 0))
	require.Len(t, rows, 1)
	assert.Equal(t, int32(1), rows[0].StatementsCovered)
}

func TestWriteSnapshotsParquet_WritesReadableFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "coverage.parquet")
	rows := ToSnapshots(schema.CoverageMap{
		"src/a.ts": {Statements: schema.CoverageCount{Covered: 1, Total: 2}},
	}, time.Unix(0, 0))

	require.NoError(t, WriteSnapshotsParquet(rows, dest))
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
