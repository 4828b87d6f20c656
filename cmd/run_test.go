package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunv/headlamp/schema"
)

func TestScanProjects_FindsKnownConfigFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "web"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "web", "jest.config.js"), []byte("module.exports = {}"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "core"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "core", "Cargo.toml"), []byte("[package]"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "dep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep", "jest.config.js"), []byte("{}"), 0o644))

	projects, err := scanProjects(root)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	var kinds []schema.RunnerKind
	for _, p := range projects {
		kinds = append(kinds, p.RunnerKind)
	}
	assert.Contains(t, kinds, schema.JestRunner)
	assert.Contains(t, kinds, schema.NativeRunner)
}

func TestFilterProjectsByRunner(t *testing.T) {
	projects := []schema.Project{
		{ConfigPath: "a", RunnerKind: schema.JestRunner},
		{ConfigPath: "b", RunnerKind: schema.NativeRunner},
	}
	filtered := filterProjectsByRunner(projects, string(schema.NativeRunner))
	require.Len(t, filtered, 1)
	assert.Equal(t, "b", filtered[0].ConfigPath)
}

func TestAggregateExitCode(t *testing.T) {
	passing := []schema.BridgeDocument{{Aggregated: schema.Aggregated{Success: true}}}
	assert.Equal(t, 0, aggregateExitCode(passing))

	failing := []schema.BridgeDocument{
		{Aggregated: schema.Aggregated{Success: true}},
		{Aggregated: schema.Aggregated{Success: false}},
	}
	assert.Equal(t, 1, aggregateExitCode(failing))
}

func TestFirstNonZero(t *testing.T) {
	assert.Equal(t, 5, firstNonZero(5, 20))
	assert.Equal(t, 20, firstNonZero(0, 20))
}

func TestProductionFileFinder_MatchesSubstring(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "widget.ts"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "widget.test.ts"), []byte(""), 0o644))

	find := productionFileFinder(root)
	matches := find("widget")
	assert.NotEmpty(t, matches)
}

func TestUnionStrings_AppendsOnlyNewEntriesPreservingOrder(t *testing.T) {
	got := unionStrings([]string{"a", "b"}, []string{"b", "c", "a", "d"})
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestUnionStrings_EmptyExtraReturnsBaseUnchanged(t *testing.T) {
	got := unionStrings([]string{"a", "b"}, nil)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCleanupBridgeArtifacts_RemovesFilesAndSkipsBlank(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "artifact.json")
	require.NoError(t, os.WriteFile(present, []byte("{}"), 0o644))

	cleanupBridgeArtifacts(map[string]string{
		"proj-a": present,
		"proj-b": "",
	})

	_, err := os.Stat(present)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupBridgeArtifacts_TolerantOfAlreadyMissingFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "gone.json")

	assert.NotPanics(t, func() {
		cleanupBridgeArtifacts(map[string]string{"proj-a": missing})
	})
}

// TestShouldPrintCoverage_AbortOnFailureSkipsPrintingAfterAFailedRun covers
// the named scenario: a failing run with --coverage.abortOnFailure set must
// skip coverage printing (and, transitively, the merged lcov write) rather
// than report on a run the driver is about to exit nonzero for.
func TestShouldPrintCoverage_AbortOnFailureSkipsPrintingAfterAFailedRun(t *testing.T) {
	sel := schema.Selection{Coverage: &schema.CoverageOptions{Enabled: true, AbortOnFailure: true}}
	assert.False(t, shouldPrintCoverage(sel, 1))
}

func TestShouldPrintCoverage_AbortOnFailureAllowsPrintingAfterAPassingRun(t *testing.T) {
	sel := schema.Selection{Coverage: &schema.CoverageOptions{Enabled: true, AbortOnFailure: true}}
	assert.True(t, shouldPrintCoverage(sel, 0))
}

func TestShouldPrintCoverage_WithoutAbortOnFailurePrintsEvenAfterFailure(t *testing.T) {
	sel := schema.Selection{Coverage: &schema.CoverageOptions{Enabled: true, AbortOnFailure: false}}
	assert.True(t, shouldPrintCoverage(sel, 1))
}

func TestShouldPrintCoverage_DisabledNeverPrints(t *testing.T) {
	sel := schema.Selection{Coverage: &schema.CoverageOptions{Enabled: false, AbortOnFailure: true}}
	assert.False(t, shouldPrintCoverage(sel, 1))
}
