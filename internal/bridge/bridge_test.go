package bridge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/arjunv/headlamp/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePlugins_CreatesFiles(t *testing.T) {
	root := t.TempDir()
	reporterPath, shimPath, err := WritePlugins(root)
	require.NoError(t, err)
	assert.FileExists(t, reporterPath)
	assert.FileExists(t, shimPath)
}

func TestWritePlugins_SkipsRewriteWhenUnchanged(t *testing.T) {
	root := t.TempDir()
	reporterPath, _, err := WritePlugins(root)
	require.NoError(t, err)
	info1, err := os.Stat(reporterPath)
	require.NoError(t, err)

	_, _, err = WritePlugins(root)
	require.NoError(t, err)
	info2, err := os.Stat(reporterPath)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())
}

func TestIngest_ParsesArtifactAndMergesConsoleEvents(t *testing.T) {
	dir := t.TempDir()
	artifactPath := filepath.Join(dir, "artifact.json")
	doc := schema.BridgeDocument{
		TestResults: []schema.TestResult{{TestFilePath: "a.test.ts"}},
		Aggregated:  schema.Aggregated{NumTotalTests: 1, NumPassedTests: 1, Success: true},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(artifactPath, data, 0o644))

	event := schema.BridgeEvent{
		Type:    schema.EventConsole,
		Console: &schema.ConsoleEntry{TestPath: "a.test.ts", Message: "hello"},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	captured := []byte(schema.BridgeEventSentinel + string(payload) + "\n")

	got := Ingest(captured, artifactPath)
	require.Len(t, got.TestResults, 1)
	require.Len(t, got.TestResults[0].ConsoleEntries, 1)
	assert.Equal(t, "hello", got.TestResults[0].ConsoleEntries[0].Message)
}

func TestIngest_FallsBackWhenArtifactMissing(t *testing.T) {
	captured := []byte("Error: something exploded\n")
	got := Ingest(captured, "")
	require.Len(t, got.TestResults, 1)
	require.Len(t, got.TestResults[0].TestCases, 1)
	assert.Equal(t, schema.StatusFailed, got.TestResults[0].TestCases[0].Status)
	assert.Equal(t, schema.Aggregated{}, got.Aggregated)
}

func TestLooksSparse(t *testing.T) {
	assert.True(t, LooksSparse([]byte("Error: boom\n")))
	assert.False(t, LooksSparse([]byte("Error: boom\n    at foo.js:1:1\n")))
}
