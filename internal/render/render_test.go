package render

import (
	"bytes"
	"testing"

	"github.com/arjunv/headlamp/schema"
	"github.com/stretchr/testify/assert"
)

func TestMergeAndOrder_OrdersByRankDescending(t *testing.T) {
	docs := []schema.BridgeDocument{
		{TestResults: []schema.TestResult{{TestFilePath: "far.test.ts"}}},
		{TestResults: []schema.TestResult{{TestFilePath: "near.test.ts"}}},
	}
	rank := schema.DirectnessRank{"far.test.ts": 3, "near.test.ts": 0}
	merged := MergeAndOrder(docs, rank)
	assert.Equal(t, "far.test.ts", merged.TestResults[0].TestFilePath)
	assert.Equal(t, "near.test.ts", merged.TestResults[1].TestFilePath)
}

func TestRender_OnlyFailuresDropsPassLines(t *testing.T) {
	doc := schema.BridgeDocument{
		TestResults: []schema.TestResult{
			{TestFilePath: "a.test.ts", TestCases: []schema.TestCaseResult{{NamePath: []string{"ok"}, Status: schema.StatusPassed}}},
		},
	}
	var buf bytes.Buffer
	Render(&buf, doc, Options{OnlyFailures: true}, nil)
	assert.NotContains(t, buf.String(), "PASS a.test.ts")
}

func TestRender_ShowLogsIncludesConsoleEntries(t *testing.T) {
	doc := schema.BridgeDocument{
		TestResults: []schema.TestResult{{
			TestFilePath:   "a.test.ts",
			ConsoleEntries: []schema.ConsoleEntry{{Message: "debug line"}},
		}},
	}
	var buf bytes.Buffer
	Render(&buf, doc, Options{ShowLogs: true}, nil)
	assert.Contains(t, buf.String(), "debug line")
}
