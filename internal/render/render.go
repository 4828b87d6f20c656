// Package render implements the unified renderer and aggregator (spec.md
// §4.9): merges bridge documents across projects, reorders test results by
// directness rank, and produces one textual report.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/arjunv/headlamp/internal/bridge"
	"github.com/arjunv/headlamp/schema"
)

// Options toggles the renderer's output shape, per spec.md §4.9.
type Options struct {
	OnlyFailures bool
	ShowLogs     bool
	UseColors    bool
}

// MergeAndOrder merges docs via schema.MergeBridgeDocuments and reorders
// the merged TestResults by directness rank descending, so directly
// related files (lower rank) appear last, per spec.md §4.9 and the
// terminal convention that the most relevant output sits near the bottom.
func MergeAndOrder(docs []schema.BridgeDocument, rank schema.DirectnessRank) schema.BridgeDocument {
	merged := schema.MergeBridgeDocuments(docs)
	sort.SliceStable(merged.TestResults, func(i, j int) bool {
		return rank.RankOf(merged.TestResults[i].TestFilePath) > rank.RankOf(merged.TestResults[j].TestFilePath)
	})
	return merged
}

// Render writes the textual summary for doc to w, applying OnlyFailures and
// ShowLogs toggles. When the combined captured output looks sparse (a bare
// Error: line with no detail), the text prettifier is appended as a hint
// source, per spec.md §4.9.
func Render(w io.Writer, doc schema.BridgeDocument, opts Options, rawCaptured []byte) {
	color.NoColor = !opts.UseColors

	for _, tr := range doc.TestResults {
		status := fileStatus(tr)
		if opts.OnlyFailures && status == schema.StatusPassed {
			continue
		}
		writeFileHeader(w, tr, status)
		if opts.ShowLogs {
			for _, entry := range tr.ConsoleEntries {
				fmt.Fprintf(w, "    %s\n", entry.Message)
			}
		}
		for _, tc := range tr.TestCases {
			if opts.OnlyFailures && tc.Status != schema.StatusFailed {
				continue
			}
			writeCaseLine(w, tc)
		}
	}

	writeSummaryTable(w, doc.Aggregated)

	if bridge.LooksSparse(rawCaptured) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, color.YellowString("additional detail:"))
		fmt.Fprintln(w, bridge.Prettify(rawCaptured))
	}
}

func fileStatus(tr schema.TestResult) schema.TestStatus {
	for _, tc := range tr.TestCases {
		if tc.Status == schema.StatusFailed {
			return schema.StatusFailed
		}
	}
	return schema.StatusPassed
}

func writeFileHeader(w io.Writer, tr schema.TestResult, status schema.TestStatus) {
	label := color.GreenString("PASS")
	if status == schema.StatusFailed {
		label = color.RedString("FAIL")
	}
	fmt.Fprintf(w, "%s %s\n", label, tr.TestFilePath)
}

func writeCaseLine(w io.Writer, tc schema.TestCaseResult) {
	marker := "✓"
	line := strings.Join(tc.NamePath, " > ")
	switch tc.Status {
	case schema.StatusFailed:
		marker = color.RedString("✕")
	case schema.StatusPending, schema.StatusTodo:
		marker = color.YellowString("○")
	case schema.StatusTimedOut:
		marker = color.RedString("⏱")
	default:
		marker = color.GreenString(marker)
	}
	fmt.Fprintf(w, "  %s %s (%dms)\n", marker, line, tc.DurationMs)
	for _, msg := range tc.FailureMessages {
		fmt.Fprintf(w, "      %s\n", msg)
	}
}

func writeSummaryTable(w io.Writer, agg schema.Aggregated) {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Total", "Passed", "Failed"})
	data := [][]string{
		{"Test Suites", fmt.Sprint(agg.NumTotalTestSuites), fmt.Sprint(agg.NumPassedTestSuites), fmt.Sprint(agg.NumFailedTestSuites)},
		{"Tests", fmt.Sprint(agg.NumTotalTests), fmt.Sprint(agg.NumPassedTests), fmt.Sprint(agg.NumFailedTests)},
	}
	if err := table.Bulk(data); err != nil {
		fmt.Fprintf(w, "failed to build summary table: %v\n", err)
		return
	}
	if err := table.Render(); err != nil {
		fmt.Fprintf(w, "failed to render summary table: %v\n", err)
	}
}

// TerminalWidth returns the detected terminal width for fd, falling back to
// 80 columns when it can't be determined (piped output, CI runners).
func TerminalWidth(fd int) int {
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
