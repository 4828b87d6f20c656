package covmerge

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/arjunv/headlamp/schema"
)

// DetailOptions tunes the per-file deep-dive printer, bounded by MaxFiles
// and MaxHotspots, per spec.md §4.10.
type DetailOptions struct {
	Detail      string // "", "all", "auto", or an integer string
	ShowCode    bool
	MaxFiles    int
	MaxHotspots int
}

// WriteCompositeTable renders a per-file composite coverage table to w,
// sorted by statement percentage ascending so the worst-covered files sort
// to the top, mirroring the teacher's folder-score table idiom.
func WriteCompositeTable(w io.Writer, m schema.CoverageMap) error {
	paths := sortedPaths(m)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"File", "Stmts", "Branch", "Funcs", "Lines"})

	data := make([][]string, 0, len(paths))
	for _, path := range paths {
		cov := m[path]
		data = append(data, []string{
			path,
			pctCell(cov.Statements),
			pctCell(cov.Branches),
			pctCell(cov.Functions),
			pctCell(cov.Lines),
		})
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("build composite coverage table: %w", err)
	}
	return table.Render()
}

func pctCell(c schema.CoverageCount) string {
	return fmt.Sprintf("%.1f%% (%d/%d)", c.Pct(), c.Covered, c.Total)
}

func sortedPaths(m schema.CoverageMap) []string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool {
		return m[paths[i]].Statements.Pct() < m[paths[j]].Statements.Pct()
	})
	return paths
}

// WriteTextSummary writes the aggregate totals as a one-line text-summary
// reporter, analogous to Istanbul's `text-summary` reporter.
func WriteTextSummary(w io.Writer, m schema.CoverageMap) {
	totals := m.Totals()
	fmt.Fprintf(w, "Statements: %.2f%% (%d/%d)  Branches: %.2f%% (%d/%d)  Functions: %.2f%% (%d/%d)  Lines: %.2f%% (%d/%d)\n",
		totals.Statements.Pct(), totals.Statements.Covered, totals.Statements.Total,
		totals.Branches.Pct(), totals.Branches.Covered, totals.Branches.Total,
		totals.Functions.Pct(), totals.Functions.Covered, totals.Functions.Total,
		totals.Lines.Pct(), totals.Lines.Covered, totals.Lines.Total,
	)
}

// WriteDeepDive prints a per-file hotspot listing bounded by opts.MaxFiles
// (worst-covered files first) and opts.MaxHotspots (uncovered line numbers
// per file), only invoked when `--coverage.detail` was explicitly set, per
// spec.md §4.10.
func WriteDeepDive(w io.Writer, m schema.CoverageMap, opts DetailOptions) {
	if opts.Detail == "" {
		return
	}

	paths := sortedPaths(m)
	maxFiles := opts.MaxFiles
	switch {
	case opts.Detail == "all":
		maxFiles = len(paths)
	case opts.Detail != "auto":
		if n, err := strconv.Atoi(opts.Detail); err == nil {
			maxFiles = n
		}
	}
	if maxFiles <= 0 {
		maxFiles = len(paths)
	}
	if maxFiles > len(paths) {
		maxFiles = len(paths)
	}

	for _, path := range paths[:maxFiles] {
		cov := m[path]
		fmt.Fprintf(w, "%s — %.1f%% statements\n", path, cov.Statements.Pct())
		hotspots := cov.Uncovered
		maxHotspots := opts.MaxHotspots
		if maxHotspots <= 0 || maxHotspots > len(hotspots) {
			maxHotspots = len(hotspots)
		}
		for _, line := range hotspots[:maxHotspots] {
			fmt.Fprintf(w, "    uncovered line %d\n", line)
		}
		if len(hotspots) > maxHotspots {
			fmt.Fprintf(w, "    ... %d more\n", len(hotspots)-maxHotspots)
		}
	}
}
