package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arjunv/headlamp/internal/argsnorm"
	"github.com/arjunv/headlamp/internal/bridge"
	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/internal/covmerge"
	"github.com/arjunv/headlamp/internal/discovery"
	"github.com/arjunv/headlamp/internal/dispatch"
	"github.com/arjunv/headlamp/internal/logx"
	"github.com/arjunv/headlamp/internal/ownership"
	"github.com/arjunv/headlamp/internal/procexec"
	"github.com/arjunv/headlamp/internal/render"
	"github.com/arjunv/headlamp/internal/runner"
	"github.com/arjunv/headlamp/internal/selector"
	"github.com/arjunv/headlamp/internal/vcsprobe"
	"github.com/arjunv/headlamp/schema"
)

func rootCtx() context.Context { return context.Background() }

func localVCSClient() *vcsprobe.LocalClient { return vcsprobe.NewLocalClient() }

// projectConfigNames maps each backing-runner kind to the config filenames
// that mark a directory as one of its projects, per spec.md §2's Project
// discovery: "created at startup by scanning known config filenames."
var projectConfigNames = map[string]schema.RunnerKind{
	"jest.config.js":   schema.JestRunner,
	"jest.config.ts":   schema.JestRunner,
	"jest.config.cjs":  schema.JestRunner,
	"jest.config.mjs":  schema.JestRunner,
	"jest.config.json": schema.JestRunner,
	".nextest.toml":    schema.NativeNextRunner,
	"Cargo.toml":       schema.NativeRunner,
	"pyproject.toml":   schema.ScriptRunner,
	"pytest.ini":       schema.ScriptRunner,
	"setup.cfg":        schema.ScriptRunner,
}

// scanProjects walks repoRoot for known config filenames and returns one
// Project per match, skipping vendor/coverage directories.
func scanProjects(repoRoot string) ([]schema.Project, error) {
	var projects []schema.Project
	err := filepath.WalkDir(repoRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(repoRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if contract.IsExcludedPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if kind, ok := projectConfigNames[d.Name()]; ok {
			projects = append(projects, schema.Project{
				ConfigPath:       path,
				WorkingDirectory: filepath.Dir(path),
				RunnerKind:       kind,
			})
		}
		return nil
	})
	return projects, err
}

// productionFileFinder resolves a bare positional token to candidate
// production files under repoRoot, used by argsnorm's FileFinder hook.
func productionFileFinder(repoRoot string) argsnorm.FileFinder {
	return func(token string) []string {
		var matches []string
		_ = filepath.WalkDir(repoRoot, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			rel, relErr := filepath.Rel(repoRoot, path)
			if relErr != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if contract.IsExcludedPath(rel + "/") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.Contains(rel, token) {
				matches = append(matches, contract.NormalizeAbsPath(repoRoot, rel))
			}
			return nil
		})
		return matches
	}
}

// runOrchestration is the default command: it selects, dispatches, and
// renders tests across every discovered project, per spec.md §2.
func runOrchestration(cmd *cobra.Command, tokens []string) error {
	ctx := rootCtx()
	client := localVCSClient()

	repoRoot, err := client.RepoRoot(ctx, ".")
	if err != nil {
		repoRoot, _ = os.Getwd()
	}

	if err := loadConfigFile(); err != nil {
		return err
	}

	sel, err := argsnorm.DeriveArgs([][]string{configFileTokens(), tokens}, productionFileFinder(repoRoot))
	if err != nil {
		logx.Warn("malformed argument, applying default", err)
	}
	debugEnv, _ := contract.ParseBoolString(os.Getenv("TEST_CLI_DEBUG"))
	logx.Verbose = sel.Verbose || debugEnv

	if sel.ChangedMode != "" {
		changed := vcsprobe.ChangedFiles(client, repoRoot, sel.ChangedMode)
		sel.Paths = append(sel.Paths, changed...)
		sel.Specified = true
	}

	cfg.RepoPath = repoRoot
	cfg.Selection = sel
	cfg.Verbose = sel.Verbose
	cfg.CI = sel.CI
	cfg.NoCache = sel.NoCache
	cfg.UseColors = resolveColors(sel.CI)
	cfg.CacheBackend = schema.CacheBackend(viper.GetString("cache-backend"))
	cfg.CacheDBConnect = viper.GetString("cache-db-connect")

	if err := contract.ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}
	if !sel.NoCache {
		if err := discovery.Init(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
			logx.Warn("failed to initialize discovery cache, continuing without it", err)
		}
	}
	defer discovery.Close()

	projects, err := scanProjects(repoRoot)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		logx.Warn("no backing-runner projects found under "+repoRoot, nil)
		return nil
	}

	if sel.RunnerID != "" {
		projects = filterProjectsByRunner(projects, sel.RunnerID)
	}

	repoHead, _ := client.RepoHash(ctx, repoRoot)
	adapter := runner.Adapter{}
	engine := &discovery.Engine{Runner: adapter, Cache: discovery.Global()}

	arena, err := selector.NewArena(0)
	if err != nil {
		return err
	}

	candidates, bridgeOut, rank, err := discoverAndSelect(ctx, engine, arena, adapter, projects, sel, repoRoot, repoHead)
	if err != nil {
		return err
	}

	docs, reportsDir, captured, err := dispatchAll(ctx, candidates, sel, bridgeOut)
	if err != nil {
		return err
	}
	if !sel.KeepArtifacts {
		defer cleanupBridgeArtifacts(bridgeOut)
	}

	merged := render.MergeAndOrder(docs, rank)
	render.Render(os.Stdout, merged, render.Options{
		OnlyFailures: sel.OnlyFailures,
		ShowLogs:     sel.ShowLogs,
		UseColors:    cfg.UseColors,
	}, captured)

	exitCode := aggregateExitCode(docs)

	if shouldPrintCoverage(sel, exitCode) {
		printCoverage(reportsDir, sel)
	}

	if exitCode != 0 {
		// os.Exit skips deferred calls, so clean up here first.
		if !sel.KeepArtifacts {
			cleanupBridgeArtifacts(bridgeOut)
		}
		os.Exit(exitCode)
	}
	return nil
}

// shouldPrintCoverage reports whether coverage printing (and its lcov-merge
// step) should run, per spec.md §7: when a child run failed and
// --coverage.abortOnFailure is set, coverage printing is skipped entirely
// rather than reporting on a partial/inconsistent run (spec.md §8 scenario
// 4).
func shouldPrintCoverage(sel schema.Selection, exitCode int) bool {
	if sel.Coverage == nil || !sel.Coverage.Enabled {
		return false
	}
	return !(sel.Coverage.AbortOnFailure && exitCode != 0)
}

// cleanupBridgeArtifacts removes the per-project bridge temp artifacts
// written during dispatch, per spec.md §6 ("bridge temp artifacts under the
// OS temp dir, deleted on exit"). Suppressed by --keep-artifacts.
func cleanupBridgeArtifacts(bridgeOut map[string]string) {
	for _, path := range bridgeOut {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logx.Warn("failed to remove bridge artifact "+path, err)
		}
	}
}

// configFileTokens synthesizes an argsnorm token layer from the loaded
// config file's `include`/`exclude`/`sequential`/`bootstrapCommand` fields,
// per spec.md §6's config-file surface.
func configFileTokens() []string {
	var tokens []string
	if viper.GetBool("sequential") {
		tokens = append(tokens, "--sequential")
	}
	if bootstrap := viper.GetString("bootstrapCommand"); bootstrap != "" {
		tokens = append(tokens, "--bootstrapCommand", bootstrap)
	}
	if include := viper.GetStringSlice("include"); len(include) > 0 {
		tokens = append(tokens, "--coverage.include="+strings.Join(include, ","))
	}
	if exclude := viper.GetStringSlice("exclude"); len(exclude) > 0 {
		tokens = append(tokens, "--coverage.exclude="+strings.Join(exclude, ","))
	}
	return tokens
}

func filterProjectsByRunner(projects []schema.Project, runnerID string) []schema.Project {
	var out []schema.Project
	for _, p := range projects {
		if string(p.RunnerKind) == runnerID {
			out = append(out, p)
		}
	}
	return out
}

// discoverAndSelect runs discovery for every project concurrently (spec.md
// §5), then narrows by the import-graph selector when changed-mode
// production seeds are present, per spec.md §4.4. The per-project rank maps
// computed by the selector are merged into one repo-wide
// schema.DirectnessRank for the renderer's directness-rank ordering
// (spec.md §4.4 step 5, §4.9).
func discoverAndSelect(ctx context.Context, engine *discovery.Engine, arena *selector.Arena, adapter runner.Adapter, projects []schema.Project, sel schema.Selection, repoRoot, repoHead string) ([]dispatch.Candidate, map[string]string, schema.DirectnessRank, error) {
	unionAll := make(map[schema.Project][]string, len(projects))
	for _, project := range projects {
		files, err := engine.Discover(ctx, project, sel, repoHead)
		if err != nil {
			logx.Warn("discovery failed for "+project.ConfigPath, err)
			continue
		}
		unionAll[project] = files
	}

	var productionSeeds []string
	for _, p := range sel.Paths {
		if !schema.IsTestPath(p) {
			productionSeeds = append(productionSeeds, p)
		}
	}
	routeIndex := selector.BuildRouteIndex(arena, productionSeeds)

	mergedRank := make(schema.DirectnessRank)
	candidates := make([]dispatch.Candidate, 0, len(projects))
	bridgeOut := make(map[string]string, len(projects))
	for _, project := range projects {
		union := unionAll[project]
		scoped := union
		if len(productionSeeds) > 0 {
			kept, rank, _, err := selector.SelectWithFallback(ctx, arena, repoRoot, union, union, productionSeeds, sel.ChangedDepth)
			if err == nil {
				scoped = kept
				for path, r := range rank {
					mergedRank[path] = r
				}
			}

			if augmented := selector.AugmentByRoutes(arena, routeIndex, productionSeeds, union); len(augmented) > 0 {
				scoped = unionStrings(scoped, augmented)
			}
		}

		owned, err := ownership.FilterForProject(ctx, adapter, project, scoped)
		if err != nil {
			logx.Warn("ownership filter failed for "+project.ConfigPath, err)
			owned = scoped
		}

		if _, _, err := bridge.WritePlugins(project.WorkingDirectory); err != nil {
			logx.Warn("failed to write bridge plugin files", err)
		}
		bridgeOut[project.ConfigPath] = bridge.TempArtifactPath()

		candidates = append(candidates, dispatch.Candidate{Project: project, Files: owned})
	}
	return candidates, bridgeOut, mergedRank, nil
}

// unionStrings returns base with any not-already-present entries from extra
// appended, preserving base's order.
func unionStrings(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, s := range base {
		seen[s] = struct{}{}
	}
	out := append([]string{}, base...)
	for _, s := range extra {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// dispatchAll runs every should-run candidate in bounded parallel strides,
// ingests each one's bridge output into a BridgeDocument, and concatenates
// every run's captured output for the renderer's sparse-output prettifier
// hint (spec.md §4.9).
func dispatchAll(ctx context.Context, candidates []dispatch.Candidate, sel schema.Selection, bridgeOut map[string]string) ([]schema.BridgeDocument, string, []byte, error) {
	adapter := runner.Adapter{}
	reportsDir := ""

	run := func(ctx context.Context, candidate dispatch.Candidate, args []string) dispatch.RunResult {
		artifactPath := bridgeOut[candidate.Project.ConfigPath]
		env := runner.EnvForBridge(artifactPath, sel.Verbose, "")
		exitCode, captured, err := adapter.Execute(ctx, candidate.Project, args, env)
		return dispatch.RunResult{Project: candidate.Project, ExitCode: exitCode, Captured: captured, Err: err}
	}

	reporters := make(map[string]string, len(candidates))
	for _, c := range candidates {
		if reporterPath, _, err := bridge.WritePlugins(c.Project.WorkingDirectory); err == nil {
			reporters[c.Project.ConfigPath] = reporterPath
		}
	}

	results, err := dispatch.Dispatch(ctx, candidates, sel, reporters, run)
	if err != nil {
		return nil, reportsDir, nil, err
	}

	docs := make([]schema.BridgeDocument, 0, len(results))
	var captured []byte
	for _, r := range results {
		artifactPath := bridgeOut[r.Project.ConfigPath]
		docs = append(docs, bridge.Ingest(r.Captured, artifactPath))
		captured = append(captured, r.Captured...)
		if reportsDir == "" {
			reportsDir = r.Project.WorkingDirectory
		}
	}
	return docs, reportsDir, captured, nil
}

func printCoverage(reportsDir string, sel schema.Selection) {
	if reportsDir == "" {
		return
	}
	merged, err := covmerge.WalkAndMerge(reportsDir)
	if err != nil {
		logx.Warn("failed to merge coverage output", err)
		return
	}
	merged = covmerge.FilterByGlobs(merged, sel.Coverage.Include, sel.Coverage.Exclude)

	if err := covmerge.WriteCompositeTable(os.Stdout, merged); err != nil {
		logx.Warn("failed to render coverage table", err)
	}
	covmerge.WriteTextSummary(os.Stdout, merged)

	if sel.Coverage.Detail != "" {
		covmerge.WriteDeepDive(os.Stdout, merged, covmerge.DetailOptions{
			Detail:      sel.Coverage.Detail,
			ShowCode:    sel.Coverage.ShowCode,
			MaxFiles:    firstNonZero(sel.Coverage.MaxFiles, contract.DefaultMaxFiles),
			MaxHotspots: firstNonZero(sel.Coverage.MaxHotspots, contract.DefaultMaxHotspots),
		})
	}

	if failures := covmerge.EnforceThresholds(merged, sel.Coverage.ThresholdGlobal); len(failures) > 0 {
		for _, f := range failures {
			logx.Warn(f.String(), nil)
		}
	}

	if n, err := covmerge.MergeLCOVFiles(reportsDir, filepath.Join(reportsDir, "coverage", covmerge.LCOVFileName)); err != nil {
		logx.Warn("failed to merge lcov output", err)
	} else if n > 0 {
		logx.Debug("merged %d lcov.info files", n)
	}

	if sel.Coverage.ParquetPath != "" {
		snapshots := covmerge.ToSnapshots(merged, time.Now())
		if err := covmerge.WriteSnapshotsParquet(snapshots, sel.Coverage.ParquetPath); err != nil {
			logx.Warn("failed to write parquet coverage snapshot", err)
		}
	}
}

func firstNonZero(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func aggregateExitCode(docs []schema.BridgeDocument) int {
	for _, d := range docs {
		if !d.Aggregated.Success {
			return 1
		}
	}
	return 0
}

func init() {
	procexec.InstallSignalHandlers(func() { os.Exit(procexec.InterruptedExitCode) })
}
