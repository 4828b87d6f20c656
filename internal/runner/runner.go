// Package runner implements contract.RunnerClient over os/exec, dispatching
// to the binary and argument conventions of whichever backing test runner a
// project declares (spec.md §6's runner contract).
package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/arjunv/headlamp/internal/bridge"
	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/internal/procexec"
	"github.com/arjunv/headlamp/schema"
)

// Convention describes how one backing-runner kind is invoked: the binary
// name, the flag used to request list-only output, and the flag used to
// point coverage output at a directory.
type Convention struct {
	Binary        string
	ListFlag      string
	ReporterFlag  string
	CoverageFlag  string
	CoverageDirOf func(project schema.Project) string
}

// conventions maps each supported RunnerKind to its invocation shape. Binary
// names and flags are the ones spec.md §6 requires every adapter to expose:
// a list-only invocation, an execution invocation wired to the bridge, and a
// coverage output directory option.
var conventions = map[schema.RunnerKind]Convention{
	schema.JestRunner: {
		Binary:       "npx",
		ListFlag:     "--listTests",
		ReporterFlag: "--reporters",
		CoverageFlag: "--coverageDirectory",
	},
	schema.NativeRunner: {
		Binary:       "cargo",
		ListFlag:     "--list",
		ReporterFlag: "--format",
		CoverageFlag: "--coverage-dir",
	},
	schema.NativeNextRunner: {
		Binary:       "nextest",
		ListFlag:     "list",
		ReporterFlag: "--message-format",
		CoverageFlag: "--coverage-dir",
	},
	schema.ScriptRunner: {
		Binary:       "pytest",
		ListFlag:     "--collect-only",
		ReporterFlag: "--reporter",
		CoverageFlag: "--cov-report-dir",
	},
}

// Adapter is the contract.RunnerClient implementation shared by every
// backing-runner kind, varying only by Convention.
type Adapter struct{}

var _ contract.RunnerClient = Adapter{}

// ListTests runs the project's runner in list-only mode and returns one
// file path per non-empty output line, per spec.md §6's interrogate
// invocation.
func (Adapter) ListTests(ctx context.Context, project schema.Project, args []string, timeout time.Duration) ([]string, error) {
	conv, ok := conventions[project.RunnerKind]
	if !ok {
		return nil, fmt.Errorf("unsupported runner kind: %s", project.RunnerKind)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	listArgs := append([]string{conv.ListFlag}, args...)
	result, err := procexec.RunWithCapture(ctx, conv.Binary, listArgs, project.WorkingDirectory, nil)
	if err != nil {
		return nil, err
	}
	return splitLines(result.Captured), nil
}

// Execute runs the project's tests with the event bridge wired into env via
// the reporter/environment-shim plugin files, per spec.md §6.
func (Adapter) Execute(ctx context.Context, project schema.Project, args []string, env []string) (int, []byte, error) {
	conv, ok := conventions[project.RunnerKind]
	if !ok {
		return 1, nil, fmt.Errorf("unsupported runner kind: %s", project.RunnerKind)
	}

	runArgs := append([]string{}, args...)
	if conv.CoverageFlag != "" {
		if dir := coverageDirFor(project); dir != "" {
			runArgs = append(runArgs, conv.CoverageFlag, dir)
		}
	}

	baseEnv := append(os.Environ(), env...)
	result, err := procexec.RunWithCapture(ctx, conv.Binary, runArgs, project.WorkingDirectory, baseEnv)
	return result.ExitCode, result.Captured, err
}

func coverageDirFor(project schema.Project) string {
	return project.WorkingDirectory + "/coverage"
}

func splitLines(data []byte) []string {
	var out []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			if line := data[start:i]; len(line) > 0 {
				out = append(out, string(line))
			}
			start = i + 1
		}
	}
	if start < len(data) {
		if line := data[start:]; len(line) > 0 {
			out = append(out, string(line))
		}
	}
	return out
}

// EnvForBridge builds the child-process environment spec.md §6 requires:
// NODE_ENV=test, FORCE_COLOR=3, the bridge output path, and optional debug
// switches.
func EnvForBridge(artifactPath string, debug bool, debugPath string) []string {
	env := []string{
		"NODE_ENV=test",
		"FORCE_COLOR=3",
		bridge.BridgeOutEnvVar + "=" + artifactPath,
	}
	if debug {
		env = append(env, "HEADLAMP_BRIDGE_DEBUG=1")
		if debugPath != "" {
			env = append(env, "HEADLAMP_BRIDGE_DEBUG_PATH="+debugPath)
		}
	}
	return env
}
