// Package procexec implements the process executor (spec.md §4.7): spawns a
// child with an argument list and environment, either capturing combined
// output or passing it through live, with timeout and cancellation support.
package procexec

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
)

// Result is the outcome of a captured run.
type Result struct {
	ExitCode int
	Captured []byte
}

// RunWithCapture tees stdout+stderr both to the parent terminal (color
// preserved, FORCE_COLOR=3 injected) and to an in-memory buffer for
// downstream bridge parsing, per spec.md §4.7.
func RunWithCapture(ctx context.Context, name string, args []string, dir string, env []string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(append([]string{}, env...), "FORCE_COLOR=3")

	var buf bytes.Buffer
	cmd.Stdout = io.MultiWriter(os.Stdout, &buf)
	cmd.Stderr = io.MultiWriter(os.Stderr, &buf)

	err := cmd.Run()
	return Result{ExitCode: exitCodeOf(err), Captured: buf.Bytes()}, passthroughErr(err)
}

// RunExitCode passes stdout/stderr through untouched and returns only the
// exit code, per spec.md §4.7's `run_exit_code` shape.
func RunExitCode(ctx context.Context, name string, args []string, dir string, env []string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(append([]string{}, env...), "FORCE_COLOR=3")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	return exitCodeOf(err), passthroughErr(err)
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// passthroughErr suppresses *exec.ExitError: a non-zero exit code is a
// normal test-run outcome, not an executor failure.
func passthroughErr(err error) error {
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	return err
}
