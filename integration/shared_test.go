//go:build database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	sharedHeadlampPath string
	buildOnce          sync.Once
	buildMutex         sync.Mutex
	tempDir            string
)

// TestMain runs the suite and then removes the binary that getHeadlampBinary
// built on first use.
func TestMain(m *testing.M) {
	code := m.Run()
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}
	os.Exit(code)
}

func getHeadlampBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "headlamp-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		headlampPath := filepath.Join(tempDir, "headlamp")
		buildCmd := exec.Command("go", "build", "-o", headlampPath, "./cmd/headlamp")
		buildCmd.Dir = ".."
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build headlamp: %v", err))
		}

		sharedHeadlampPath = headlampPath
	})

	return sharedHeadlampPath
}

func runHeadlampCommand(t *testing.T, args ...string) error {
	headlampPath := getHeadlampBinary()
	cmd := exec.Command(headlampPath, args...)
	cmd.Dir = ".."
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
