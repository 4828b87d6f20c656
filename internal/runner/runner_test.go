package runner

import (
	"context"
	"testing"
	"time"

	"github.com/arjunv/headlamp/schema"
	"github.com/stretchr/testify/assert"
)

func TestListTests_UnsupportedRunnerKind(t *testing.T) {
	_, err := Adapter{}.ListTests(context.Background(), schema.Project{RunnerKind: "unknown"}, nil, time.Second)
	assert.Error(t, err)
}

func TestExecute_UnsupportedRunnerKind(t *testing.T) {
	code, _, err := Adapter{}.Execute(context.Background(), schema.Project{RunnerKind: "unknown"}, nil, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, code)
}

func TestSplitLines(t *testing.T) {
	out := splitLines([]byte("a.test.ts\nb.test.ts\n\nc.test.ts"))
	assert.Equal(t, []string{"a.test.ts", "b.test.ts", "c.test.ts"}, out)
}

func TestEnvForBridge_IncludesDebugWhenEnabled(t *testing.T) {
	env := EnvForBridge("/tmp/artifact.json", true, "/tmp/debug.log")
	assert.Contains(t, env, "HEADLAMP_BRIDGE_DEBUG=1")
	assert.Contains(t, env, "HEADLAMP_BRIDGE_DEBUG_PATH=/tmp/debug.log")
}
