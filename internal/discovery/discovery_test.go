package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/arjunv/headlamp/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	files []string
	err   error
}

func (f *fakeRunner) ListTests(ctx context.Context, project schema.Project, args []string, timeout time.Duration) ([]string, error) {
	return f.files, f.err
}

func (f *fakeRunner) Execute(ctx context.Context, project schema.Project, args []string, env []string) (int, []byte, error) {
	return 0, nil, nil
}

func TestDiscover_ProductionLikeDelegatesToSelectorUnion(t *testing.T) {
	called := false
	e := &Engine{
		SelectorUnion: func(p schema.Project) ([]string, error) {
			called = true
			return []string{"a.test.ts"}, nil
		},
	}
	sel := schema.Selection{Specified: true, Paths: []string{"src/widget.ts"}}
	got, err := e.Discover(context.Background(), schema.Project{}, sel, "abc")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []string{"a.test.ts"}, got)
}

func TestDiscover_FallsBackToRunnerInterrogation(t *testing.T) {
	e := &Engine{Runner: &fakeRunner{files: []string{"x.test.ts"}}}
	got, err := e.Discover(context.Background(), schema.Project{}, schema.Selection{}, "abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"x.test.ts"}, got)
}

func TestDiscover_NoCacheBypassesCache(t *testing.T) {
	runner := &fakeRunner{files: []string{"x.test.ts"}}
	e := &Engine{Runner: runner}
	sel := schema.Selection{NoCache: true}
	_, err := e.Discover(context.Background(), schema.Project{ConfigPath: "/p/jest.config.js"}, sel, "abc")
	require.NoError(t, err)
}
