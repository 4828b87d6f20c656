package argsnorm

import (
	"testing"

	"github.com/arjunv/headlamp/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, ClassProductionLike, Classify("src/widget.ts"))
	assert.Equal(t, ClassTestLike, Classify("src/widget.test.ts"))
	assert.Equal(t, ClassBareName, Classify("widget"))
	assert.Equal(t, ClassProductionLike, Classify("widget.go"))
}

func TestDeriveArgs_FlagsAndPositionals(t *testing.T) {
	layers := [][]string{
		{"--changed=staged", "--onlyFailures", "src/widget.ts", "--", "--runInBand"},
	}
	sel, err := DeriveArgs(layers, nil)
	require.NoError(t, err)
	assert.Equal(t, schema.ChangedStaged, sel.ChangedMode)
	assert.True(t, sel.OnlyFailures)
	assert.Contains(t, sel.Paths, "src/widget.ts")
	assert.Equal(t, []string{"--runInBand"}, sel.Forwarded)
	assert.True(t, sel.Specified)
}

func TestDeriveArgs_LayerPriority(t *testing.T) {
	defaults := []string{"--sequential"}
	cliTokens := []string{"--no-cache"}
	sel, err := DeriveArgs([][]string{defaults, cliTokens}, nil)
	require.NoError(t, err)
	assert.True(t, sel.Sequential)
	assert.True(t, sel.NoCache)
}

func TestDeriveArgs_CoverageKeyedOptions(t *testing.T) {
	layers := [][]string{{"--coverage", "--coverage.mode=full", "--coverage.maxFiles=5"}}
	sel, err := DeriveArgs(layers, nil)
	require.NoError(t, err)
	assert.True(t, sel.Coverage.Enabled)
	assert.Equal(t, schema.CoverageFull, sel.Coverage.Mode)
	assert.Equal(t, 5, sel.Coverage.MaxFiles)
}

func TestDeriveArgs_MalformedDetailDefaultsToAuto(t *testing.T) {
	layers := [][]string{{"--coverage.detail=bogus"}}
	sel, err := DeriveArgs(layers, nil)
	assert.Error(t, err)
	assert.Equal(t, "auto", sel.Coverage.Detail)
}

func TestDeriveArgs_BareNameExpandsViaFinder(t *testing.T) {
	find := func(token string) []string {
		if token == "widget" {
			return []string{"src/widget.ts", "src/widget.test.ts"}
		}
		return nil
	}
	sel, err := DeriveArgs([][]string{{"widget"}}, find)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/widget.ts"}, sel.Paths)
}

func TestDeriveArgs_ChangedWithoutDepthGetsDefault(t *testing.T) {
	sel, err := DeriveArgs([][]string{{"--changed"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, schema.ChangedAll, sel.ChangedMode)
	assert.Equal(t, 1, sel.ChangedDepth)
}

func TestDeriveArgs_UnknownFlagIsForwardedNotTreatedAsBareName(t *testing.T) {
	find := func(token string) []string {
		t.Fatalf("FileFinder should not be consulted for a flag-shaped token, got %q", token)
		return nil
	}
	sel, err := DeriveArgs([][]string{{"--some-runner-specific-flag", "src/widget.ts"}}, find)
	require.NoError(t, err)
	assert.Equal(t, []string{"--some-runner-specific-flag"}, sel.Forwarded)
	assert.Equal(t, []string{"src/widget.ts"}, sel.Paths)
}
