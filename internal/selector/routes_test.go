package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRouteIndex_ExtractsDeclaredRoutes(t *testing.T) {
	root := t.TempDir()
	handler := writeFile(t, root, "src/users.ts", `router.get("/users", listUsers);`)

	arena, err := NewArena(0)
	require.NoError(t, err)

	index := BuildRouteIndex(arena, []string{handler})
	assert.Contains(t, index["/users"], handler)
}

func TestAugmentByRoutes_PicksUpRouteCoupledTestWithNoImportEdge(t *testing.T) {
	root := t.TempDir()
	handler := writeFile(t, root, "src/users.ts", `router.get("/users", listUsers);`)
	integrationTest := writeFile(t, root, "src/users.integration.test.ts", `request.get("/users").then(assertOk);`)
	unrelatedTest := writeFile(t, root, "src/other.test.ts", `test('unrelated', () => {})`)

	arena, err := NewArena(0)
	require.NoError(t, err)

	index := BuildRouteIndex(arena, []string{handler})
	augmented := AugmentByRoutes(arena, index, []string{handler}, []string{integrationTest, unrelatedTest})

	assert.Contains(t, augmented, integrationTest)
	assert.NotContains(t, augmented, unrelatedTest)
}

func TestAugmentByRoutes_EmptyIndexYieldsNothing(t *testing.T) {
	arena, err := NewArena(0)
	require.NoError(t, err)

	augmented := AugmentByRoutes(arena, RouteIndex{}, []string{"a.ts"}, []string{"a.test.ts"})
	assert.Empty(t, augmented)
}
