package selector

import (
	"regexp"
	"strings"
)

// routeRegex extracts HTTP route strings from common router call shapes:
// router.get("/path", ...), app.post('/path', ...), etc.
var routeRegex = regexp.MustCompile(`\.(?:get|post|put|patch|delete|options)\(\s*["']([^"']+)["']`)

// RouteIndex maps a declared HTTP route to the production file that defines
// it, built once per invocation from the production files passed to
// BuildRouteIndex.
type RouteIndex map[string][]string

// BuildRouteIndex scans the given production files for router-call route
// declarations, per the original's `augment_with_http_tests` route table.
func BuildRouteIndex(arena *Arena, productionFiles []string) RouteIndex {
	index := make(RouteIndex)
	for _, f := range productionFiles {
		body := arena.body(f)
		for _, m := range routeRegex.FindAllStringSubmatch(body, -1) {
			index[m[1]] = append(index[m[1]], f)
		}
	}
	return index
}

// AugmentByRoutes cross-references changed production files against the
// route index to additionally select integration tests that exercise a
// route defined in a changed file, even with no direct import edge. Returns
// nil when index is empty.
func AugmentByRoutes(arena *Arena, index RouteIndex, changedProductionFiles, candidateTestFiles []string) []string {
	if len(index) == 0 {
		return nil
	}

	changedRoutes := make(map[string]struct{})
	for _, f := range changedProductionFiles {
		for route, owners := range index {
			for _, owner := range owners {
				if owner == f {
					changedRoutes[route] = struct{}{}
				}
			}
		}
	}
	if len(changedRoutes) == 0 {
		return nil
	}

	var augmented []string
	for _, tf := range candidateTestFiles {
		body := arena.body(tf)
		for route := range changedRoutes {
			if strings.Contains(body, route) {
				augmented = append(augmented, tf)
				break
			}
		}
	}
	return augmented
}
