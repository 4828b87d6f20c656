// Package ownership implements the ownership filter (spec.md §4.5): for
// each candidate file, decides which project's runner "owns" it by
// consulting the project's own configuration.
package ownership

import (
	"context"
	"time"

	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/schema"
)

// interrogationTimeout bounds the list-only ownership probe, matching the
// discovery engine's auxiliary timeout.
const interrogationTimeout = 4 * time.Second

// FilterForProject interrogates the project's runner in list-only mode with
// the candidate set and takes the intersection, per spec.md §4.5.
func FilterForProject(ctx context.Context, runner contract.RunnerClient, project schema.Project, candidates []string) ([]string, error) {
	if len(candidates) == 0 || runner == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, interrogationTimeout)
	defer cancel()

	claimed, err := runner.ListTests(ctx, project, candidates, interrogationTimeout)
	if err != nil {
		return FallbackFilter(project, candidates)
	}

	claimedSet := make(map[string]struct{}, len(claimed))
	for _, c := range claimed {
		claimedSet[c] = struct{}{}
	}

	var owned []string
	for _, c := range candidates {
		if _, ok := claimedSet[c]; ok {
			owned = append(owned, c)
		}
	}
	return owned, nil
}
