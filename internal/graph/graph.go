package graph

import (
	"fmt"
	"slices"

	"github.com/weftlabs/weft/pkg/api"
)

// Level is a set of step names whose dependencies are all satisfied by
// strictly earlier levels. Steps within a level have no dependency on
// each other and are eligible to run concurrently. Names are kept in
// lexicographic order so the partition is reproducible
type Level []api.Name

// Levels partitions a workflow's steps into ordered dependency levels
// using Kahn's algorithm over per-step in-degrees. Structural errors
// (empty workflow, unknown dependency, self-dependency) are reported
// before leveling starts; leftover steps after leveling stalls indicate
// a cycle, reported with at least one implicated step named
func Levels(wf *api.Workflow) ([]Level, error) {
	if err := wf.Validate(); err != nil {
		return nil, err
	}

	inDegree := make(map[api.Name]int, len(wf.Steps))
	dependents := make(map[api.Name][]api.Name, len(wf.Steps))
	for name, step := range wf.Steps {
		inDegree[name] = len(step.DependsOn)
		for _, dep := range step.DependsOn {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var levels []Level
	leveled := 0

	for leveled < len(wf.Steps) {
		var ready Level
		for name, deg := range inDegree {
			if deg == 0 {
				ready = append(ready, name)
			}
		}
		if len(ready) == 0 {
			return nil, fmt.Errorf(
				"%w: involving step %q", api.ErrCycleDetected,
				firstRemaining(inDegree),
			)
		}

		slices.Sort(ready)
		for _, name := range ready {
			delete(inDegree, name)
			for _, dependent := range dependents[name] {
				if _, ok := inDegree[dependent]; ok {
					inDegree[dependent]--
				}
			}
		}

		levels = append(levels, ready)
		leveled += len(ready)
	}

	return levels, nil
}

// StepCount returns the total number of steps across all levels
func StepCount(levels []Level) int {
	count := 0
	for _, level := range levels {
		count += len(level)
	}
	return count
}

func firstRemaining(inDegree map[api.Name]int) api.Name {
	names := make([]api.Name, 0, len(inDegree))
	for name := range inDegree {
		names = append(names, name)
	}
	slices.Sort(names)
	return names[0]
}
