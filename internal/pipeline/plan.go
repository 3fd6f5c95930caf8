package pipeline

import (
	"fmt"
	"sort"
)

// ExecutionPlan is the planned execution order of stages, including
// transitively required dependencies.
type ExecutionPlan struct {
	Order []StageName
	Graph map[StageName][]StageName // dependency -> dependents
}

// BuildExecutionPlan resolves dependencies for the requested stages and
// topologically sorts them. The order is deterministic: ties break
// alphabetically.
func (r *Registry) BuildExecutionPlan(stages []StageName) (*ExecutionPlan, error) {
	if len(stages) == 0 {
		return &ExecutionPlan{Order: []StageName{}, Graph: make(map[StageName][]StageName)}, nil
	}

	for _, stage := range stages {
		if _, exists := r.Get(stage); !exists {
			return nil, fmt.Errorf("stage %s not found in registry", stage)
		}
	}

	graph := make(map[StageName][]StageName)
	inDegree := make(map[StageName]int)

	stageSet := make(map[StageName]bool)
	for _, stage := range stages {
		stageSet[stage] = true
	}

	// Pull in dependencies transitively.
	var addDependencies func(StageName) error
	addDependencies = func(stage StageName) error {
		s, exists := r.Get(stage)
		if !exists {
			return fmt.Errorf("dependency %s not found", stage)
		}
		for _, dep := range s.Dependencies() {
			if !stageSet[dep] {
				stageSet[dep] = true
				if err := addDependencies(dep); err != nil {
					return err
				}
			}
			graph[dep] = append(graph[dep], stage)
		}
		return nil
	}
	for _, stage := range stages {
		if err := addDependencies(stage); err != nil {
			return nil, fmt.Errorf("resolving dependencies for %s: %w", stage, err)
		}
	}

	for stage := range stageSet {
		inDegree[stage] = 0
	}
	for _, dependents := range graph {
		for _, dependent := range dependents {
			inDegree[dependent]++
		}
	}

	// Topological sort with deterministic tie-breaking.
	var order []StageName
	queue := make([]StageName, 0)
	for stage, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, stage)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i] < queue[j] })

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		dependents := graph[current]
		sort.Slice(dependents, func(i, j int) bool { return dependents[i] < dependents[j] })
		for _, dependent := range dependents {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(stageSet) {
		return nil, fmt.Errorf("circular dependency detected among stages")
	}

	return &ExecutionPlan{Order: order, Graph: graph}, nil
}
