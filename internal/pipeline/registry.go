package pipeline

import (
	"fmt"
	"sort"
)

// Registry holds the available stages.
type Registry struct {
	stages map[StageName]Stage
}

// NewRegistry creates an empty stage registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[StageName]Stage)}
}

// Register adds a stage; registering the same name twice is a
// programming error.
func (r *Registry) Register(s Stage) error {
	name := s.Name()
	if _, exists := r.stages[name]; exists {
		return fmt.Errorf("stage %s already registered", name)
	}
	r.stages[name] = s
	return nil
}

// Get returns the stage with the given name.
func (r *Registry) Get(name StageName) (Stage, bool) {
	s, ok := r.stages[name]
	return s, ok
}

// Names returns all registered stage names, sorted.
func (r *Registry) Names() []StageName {
	names := make([]StageName, 0, len(r.stages))
	for name := range r.stages {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
