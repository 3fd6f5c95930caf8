// Package pipeline orchestrates the release stages in dependency order:
// an independent clean reset, and the strict generate -> convert ->
// build/publish chain. Stages whose outputs are fresh are skipped.
package pipeline

import (
	"context"
	"time"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StageClean   StageName = "clean"
	StageReadme  StageName = "readme"
	StageConvert StageName = "convert"
	StageBuild   StageName = "build"
	StagePublish StageName = "publish"
)

// Stage is a single pipeline operation.
type Stage interface {
	Name() StageName
	// Dependencies lists stages that must complete before this one.
	Dependencies() []StageName
	// Stale reports whether the stage's output must be regenerated.
	// Always-run stages (clean, build, publish) report true.
	Stale(ctx context.Context) (bool, error)
	Run(ctx context.Context) error
}

// Status classifies a stage execution within a run.
type Status string

const (
	StatusRan     Status = "ran"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// StageExecution records one stage's outcome.
type StageExecution struct {
	Stage    StageName
	Status   Status
	Duration time.Duration
	Err      error
}

// Result summarizes a pipeline run.
type Result struct {
	RunID      string
	Executions []StageExecution
	Canceled   bool
}

// Failed returns the first failed execution, if any.
func (r *Result) Failed() *StageExecution {
	for i := range r.Executions {
		if r.Executions[i].Status == StatusFailed {
			return &r.Executions[i]
		}
	}
	return nil
}
