package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/mkrelease/mkrelease/internal/history"
	"github.com/mkrelease/mkrelease/internal/logfields"
)

// Runner executes stages in dependency order, fail-fast.
type Runner struct {
	registry *Registry
	lockPath string
	store    *history.Store // optional run ledger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLockFile guards runs with an exclusive file lock so two
// invocations cannot interleave stage writes.
func WithLockFile(path string) RunnerOption {
	return func(r *Runner) { r.lockPath = path }
}

// WithHistory records runs into the given ledger.
func WithHistory(store *history.Store) RunnerOption {
	return func(r *Runner) { r.store = store }
}

// NewRunner creates a Runner over the registry.
func NewRunner(registry *Registry, options ...RunnerOption) *Runner {
	r := &Runner{registry: registry}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Execute runs the requested stages and their transitive dependencies.
//
// Stale checks gate each stage: fresh outputs are skipped. The first
// failure aborts the whole invocation; later stages do not run. The
// returned Result always reflects what actually happened, even on error.
func (r *Runner) Execute(ctx context.Context, stages ...StageName) (*Result, error) {
	plan, err := r.registry.BuildExecutionPlan(stages)
	if err != nil {
		return nil, fmt.Errorf("building execution plan: %w", err)
	}

	if r.lockPath != "" {
		lock := flock.New(r.lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", r.lockPath, err)
		}
		if !locked {
			return nil, fmt.Errorf("another invocation holds the lock %s", r.lockPath)
		}
		defer func() { _ = lock.Unlock() }()
	}

	result := &Result{RunID: uuid.NewString()}
	started := time.Now()

	slog.Info("Executing pipeline",
		logfields.RunID(result.RunID),
		slog.Int("stages", len(plan.Order)),
		slog.Any("order", plan.Order))

	var runErr error
	for _, name := range plan.Order {
		select {
		case <-ctx.Done():
			result.Canceled = true
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		exec := r.executeStage(ctx, result.RunID, name)
		result.Executions = append(result.Executions, exec)
		if exec.Err != nil {
			runErr = fmt.Errorf("stage %s: %w", name, exec.Err)
		}
	}

	// Recording uses a fresh context so a canceled run still lands in
	// the ledger.
	r.record(context.Background(), result, started, runErr)

	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

func (r *Runner) executeStage(ctx context.Context, runID string, name StageName) StageExecution {
	stage, exists := r.registry.Get(name)
	if !exists {
		return StageExecution{Stage: name, Status: StatusFailed, Err: fmt.Errorf("stage %s not found during execution", name)}
	}

	stale, err := stage.Stale(ctx)
	if err != nil {
		return StageExecution{Stage: name, Status: StatusFailed, Err: err}
	}
	if !stale {
		slog.Info("Stage up to date, skipping", logfields.RunID(runID), logfields.Stage(string(name)))
		return StageExecution{Stage: name, Status: StatusSkipped}
	}

	slog.Info("Running stage", logfields.RunID(runID), logfields.Stage(string(name)))
	start := time.Now()
	err = stage.Run(ctx)
	duration := time.Since(start)

	if err != nil {
		slog.Error("Stage failed",
			logfields.RunID(runID),
			logfields.Stage(string(name)),
			logfields.DurationMS(float64(duration.Milliseconds())),
			logfields.Error(err))
		return StageExecution{Stage: name, Status: StatusFailed, Duration: duration, Err: err}
	}

	slog.Info("Stage completed",
		logfields.RunID(runID),
		logfields.Stage(string(name)),
		logfields.DurationMS(float64(duration.Milliseconds())))
	return StageExecution{Stage: name, Status: StatusRan, Duration: duration}
}

// record persists the run in the history ledger; ledger errors are logged
// but never fail the pipeline.
func (r *Runner) record(ctx context.Context, result *Result, started time.Time, runErr error) {
	if r.store == nil {
		return
	}

	run := history.Run{
		ID:         result.RunID,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Outcome:    history.OutcomeSucceeded,
	}
	if runErr != nil {
		run.Outcome = history.OutcomeFailed
		run.Error = runErr.Error()
	}

	stages := make([]history.StageRecord, 0, len(result.Executions))
	for i, exec := range result.Executions {
		rec := history.StageRecord{
			RunID:    result.RunID,
			Seq:      i,
			Stage:    string(exec.Stage),
			Duration: exec.Duration,
		}
		switch exec.Status {
		case StatusRan:
			rec.Outcome = history.OutcomeSucceeded
		case StatusSkipped:
			rec.Outcome = history.OutcomeSkipped
		case StatusFailed:
			rec.Outcome = history.OutcomeFailed
			if exec.Err != nil {
				rec.Error = exec.Err.Error()
			}
		}
		stages = append(stages, rec)
	}

	if err := r.store.RecordRun(ctx, run, stages); err != nil {
		slog.Warn("Failed to record run history", logfields.RunID(result.RunID), logfields.Error(err))
	}
}
