// Package pipeline runs an ordered list of named fallible steps with
// fail-fast semantics: the first failure short-circuits the remaining
// steps and propagates its cause. There are no retries and no
// concurrency within a run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/williamdemeo/docpages/internal/logfields"
	"github.com/williamdemeo/docpages/internal/metrics"
)

// Step is a single unit of work in a pipeline.
type Step struct {
	Name string
	// Skip, when non-nil and returning true, causes the step to be
	// skipped without counting as a failure.
	Skip func() bool
	Run  func(ctx context.Context) error
}

// StepError wraps a step failure with the step's name.
type StepError struct {
	Step  string
	Cause error
}

func (e *StepError) Error() string {
	return "step " + e.Step + " failed: " + e.Cause.Error()
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// Pipeline is an ordered sequence of steps.
type Pipeline struct {
	steps    []Step
	recorder metrics.Recorder
}

// New creates a pipeline reporting step timings to the given recorder.
// A nil recorder falls back to the noop implementation.
func New(recorder metrics.Recorder) *Pipeline {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Pipeline{recorder: recorder}
}

// Add appends a step to the pipeline.
func (p *Pipeline) Add(step Step) *Pipeline {
	p.steps = append(p.steps, step)
	return p
}

// Run executes the steps in order. The first failing step aborts the
// run and its error is returned wrapped in *StepError.
func (p *Pipeline) Run(ctx context.Context) error {
	for _, step := range p.steps {
		if step.Skip != nil && step.Skip() {
			slog.Info("Step skipped", logfields.Step(step.Name))
			p.recorder.IncStepResult(step.Name, metrics.ResultSkipped)
			continue
		}

		slog.Info("Starting step", logfields.Step(step.Name))
		start := time.Now()

		err := step.Run(ctx)

		elapsed := time.Since(start)
		p.recorder.ObserveStepDuration(step.Name, elapsed)

		if err != nil {
			p.recorder.IncStepResult(step.Name, metrics.ResultFailed)
			slog.Error("Step failed",
				logfields.Step(step.Name),
				logfields.DurationMS(float64(elapsed.Milliseconds())),
				logfields.Error(err))
			return &StepError{Step: step.Name, Cause: err}
		}

		p.recorder.IncStepResult(step.Name, metrics.ResultSuccess)
		slog.Info("Step completed",
			logfields.Step(step.Name),
			logfields.DurationMS(float64(elapsed.Milliseconds())))
	}
	return nil
}
