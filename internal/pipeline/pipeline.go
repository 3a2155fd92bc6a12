package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/harmonize-mb/harmonize/internal/browser"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the
// accumulated job state from previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future features (e.g., per-step skips)
type Step interface {
	// Do executes the pipeline step.
	// It receives the context for cancellation, and the job to modify.
	// Returns an error if the step fails critically; non-critical
	// errors should be recorded in the job's report and return nil.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and their errors are
// recorded in the report, but subsequent steps still execute.
//
// Design decision: The default is to stop on error because the steps
// of an import build on each other: there is nothing for the cover art
// step to do when the release edit never went in. Steps whose failures
// are tolerable (ISRC submission, verification) record them in the
// report and return nil instead.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// It respects context cancellation and logs each step's execution.
//
// A terminal status on the report stops execution before the next step
// runs: an album Harmony reports as already linked is done after the
// submit step, and an album marked skipped from the history database
// must not touch the external sites at all.
//
// Returns the first error encountered if continueOnError is false, or
// nil if all steps complete (errors are recorded in the report).
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	report := job.Report

	for _, step := range p.steps {
		if report.Status.Terminal() {
			p.logger.Info("import settled, skipping remaining steps",
				"album", report.AlbumURL,
				"status", report.Status,
			)
			return nil
		}

		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"album", report.AlbumURL,
				"reason", ctx.Err(),
			)
			report.Cancelled = true
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"album", report.AlbumURL,
		)

		if err := step.Do(ctx, job); err != nil {
			if errors.Is(err, browser.ErrAborted) {
				p.logger.Warn("step aborted by user",
					"step", step.Name(),
					"album", report.AlbumURL,
				)
				report.Cancelled = true
				return err
			}

			p.logger.Error("step failed",
				"step", step.Name(),
				"album", report.AlbumURL,
				"error", err,
			)

			report.Error = err
			report.ErrorMessage = err.Error()

			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"album", report.AlbumURL,
			)
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
