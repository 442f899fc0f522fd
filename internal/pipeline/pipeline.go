package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/web2proposal/internal/fallback"
	"github.com/nao1215/web2proposal/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the run as
// accumulated by previous steps.
type Step interface {
	// Do executes the pipeline step.
	// Returns an error only if the run cannot continue.
	Do(ctx context.Context, run *model.Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Describer is implemented by steps that can summarize their result for
// progress output.
type Describer interface {
	Describe(run *model.Run) string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// progress receives one line per step when set.
	progress io.Writer
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithProgress prints step progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) {
		p.progress = w
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Logger returns the pipeline logger.
func (p *Pipeline) Logger() *slog.Logger {
	return p.logger
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

// Execute runs all pipeline steps in sequence and stops at the first error.
// Cancellation is checked before each step; steps handle their own timeouts.
// FinishedAt is set only when every step succeeded.
func (p *Pipeline) Execute(ctx context.Context, run *model.Run) error {
	ctx = fallback.WithRecorder(ctx, run)
	total := len(p.steps)

	for i, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.printf("[%d/%d] %s...\n", i+1, total, step.Name())
		p.logger.Info("executing step",
			"step", step.Name(),
			"run", run.ID,
		)

		started := time.Now()
		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"run", run.ID,
				"error", err,
			)
			return fmt.Errorf("%s: %w", step.Name(), err)
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"run", run.ID,
			"elapsed", time.Since(started),
		)
		if d, ok := step.(Describer); ok {
			p.printf("      %s\n", d.Describe(run))
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	run.FinishedAt = time.Now()
	return nil
}

func (p *Pipeline) printf(format string, args ...any) {
	if p.progress == nil {
		return
	}
	_, _ = fmt.Fprintf(p.progress, format, args...)
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
