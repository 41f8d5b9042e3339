package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/replaysheet/internal/model"
)

// Step is one stage of an extraction: fetch the page, locate the record,
// decode it, rebuild the table. A step reads what earlier stages stored in
// the extraction and adds its own output.
type Step interface {
	// Do runs the stage. A returned error ends the extraction; dropped
	// commands and other recoverable problems go into the extraction's
	// diagnostics instead.
	Do(ctx context.Context, extraction *model.Extraction) error

	// Name identifies the stage in logs and in Extraction.PerformedSteps.
	Name() string
}

// Pipeline runs extraction stages in order and stops at the first failure,
// since every stage consumes the previous stage's output.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a stage.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends stages in the given order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the stages against extraction.
//
// Cancellation is checked between stages; a stage that is already running
// is expected to honour ctx itself. Any failure is recorded on the
// extraction (and TimedOut is set when ctx ended it) before the error is
// returned. Only stages that completed are appended to PerformedSteps.
func (p *Pipeline) Execute(ctx context.Context, extraction *model.Extraction) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("extraction cancelled",
				"url", extraction.URL,
				"before", step.Name(),
				"reason", err,
			)
			extraction.TimedOut = true
			extraction.SetError(err)
			return err
		}

		if err := p.run(ctx, step, extraction); err != nil {
			extraction.SetError(err)
			if ctx.Err() != nil {
				extraction.TimedOut = true
			}
			return err
		}
		extraction.PerformedSteps = append(extraction.PerformedSteps, step.Name())
	}
	return nil
}

// run executes one stage and logs its outcome with the elapsed time.
func (p *Pipeline) run(ctx context.Context, step Step, extraction *model.Extraction) error {
	p.logger.Info("executing step", "step", step.Name(), "url", extraction.URL)

	start := time.Now()
	err := step.Do(ctx, extraction)
	elapsed := time.Since(start)

	if err != nil {
		p.logger.Error("step failed",
			"step", step.Name(),
			"url", extraction.URL,
			"elapsed", elapsed,
			"error", err,
		)
		return err
	}
	p.logger.Debug("step completed",
		"step", step.Name(),
		"url", extraction.URL,
		"elapsed", elapsed,
	)
	return nil
}

// StepCount returns the number of stages.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the stage names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
