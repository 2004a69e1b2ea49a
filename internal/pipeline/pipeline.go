package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/phishscan/internal/model"
)

// Step is one stage of a check.
type Step interface {
	// Do runs the stage against d. A stage records its own StageResult and
	// calls d.Decide when it settles the verdict. Expected failures (such as
	// an unreachable URL) are recorded in d and return nil; a non-nil error
	// means the stage itself is broken.
	Do(ctx context.Context, d *model.Detection) error

	// Name returns the stage name.
	Name() string
}

// Pipeline is an ordered list of steps. It holds no per-check state and is
// safe to share between goroutines once built.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps running later steps after a step returns an error.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0, len(model.Stages())),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps against d until one of them decides the verdict.
// Steps after the deciding one are recorded as skipped.
//
// Cancellation is checked before each step. On cancellation or step error
// the error is stored in d.Error and returned; d may then be undecided.
func (p *Pipeline) Execute(ctx context.Context, d *model.Detection) error {
	for i, step := range p.steps {
		if d.Decided() {
			p.skip(d, p.steps[i:])
			return nil
		}

		select {
		case <-ctx.Done():
			p.logger.Warn("check cancelled",
				"step", step.Name(),
				"url", d.URL,
				"reason", ctx.Err(),
			)
			d.Error = ctx.Err().Error()
			return ctx.Err()
		default:
		}

		before := len(d.Stages)
		start := time.Now()
		err := step.Do(ctx, d)
		if len(d.Stages) > before {
			d.Stages[len(d.Stages)-1].Elapsed = time.Since(start)
		}

		if err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", d.URL,
				"error", err,
			)
			d.AddStage(model.StageResult{
				Stage:   model.Stage(step.Name()),
				Outcome: model.OutcomeFailed,
				Detail:  err.Error(),
				Elapsed: time.Since(start),
			})
			d.Error = err.Error()
			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"url", d.URL,
			"decided", d.Decided(),
		)
	}
	return nil
}

func (p *Pipeline) skip(d *model.Detection, rest []Step) {
	for _, step := range rest {
		d.AddStage(model.StageResult{
			Stage:   model.Stage(step.Name()),
			Outcome: model.OutcomeSkipped,
		})
	}
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
