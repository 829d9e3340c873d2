package pipeline

import (
	"context"
	"log/slog"

	"github.com/mfascan/mfascan/internal/model"
)

// Step is one stage of an audit. Steps run in sequence and accumulate
// their results on the shared report.
//
// Design decision: An interface instead of bare function values because:
// 1. Analyzers carry threshold configuration as state
// 2. Name() gives the logs and PerformedAnalyses a stable identifier
// 3. Future scheduling concerns (ordering constraints) stay expressible
type Step interface {
	// Do runs the step against the report. A returned error is fatal
	// for the audit; degraded results belong on the report itself with
	// a nil return.
	Do(ctx context.Context, report *model.AuditReport) error

	// Name identifies the step in logs and in PerformedAnalyses.
	Name() string
}

// Pipeline runs an ordered list of analysis steps over one report.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps later steps running after a failure.
	// When false the pipeline stops at the first error.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and their errors
// are recorded in the report, but subsequent steps still execute.
//
// Design decision: This option exists because one analyzer choking on a
// malformed bundle section shouldn't discard the rest of the audit. The
// default is still to stop on error because the risk aggregation at the
// end assumes the earlier steps either ran or recorded why they didn't.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline; add stages with AddStep or AddSteps.
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

// AddStep appends a step; execution order is insertion order.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps at once.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order against the report.
//
// Design decision: Cancellation is checked between steps, not inside
// them; the analyzers are short pure-CPU passes, and an analysis either
// ran completely or not at all. A cancelled audit is marked TimedOut.
//
// With continueOnError set the first error is recorded on the report and
// later steps still run; otherwise Execute returns it immediately.
func (p *Pipeline) Execute(ctx context.Context, report *model.AuditReport) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			report.TimedOut = true
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"site", report.Site,
		)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"site", report.Site,
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
				"site", report.Site,
			)
		}

		report.PerformedAnalyses = append(report.PerformedAnalyses, step.Name())
	}

	return nil
}

// StepCount reports how many steps the pipeline holds.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames lists the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
