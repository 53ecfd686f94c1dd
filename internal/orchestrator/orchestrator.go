// Package orchestrator runs the generate, evaluate and retry loop that
// drives a generation provider towards text that passes scoring and
// constraint checks.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/content-gate/internal/config"
	"github.com/sells-group/content-gate/internal/constraint"
	"github.com/sells-group/content-gate/internal/model"
	"github.com/sells-group/content-gate/internal/monitoring"
	"github.com/sells-group/content-gate/internal/resilience"
	"github.com/sells-group/content-gate/internal/scorer"
)

// ErrNoGenerator is returned by Run when no provider is configured.
var ErrNoGenerator = eris.New("orchestrator: no generator configured")

// Generator produces text for a prompt. Implementations must not retry;
// the orchestrator owns the attempt budget.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options tunes attempt timing.
type Options struct {
	// AttemptTimeout bounds a single Generate call. Zero means no bound.
	AttemptTimeout time.Duration

	// Backoff is waited after a failed Generate call.
	Backoff resilience.Backoff
}

// OptionsFromConfig converts retry settings to Options.
func OptionsFromConfig(c config.RetryConfig) Options {
	return Options{
		AttemptTimeout: time.Duration(c.AttemptTimeoutSecs) * time.Second,
		Backoff:        resilience.BackoffFromConfig(c),
	}
}

// Orchestrator is safe for concurrent use; each Run keeps its own state.
type Orchestrator struct {
	gen         Generator
	scorer      *scorer.Engine
	constraints *constraint.Engine
	opts        Options
	metrics     *monitoring.Metrics
}

// New creates an Orchestrator. gen may be nil, in which case Run returns
// ErrNoGenerator.
func New(gen Generator, sc *scorer.Engine, ce *constraint.Engine, opts Options) *Orchestrator {
	return &Orchestrator{
		gen:         gen,
		scorer:      sc,
		constraints: ce,
		opts:        opts,
		metrics:     monitoring.NewMetrics(),
	}
}

// Enabled reports whether a generator is configured.
func (o *Orchestrator) Enabled() bool {
	return o.gen != nil
}

// Run generates text for prompt, evaluating each attempt and retrying with
// ranked instructions until the text passes or maxRetries retries are used.
// At most maxRetries+1 calls reach the generator. Errors are returned only
// for bad input; provider failures are recorded on the outcome.
func (o *Orchestrator) Run(ctx context.Context, prompt string, spec model.TargetSpec, maxRetries int) (*model.GenerationOutcome, error) {
	if o.gen == nil {
		return nil, ErrNoGenerator
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, model.InvalidInput("orchestrator: prompt is required")
	}
	if maxRetries < 0 {
		return nil, model.InvalidInput("orchestrator: max retries must be >= 0, got %d", maxRetries)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("audience", spec.Audience),
		zap.Int("target_words", spec.WordCount),
		zap.Int("max_retries", maxRetries),
	)

	out := &model.GenerationOutcome{Attempts: []model.GenerationAttempt{}}
	current := prompt
	failures := 0

	for i := 0; i <= maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			out.Error = eris.Wrap(err, "orchestrator: cancelled").Error()
			break
		}

		attempt := o.attempt(ctx, i, current, spec)
		out.Attempts = append(out.Attempts, attempt)
		last := i == maxRetries

		if attempt.Failed() {
			out.Error = attempt.Error
			log.Warn("orchestrator: generation failed",
				zap.Int("attempt", i),
				zap.String("class", attempt.ErrorClass),
				zap.String("error", attempt.Error),
			)
			if ctx.Err() != nil {
				break
			}
			if last {
				out.Exhausted = true
				break
			}
			if err := o.opts.Backoff.Wait(ctx, failures); err != nil {
				out.Error = eris.Wrap(err, "orchestrator: cancelled during backoff").Error()
				break
			}
			failures++
			continue
		}

		out.FinalText = attempt.Text
		out.FinalScore = attempt.Score
		out.Error = ""

		if !attempt.RetryNeeded {
			out.Success = true
			break
		}
		if last {
			out.Exhausted = true
			break
		}
		current = constraint.ApplyInstructions(prompt, attempt.RetryInstructions)
	}

	o.metrics.ObserveOutcome(out.Success, out.Exhausted)
	log.Info("orchestrator: run finished",
		zap.Bool("success", out.Success),
		zap.Bool("exhausted", out.Exhausted),
		zap.Int("calls", out.GenerationCalls()),
	)
	return out, nil
}

// attempt performs one generation call and evaluates the result.
func (o *Orchestrator) attempt(ctx context.Context, n int, prompt string, spec model.TargetSpec) model.GenerationAttempt {
	a := model.GenerationAttempt{
		AttemptNumber:     n,
		Prompt:            prompt,
		Violations:        []model.ConstraintViolation{},
		Issues:            []model.QualityIssue{},
		RetryInstructions: []model.RetryInstruction{},
	}

	callCtx := ctx
	if o.opts.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.opts.AttemptTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := o.gen.Generate(callCtx, prompt)
	a.Duration = time.Since(start)
	o.metrics.ObserveAttempt(err != nil, a.Duration.Seconds())

	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			err = eris.Wrapf(err, "orchestrator: attempt %d timed out after %s", n, o.opts.AttemptTimeout)
		}
		a.Error = err.Error()
		a.ErrorClass = resilience.ClassifyError(err)
		a.RetryNeeded = true
		return a
	}

	score := o.scorer.Evaluate(text, spec)
	a.Text = text
	a.Score = &score
	a.Violations = o.constraints.CheckConstraints(text, spec.Audience)
	a.Issues = o.constraints.CheckQualityIssues(text, spec.Audience)
	a.RetryNeeded = constraint.ShouldRetry(a.Violations, a.Issues)
	if a.RetryNeeded {
		a.RetryInstructions = constraint.BuildRetryInstructions(a.Violations, a.Issues)
	}

	zap.L().Debug("orchestrator: attempt evaluated",
		zap.Int("attempt", n),
		zap.Float64("overall", score.Overall),
		zap.Int("violations", len(a.Violations)),
		zap.Int("issues", len(a.Issues)),
		zap.Bool("retry", a.RetryNeeded),
		zap.Duration("duration", a.Duration),
	)
	return a
}
