package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/content-gate/internal/model"
)

// Job is one independent Run invocation.
type Job struct {
	ID         string           `json:"id"`
	Prompt     string           `json:"prompt"`
	Target     model.TargetSpec `json:"target"`
	MaxRetries int              `json:"maxRetries"`
}

// BatchResult pairs a job with its outcome. Err is set only for input
// errors; provider failures live on Outcome.
type BatchResult struct {
	ID      string                   `json:"id"`
	Outcome *model.GenerationOutcome `json:"outcome,omitempty"`
	Err     error                    `json:"-"`
}

// RunBatch runs jobs in parallel with at most concurrency in flight.
// Results keep the order of jobs. A failing job never stops the others.
func (o *Orchestrator) RunBatch(ctx context.Context, jobs []Job, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]BatchResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			outcome, err := o.Run(ctx, job.Prompt, job.Target, job.MaxRetries)
			results[i] = BatchResult{ID: job.ID, Outcome: outcome, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
