package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job is one independent headless run.
type Job struct {
	Name    string
	Options Options
	Config  RunConfig
	// Metrics builds fresh metrics for the job's engine.
	Metrics func() []Metric
}

// Ensemble runs independent jobs concurrently, at most Limit at a time.
// Each job gets its own engine, so results do not depend on scheduling.
type Ensemble struct {
	Limit int
}

func NewEnsemble(limit int) *Ensemble {
	return &Ensemble{Limit: limit}
}

func (en *Ensemble) Run(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if en.Limit > 0 {
		g.SetLimit(en.Limit)
	}
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			eng, err := New(job.Options)
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			if job.Metrics != nil {
				for _, m := range job.Metrics() {
					eng.AddMetric(m)
				}
			}
			res, err := eng.Run(ctx, job.Config, nil)
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
