package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/1sec-project/flowprep/internal/core"
)

// Func processes one job.
type Func func(ctx context.Context, job Job) (Result, error)

// ForEach calls fn for 0..n-1 with at most workers calls in flight. Every
// index runs even if earlier ones fail; the errors are joined. Indices not
// yet started when ctx is cancelled report ctx.Err().
func ForEach(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	if workers < 1 {
		workers = 1
	}
	errs := make([]error, n)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		g.Go(func() error {
			errs[i] = fn(ctx, i)
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// Runner fans jobs out over a bounded pool and reports each outcome to the
// bus and metrics.
type Runner struct {
	Workers int
	Command string
	Bus     core.Publisher
	Metrics *core.Metrics
	Logger  zerolog.Logger
}

// Run processes every job. One failing file never stops its siblings; the
// returned error joins all per-file failures. Results keep the job order.
func (r *Runner) Run(ctx context.Context, jobs []Job, fn Func) ([]Result, error) {
	logger := r.Logger.With().Str("component", "runner").Logger()
	results := make([]Result, len(jobs))

	err := ForEach(ctx, r.Workers, len(jobs), func(ctx context.Context, i int) error {
		res, err := fn(ctx, jobs[i])
		res.Job = jobs[i]
		if err != nil && res.Err == nil {
			res.Err = err
		}
		results[i] = res
		r.report(logger, res)
		if res.Err != nil {
			return fmt.Errorf("%s: %w", jobs[i].Input, res.Err)
		}
		return nil
	})
	for i := range results {
		if results[i].Job.Input == "" {
			results[i].Job = jobs[i]
			results[i].Err = ctx.Err()
		}
	}
	return results, err
}

func (r *Runner) report(logger zerolog.Logger, res Result) {
	if res.Err != nil {
		logger.Error().Err(res.Err).Str("file", res.Job.Input).Msg("job failed")
	}
	event := res.Event(r.Command)
	r.Metrics.ObserveJob(event)
	if r.Bus == nil {
		return
	}
	if err := r.Bus.PublishJob(event); err != nil {
		logger.Warn().Err(err).Str("file", res.Job.Input).Msg("failed to publish job result")
	}
}
