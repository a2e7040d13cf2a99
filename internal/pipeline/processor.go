package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/1sec-project/flowprep/internal/arff"
	"github.com/1sec-project/flowprep/internal/balance"
	"github.com/1sec-project/flowprep/internal/instance"
	"github.com/1sec-project/flowprep/internal/normalize"
	"github.com/1sec-project/flowprep/internal/source"
	"github.com/1sec-project/flowprep/internal/transform"
)

// Options control what happens to a file after normalization.
type Options struct {
	RunID    string
	Strategy string // "none", "random" or "smote"
	Balance  balance.Options
	Seed     uint64
	Shuffle  bool
}

// Processor turns one input into an ARFF file and its info side-file.
// A Processor is safe for concurrent use; every job owns its bounds and
// partition.
type Processor struct {
	tr     *transform.Transformer
	norm   *normalize.Normalizer
	opts   Options
	logger zerolog.Logger
}

// NewProcessor validates the strategy name up front so a bad config fails
// before any file is touched.
func NewProcessor(tr *transform.Transformer, nulls normalize.NullPolicy, opts Options, logger zerolog.Logger) (*Processor, error) {
	if _, err := balance.NewStrategy(opts.Strategy, nil, opts.Balance); err != nil {
		return nil, err
	}
	return &Processor{
		tr:     tr,
		norm:   normalize.New(tr, nulls, logger),
		opts:   opts,
		logger: logger.With().Str("component", "processor").Logger(),
	}, nil
}

func (p *Processor) rebalancing() bool {
	s := p.opts.Strategy
	return (s != "" && s != "none") || p.opts.Shuffle
}

// Process normalizes a CSV input in two passes and writes the result,
// rebalanced and shuffled when configured.
func (p *Processor) Process(ctx context.Context, job Job) (Result, error) {
	res := Result{RunID: p.opts.RunID, Job: job, Strategy: "none", Started: time.Now()}
	src := source.File(job.Input)

	bounds, fit, err := p.norm.Fit(ctx, src)
	if err != nil {
		return p.fail(res, err)
	}

	s := p.tr.Schema()
	header := arff.Header{Relation: s.Relation(), Attributes: s.Attributes()}

	if !p.rebalancing() {
		out, err := openOutput(job, header)
		if err != nil {
			return p.fail(res, err)
		}
		defer out.abort()
		stats, err := p.norm.Apply(ctx, src, bounds, out.write)
		if err != nil {
			return p.fail(res, err)
		}
		res.Stats = stats
		res.Stats.Unknown = fit.Unknown
		res.Normal, res.Attack = out.normal, out.attack
		if err := out.commit(&res); err != nil {
			return p.fail(res, err)
		}
		return p.done(res), nil
	}

	var instances []instance.Instance
	stats, err := p.norm.Apply(ctx, src, bounds, func(in instance.Instance) error {
		instances = append(instances, in)
		return nil
	})
	if err != nil {
		return p.fail(res, err)
	}
	res.Stats = stats
	res.Stats.Unknown = fit.Unknown
	return p.balanceAndWrite(ctx, res, header, instances)
}

// Rebalance reads an already normalized ARFF input and writes a balanced
// copy. Instances keep their values; only membership and order change.
func (p *Processor) Rebalance(ctx context.Context, job Job) (Result, error) {
	res := Result{RunID: p.opts.RunID, Job: job, Strategy: "none", Started: time.Now()}

	in, err := source.OpenStream(job.Input)
	if err != nil {
		return p.fail(res, err)
	}
	header, instances, err := arff.ReadAll(in)
	in.Close()
	if err != nil {
		return p.fail(res, fmt.Errorf("%s: %w", job.Input, err))
	}
	if len(instances) == 0 {
		return p.fail(res, fmt.Errorf("%s: %w", job.Input, normalize.ErrEmptyDataset))
	}
	res.Stats.Rows = int64(len(instances))
	return p.balanceAndWrite(ctx, res, header, instances)
}

func (p *Processor) balanceAndWrite(ctx context.Context, res Result, header arff.Header, instances []instance.Instance) (Result, error) {
	if err := ctx.Err(); err != nil {
		return p.fail(res, err)
	}
	rng := RandFor(p.opts.Seed, res.Job.Input)
	strategy, err := balance.NewStrategy(p.opts.Strategy, rng, p.opts.Balance)
	if err != nil {
		return p.fail(res, err)
	}
	res.Strategy = strategy.Name()

	part := balance.Split(instances)
	added, err := strategy.Rebalance(part)
	if err != nil {
		return p.fail(res, fmt.Errorf("%s: %w", res.Job.Input, err))
	}
	res.Synthetic = added
	normal, attack := part.Counts()
	p.logger.Debug().
		Str("file", res.Job.Input).
		Str("strategy", strategy.Name()).
		Float64("ratio", part.Ratio()).
		Int("added", added).
		Int("normal", normal).
		Int("attack", attack).
		Msg("rebalanced")

	final := part.Instances()
	if p.opts.Shuffle {
		balance.Shuffle(final, rng)
	}

	out, err := openOutput(res.Job, header)
	if err != nil {
		return p.fail(res, err)
	}
	defer out.abort()
	for i, in := range final {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return p.fail(res, err)
			}
		}
		if err := out.write(in); err != nil {
			return p.fail(res, err)
		}
	}
	res.Normal, res.Attack = out.normal, out.attack
	if err := out.commit(&res); err != nil {
		return p.fail(res, err)
	}
	return p.done(res), nil
}

func (p *Processor) fail(res Result, err error) (Result, error) {
	res.Finished = time.Now()
	res.Err = err
	return res, err
}

func (p *Processor) done(res Result) Result {
	res.Finished = time.Now()
	p.logger.Info().
		Str("file", res.Job.Input).
		Str("output", res.Job.Output).
		Int64("rows", res.Stats.Rows).
		Int64("skipped", res.Stats.Skipped).
		Int("normal", res.Normal).
		Int("attack", res.Attack).
		Int("synthetic", res.Synthetic).
		Dur("took", res.Finished.Sub(res.Started)).
		Msg("file prepared")
	if res.Stats.Unknown > 0 {
		p.logger.Warn().
			Str("file", res.Job.Input).
			Int64("cells", res.Stats.Unknown).
			Msg("categorical values outside the schema were encoded as all-zero")
	}
	return res
}

// output is an ARFF file in progress. Nothing is visible at the final
// paths until commit succeeds.
type output struct {
	job    Job
	file   *source.AtomicFile
	digest *arff.DigestWriter
	w      *arff.Writer
	normal int
	attack int
}

func openOutput(job Job, h arff.Header) (*output, error) {
	f, err := source.CreateAtomic(job.Output)
	if err != nil {
		return nil, err
	}
	d := arff.NewDigestWriter(f)
	w, err := arff.NewWriter(d, h)
	if err != nil {
		f.Abort()
		return nil, fmt.Errorf("%s: %w", job.Output, err)
	}
	return &output{job: job, file: f, digest: d, w: w}, nil
}

func (o *output) write(in instance.Instance) error {
	if err := o.w.Write(in); err != nil {
		return fmt.Errorf("%s: %w", o.job.Output, err)
	}
	if in.Label == instance.Attack {
		o.attack++
	} else {
		o.normal++
	}
	return nil
}

// commit flushes the data, publishes it and then writes the info
// side-file. The digest covers the uncompressed ARFF bytes.
func (o *output) commit(res *Result) error {
	if err := o.w.Flush(); err != nil {
		return fmt.Errorf("%s: %w", o.job.Output, err)
	}
	res.Digest = o.digest.Sum()
	if err := o.file.Commit(); err != nil {
		return err
	}
	if o.job.Info == "" {
		return nil
	}
	info, err := source.CreateAtomic(o.job.Info)
	if err != nil {
		return err
	}
	err = arff.WriteInfo(info, arff.Info{
		RunID:  res.RunID,
		Normal: int64(o.normal),
		Attack: int64(o.attack),
		Digest: res.Digest,
	})
	if err != nil {
		info.Abort()
		return fmt.Errorf("%s: %w", o.job.Info, err)
	}
	return info.Commit()
}

func (o *output) abort() { o.file.Abort() }
