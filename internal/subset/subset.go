// Package subset extracts experiment-sized samples from the raw BoT-IoT
// export: every normal flow plus a random share of the DDoS flows.
package subset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/1sec-project/flowprep/internal/arff"
	"github.com/1sec-project/flowprep/internal/pipeline"
	"github.com/1sec-project/flowprep/internal/source"
)

const (
	categoryNormal = "Normal"
	categoryDDoS   = "DDoS"
	subcatHTTP     = "HTTP"
)

// Options configure an Extractor.
type Options struct {
	Inputs         []string // raw dataset files, read in order
	Header         []string // written as the first row of every subset
	CategoryColumn int
	SubcatColumn   int
	OutputDir      string // subsets go to OutputDir/CSV, info files to OutputDir/INFO
	Decimals       int    // digits used to name a percentage
	Seed           uint64
	Workers        int
	RunID          string
}

// Result summarises one subset.
type Result struct {
	Percentage float64
	Label      string
	Output     string
	Info       string
	Normal     int
	Attack     int
	Rows       int
	Digest     string
	Started    time.Time
	Finished   time.Time
	Err        error
}

// Extractor builds subsets for one or more percentages.
type Extractor struct {
	opts   Options
	logger zerolog.Logger
}

// New creates an Extractor.
func New(opts Options, logger zerolog.Logger) (*Extractor, error) {
	if len(opts.Inputs) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	if opts.CategoryColumn < 0 || opts.SubcatColumn < 0 {
		return nil, fmt.Errorf("category columns must be non-negative")
	}
	if opts.Decimals < 0 {
		opts.Decimals = 0
	}
	return &Extractor{
		opts:   opts,
		logger: logger.With().Str("component", "subset").Logger(),
	}, nil
}

// FormatPercentage renders a percentage the way subset files are named.
func FormatPercentage(pct float64, decimals int) string {
	return strconv.FormatFloat(pct, 'f', decimals, 64)
}

// Paths returns the subset and info paths for a percentage.
func (e *Extractor) Paths(pct float64) (output, info string) {
	label := FormatPercentage(pct, e.opts.Decimals)
	output = filepath.Join(e.opts.OutputDir, "CSV", "botiot-"+label+".csv")
	info = filepath.Join(e.opts.OutputDir, "INFO", "info-botiot-"+label+".txt")
	return output, info
}

// ExtractAll builds one subset per percentage concurrently. Results keep
// the order of pcts; failures are joined into the returned error.
func (e *Extractor) ExtractAll(ctx context.Context, pcts []float64) ([]Result, error) {
	results := make([]Result, len(pcts))
	err := pipeline.ForEach(ctx, e.opts.Workers, len(pcts), func(ctx context.Context, i int) error {
		rng := rand.New(rand.NewPCG(e.opts.Seed, math.Float64bits(pcts[i])))
		res, err := e.Extract(ctx, pcts[i], rng)
		results[i] = res
		return err
	})
	return results, err
}

// Extract writes one subset. Each DDoS row outside the HTTP subcategory is
// kept with probability pct/100; normal rows are always kept; every other
// category is dropped.
func (e *Extractor) Extract(ctx context.Context, pct float64, rng *rand.Rand) (Result, error) {
	res := Result{Percentage: pct, Label: FormatPercentage(pct, e.opts.Decimals), Started: time.Now()}
	res.Output, res.Info = e.Paths(pct)
	fail := func(err error) (Result, error) {
		res.Finished = time.Now()
		res.Err = fmt.Errorf("subset %s: %w", res.Label, err)
		return res, res.Err
	}
	if pct <= 0 || pct > 100 {
		return fail(fmt.Errorf("percentage %v not in (0,100]", pct))
	}

	out, err := source.CreateAtomic(res.Output)
	if err != nil {
		return fail(err)
	}
	defer out.Abort()
	digest := arff.NewDigestWriter(out)
	w := csv.NewWriter(digest)
	if len(e.opts.Header) > 0 {
		if err := w.Write(e.opts.Header); err != nil {
			return fail(err)
		}
	}

	threshold := pct / 100
	need := max(e.opts.CategoryColumn, e.opts.SubcatColumn) + 1
	for _, input := range e.opts.Inputs {
		if err := e.scan(ctx, input, need, func(row []string) error {
			res.Rows++
			switch row[e.opts.CategoryColumn] {
			case categoryNormal:
				res.Normal++
				return w.Write(row)
			case categoryDDoS:
				if row[e.opts.SubcatColumn] == subcatHTTP {
					return nil
				}
				if rng.Float64() < threshold {
					res.Attack++
					return w.Write(row)
				}
			}
			return nil
		}); err != nil {
			return fail(err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fail(err)
	}
	res.Digest = digest.Sum()
	if err := out.Commit(); err != nil {
		return fail(err)
	}

	info, err := source.CreateAtomic(res.Info)
	if err != nil {
		return fail(err)
	}
	defer info.Abort()
	if err := arff.WriteInfo(info, arff.Info{
		RunID:  e.opts.RunID,
		Normal: int64(res.Normal),
		Attack: int64(res.Attack),
		Digest: res.Digest,
	}); err != nil {
		return fail(err)
	}
	if err := info.Commit(); err != nil {
		return fail(err)
	}

	res.Finished = time.Now()
	e.logger.Info().
		Str("subset", res.Label).
		Str("output", res.Output).
		Int("scanned", res.Rows).
		Int("normal", res.Normal).
		Int("attack", res.Attack).
		Dur("took", res.Finished.Sub(res.Started)).
		Msg("subset written")
	return res, nil
}

func (e *Extractor) scan(ctx context.Context, path string, need int, fn func([]string) error) error {
	r, err := source.OpenHeaderless(path)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		if r.Row()%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if len(row) < need {
			return fmt.Errorf("%s: row %d has %d fields, need at least %d", path, r.Row(), len(row), need)
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("%s: row %d: %w", path, r.Row(), err)
		}
	}
}
