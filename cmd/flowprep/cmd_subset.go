package main

// ---------------------------------------------------------------------------
// cmd_subset.go — sample experiment subsets from the raw BoT-IoT export
// ---------------------------------------------------------------------------

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/1sec-project/flowprep/internal/core"
	"github.com/1sec-project/flowprep/internal/schema"
	"github.com/1sec-project/flowprep/internal/subset"
)

func cmdSubset(args []string) {
	fs := flag.NewFlagSet("subset", flag.ExitOnError)
	common := addCommonFlags(fs)
	pctList := fs.String("percentage", "", "Comma-separated DDoS percentages to keep, e.g. 0.5,1")
	start := fs.Float64("start", 0, "First percentage of a range")
	finish := fs.Float64("finish", 0, "Last percentage of a range")
	interval := fs.Float64("interval", 0, "Step between percentages of a range")
	decimals := fs.Int("decimals", -1, "Decimal places used in subset file names")
	pattern := fs.String("pattern", "*.csv", "Glob for raw inputs inside directories")
	seed := fs.Uint64("seed", 0, "Random seed (default: balance.seed)")
	noHeader := fs.Bool("no-header", false, "Do not write the BoT-IoT column names as first row")
	output := fs.String("output", "", "Write the summary to file")
	fs.Parse(args)

	a := loadApp(common, func(cfg *core.Config) {
		if *decimals >= 0 {
			cfg.Subset.Decimals = *decimals
		}
		if *seed != 0 {
			cfg.Balance.Seed = *seed
		}
	})

	pcts := a.cfg.Subset.Percentages
	switch {
	case *pctList != "":
		p, err := parsePercentages(*pctList)
		if err != nil {
			errorf("%v", err)
		}
		pcts = p
	case *interval != 0:
		p, err := percentageRange(*start, *finish, *interval)
		if err != nil {
			errorf("%v", err)
		}
		pcts = p
	}
	if len(pcts) == 0 {
		errorf("no percentages given; use --percentage or --start/--finish/--interval")
	}
	os.Exit(extractSubsets(a, a.discover(fs.Args(), *pattern), pcts, !*noHeader, common.outputFormat(), *output))
}

func extractSubsets(a *app, inputs []string, pcts []float64, header bool, format OutputFormat, output string) int {
	defer a.close()

	outDir := a.cfg.Pipeline.OutputDir
	if outDir == "" {
		outDir = "."
	}
	opts := subset.Options{
		Inputs:         inputs,
		CategoryColumn: a.cfg.Subset.CategoryColumn,
		SubcatColumn:   a.cfg.Subset.SubcatColumn,
		OutputDir:      outDir,
		Decimals:       a.cfg.Subset.Decimals,
		Seed:           a.cfg.Balance.Seed,
		Workers:        a.cfg.Pipeline.Workers,
		RunID:          a.runID,
	}
	if header {
		opts.Header = schema.BoTIoTColumnNames()
	}
	ex, err := subset.New(opts, a.logger)
	if err != nil {
		warnf("%v", err)
		return 1
	}

	labels := make([]string, len(pcts))
	for i, p := range pcts {
		labels[i] = subset.FormatPercentage(p, opts.Decimals)
	}
	a.logger.Info().Strs("percentages", labels).Int("files", len(inputs)).Msg("extracting subsets")

	ctx, cancel := signalContext()
	defer cancel()
	results, err := ex.ExtractAll(ctx, pcts)

	pub := a.publisher()
	for _, r := range results {
		event := subsetEvent(a.runID, r)
		a.metrics.ObserveJob(event)
		if pub == nil {
			continue
		}
		if perr := pub.PublishJob(event); perr != nil {
			a.logger.Warn().Err(perr).Msg("failed to publish subset result")
		}
	}

	w, cleanup := outputWriter(output)
	defer cleanup()
	printSubsets(w, format, results)
	if err != nil {
		warnf("%v", err)
		return 1
	}
	return 0
}

func subsetEvent(runID string, r subset.Result) *core.JobEvent {
	e := &core.JobEvent{
		RunID:      runID,
		Command:    "subset",
		Input:      fmt.Sprintf("botiot@%s%%", r.Label),
		Output:     r.Output,
		Status:     core.JobSucceeded,
		Rows:       r.Rows,
		Normal:     r.Normal,
		Attack:     r.Attack,
		Digest:     r.Digest,
		StartedAt:  r.Started,
		FinishedAt: r.Finished,
	}
	if r.Err != nil {
		e.Status = core.JobFailed
		e.Output = ""
		e.Error = r.Err.Error()
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	return e
}
