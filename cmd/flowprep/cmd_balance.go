package main

// ---------------------------------------------------------------------------
// cmd_balance.go — rebalance already normalized ARFF datasets
// ---------------------------------------------------------------------------

import (
	"flag"
	"os"

	"github.com/1sec-project/flowprep/internal/balance"
	"github.com/1sec-project/flowprep/internal/core"
	"github.com/1sec-project/flowprep/internal/pipeline"
)

type balanceFlags struct {
	strategy  *string
	seed      *uint64
	neighbors *int
	threshold *float64
	shuffle   *bool
	suffix    *string
}

func addBalanceFlags(fs *flag.FlagSet, suffix string) *balanceFlags {
	return &balanceFlags{
		strategy:  fs.String("strategy", "", "Balancing strategy: none, random, smote"),
		seed:      fs.Uint64("seed", 0, "Random seed (default: balance.seed)"),
		neighbors: fs.Int("neighbors", 0, "SMOTE nearest neighbours"),
		threshold: fs.Float64("threshold", 0, "Minority/majority ratio at which a file counts as balanced"),
		shuffle:   fs.Bool("shuffle", false, "Shuffle instances before writing"),
		suffix:    fs.String("suffix", suffix, "Appended to output base names"),
	}
}

func (f *balanceFlags) apply(cfg *core.Config) {
	if *f.strategy != "" {
		cfg.Balance.Strategy = *f.strategy
	}
	if *f.seed != 0 {
		cfg.Balance.Seed = *f.seed
	}
	if *f.neighbors != 0 {
		cfg.Balance.Neighbors = *f.neighbors
	}
	if *f.threshold != 0 {
		cfg.Balance.Threshold = *f.threshold
	}
	if *f.shuffle {
		cfg.Balance.Shuffle = true
	}
}

func balanceOptions(cfg *core.Config) balance.Options {
	return balance.Options{
		Threshold: cfg.Balance.Threshold,
		Neighbors: cfg.Balance.Neighbors,
	}
}

func cmdBalance(args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	common := addCommonFlags(fs)
	bf := addBalanceFlags(fs, "-balanced")
	pattern := fs.String("pattern", "*.arff", "Glob for inputs inside directories")
	compress := fs.Bool("gzip", false, "Gzip-compress ARFF outputs")
	output := fs.String("output", "", "Write the summary to file")
	fs.Parse(args)

	a := loadApp(common, func(cfg *core.Config) {
		bf.apply(cfg)
		if *compress {
			cfg.Pipeline.CompressOutput = true
		}
	})
	if a.cfg.Balance.Strategy == "" || a.cfg.Balance.Strategy == "none" {
		if !a.cfg.Balance.Shuffle {
			warnf("strategy is none and shuffle is off; outputs will equal their inputs")
		}
	}
	inputs := a.discover(fs.Args(), *pattern)
	os.Exit(rebalance(a, inputs, *bf.suffix, common.outputFormat(), *output))
}

func rebalance(a *app, inputs []string, suffix string, format OutputFormat, output string) int {
	defer a.close()

	// Rebalance never transforms rows, so the schema is only needed to
	// satisfy the processor.
	proc, err := pipeline.NewProcessor(a.transformer(), a.nullPolicy(), processorOptions(a), a.logger)
	if err != nil {
		warnf("%v", err)
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := a.runner("balance").Run(ctx, a.layout(suffix).Jobs(inputs), proc.Rebalance)
	return report(a, format, output, results, err)
}
