package main

// ---------------------------------------------------------------------------
// cmd_prepare.go — normalize raw flow CSVs into ARFF datasets
// ---------------------------------------------------------------------------

import (
	"flag"
	"os"

	"github.com/1sec-project/flowprep/internal/core"
	"github.com/1sec-project/flowprep/internal/pipeline"
)

type schemaFlags struct {
	profile    *string
	nullPolicy *string
	strict     *bool
	pattern    *string
	compress   *bool
}

func addSchemaFlags(fs *flag.FlagSet) *schemaFlags {
	return &schemaFlags{
		profile:    fs.String("profile", "", "Schema profile name or YAML schema file"),
		nullPolicy: fs.String("null-policy", "", "Rows with empty cells: skip or impute"),
		strict:     fs.Bool("strict", false, "Fail on categorical values outside the schema"),
		pattern:    fs.String("pattern", "", "Glob for inputs inside directories (default: pipeline.pattern)"),
		compress:   fs.Bool("gzip", false, "Gzip-compress ARFF outputs"),
	}
}

func (f *schemaFlags) apply(cfg *core.Config) {
	if *f.profile != "" {
		cfg.Schema.Profile = *f.profile
	}
	if *f.nullPolicy != "" {
		cfg.Schema.NullPolicy = *f.nullPolicy
	}
	if *f.strict {
		cfg.Schema.StrictCategories = true
	}
	if *f.compress {
		cfg.Pipeline.CompressOutput = true
	}
}

func cmdPrepare(args []string) {
	fs := flag.NewFlagSet("prepare", flag.ExitOnError)
	common := addCommonFlags(fs)
	sf := addSchemaFlags(fs)
	output := fs.String("output", "", "Write the summary to file")
	fs.Parse(args)

	a := loadApp(common, func(cfg *core.Config) {
		sf.apply(cfg)
		cfg.Balance.Strategy = "none"
		cfg.Balance.Shuffle = false
	})
	os.Exit(runPipeline(a, "prepare", a.discover(fs.Args(), *sf.pattern), "", common.outputFormat(), *output))
}

// runPipeline processes inputs from CSV and reports the outcome. It
// returns the process exit code.
func runPipeline(a *app, command string, inputs []string, suffix string, format OutputFormat, output string) int {
	defer a.close()

	proc, err := pipeline.NewProcessor(a.transformer(), a.nullPolicy(), processorOptions(a), a.logger)
	if err != nil {
		warnf("%v", err)
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	a.logger.Info().Int("files", len(inputs)).Str("command", command).Msg("starting")
	results, err := a.runner(command).Run(ctx, a.layout(suffix).Jobs(inputs), proc.Process)
	return report(a, format, output, results, err)
}

func processorOptions(a *app) pipeline.Options {
	return pipeline.Options{
		RunID:    a.runID,
		Strategy: a.cfg.Balance.Strategy,
		Seed:     a.cfg.Balance.Seed,
		Shuffle:  a.cfg.Balance.Shuffle,
		Balance:  balanceOptions(a.cfg),
	}
}

func report(a *app, format OutputFormat, output string, results []pipeline.Result, err error) int {
	w, cleanup := outputWriter(output)
	defer cleanup()
	printResults(w, format, results)

	if err != nil {
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		warnf("%d of %d file(s) failed", failed, len(results))
		return 1
	}
	return 0
}
