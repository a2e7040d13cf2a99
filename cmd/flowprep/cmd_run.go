package main

// ---------------------------------------------------------------------------
// cmd_run.go — discover, normalize and rebalance in one pass per file
// ---------------------------------------------------------------------------

import (
	"flag"
	"os"

	"github.com/1sec-project/flowprep/internal/core"
)

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	common := addCommonFlags(fs)
	sf := addSchemaFlags(fs)
	bf := addBalanceFlags(fs, "")
	output := fs.String("output", "", "Write the summary to file")
	fs.Parse(args)

	a := loadApp(common, func(cfg *core.Config) {
		sf.apply(cfg)
		bf.apply(cfg)
	})
	suffix := *bf.suffix
	if suffix == "" && a.cfg.Balance.Strategy != "" && a.cfg.Balance.Strategy != "none" {
		suffix = "-" + a.cfg.Balance.Strategy
	}
	os.Exit(runPipeline(a, "run", a.discover(fs.Args(), *sf.pattern), suffix, common.outputFormat(), *output))
}
