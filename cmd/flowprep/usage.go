package main

// ---------------------------------------------------------------------------
// usage.go — version, usage and per-command help
// ---------------------------------------------------------------------------

import (
	"fmt"
	"io"
	"os"
	goruntime "runtime"
	"runtime/debug"
)

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "flowprep v%s", version)
	if commit != "dev" {
		fmt.Fprintf(w, " (%s)", commit[:min(7, len(commit))])
	}
	if buildDate != "unknown" {
		fmt.Fprintf(w, " built %s", buildDate)
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprintf(w, " %s", bi.GoVersion)
	}
	fmt.Fprintf(w, " %s/%s", goruntime.GOOS, goruntime.GOARCH)
	fmt.Fprintln(w)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", bold("flowprep"), dim("v"+version))
	fmt.Fprintf(w, "Feature engineering and class rebalancing for network flow datasets.\n\n")
	fmt.Fprintf(w, "%s\n\n", bold("USAGE"))
	fmt.Fprintf(w, "  flowprep <command> [flags] <files or dirs>\n\n")
	fmt.Fprintf(w, "%s\n\n", bold("COMMANDS"))
	fmt.Fprintf(w, "  %-10s  %s\n", bold("prepare"), "Normalize raw flow CSVs into ARFF datasets")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("balance"), "Rebalance normalized ARFF datasets (random or smote)")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("run"), "Normalize and rebalance in one pass per file")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("subset"), "Sample normal + DDoS subsets from the raw BoT-IoT export")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("schema"), "List profiles, print or export a column schema")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("config"), "Show, validate or initialize configuration")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("history"), "Show finished jobs from the history log")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("version"), "Print version and build info")
	fmt.Fprintf(w, "  %-10s  %s\n", bold("help"), "Show help for a command")
	fmt.Fprintf(w, "\n%s\n\n", bold("ENVIRONMENT VARIABLES"))
	fmt.Fprintf(w, "  %-18s  %s\n", "FLOWPREP_CONFIG", "Default config file path (default: "+defaultConfigPath+")")
	fmt.Fprintf(w, "  %-18s  %s\n", "FLOWPREP_WORKERS", "Worker pool size override")
	fmt.Fprintf(w, "  %-18s  %s\n", "NO_COLOR", "Disable colored output")
	fmt.Fprintf(w, "\n%s\n\n", bold("EXAMPLES"))
	fmt.Fprintf(w, "  %s\n", dim("# Normalize every CSV under data/ with the full BoT-IoT profile"))
	fmt.Fprintf(w, "  flowprep prepare --output-dir out data/\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# Normalize with feature selection and SMOTE in one pass"))
	fmt.Fprintf(w, "  flowprep run --profile botiot-balanced-fs --strategy smote --seed 7 data/\n\n")
	fmt.Fprintf(w, "  %s\n", dim("# Build 0.5%% to 2%% subsets of the raw export"))
	fmt.Fprintf(w, "  flowprep subset --start 0.5 --finish 2 --interval 0.5 raw/\n\n")
	fmt.Fprintf(w, "Run %s for detailed help on any command.\n\n", bold("flowprep help <command>"))
}

var commandHelp = map[string]string{
	"prepare": `flowprep prepare [flags] <files or dirs>

Streams each CSV twice: the first pass collects per-feature bounds, the
second writes min-max scaled instances to <name>.arff plus an info file.
Inputs may be gzip (.gz) or zstd (.zst) compressed.

Flags:
  --profile <name|file>   Schema profile or YAML schema (default: schema.profile)
  --null-policy <p>       skip (drop rows with empty cells) or impute (-1)
  --strict                Fail on categorical values outside the schema
  --pattern <glob>        Input glob inside directories
  --output-dir <dir>      Output directory (default: next to each input)
  --gzip                  Gzip-compress outputs
  --workers <n>           Files processed in parallel
  --format <fmt>          Summary format: table, json, csv
`,
	"balance": `flowprep balance [flags] <files or dirs>

Reads normalized ARFF datasets and writes <name>-balanced.arff. Files whose
minority/majority ratio is at or above the threshold are copied unchanged.

Flags:
  --strategy <s>          none, random or smote
  --seed <n>              Random seed
  --neighbors <k>         SMOTE nearest neighbours (default 5)
  --threshold <r>         Balanced ratio threshold (default 0.5)
  --shuffle               Shuffle instances before writing
  --suffix <s>            Output name suffix (default -balanced)
`,
	"run": `flowprep run [flags] <files or dirs>

Combines prepare and balance: one normalized, optionally rebalanced and
shuffled ARFF per input. Accepts every prepare and balance flag.
`,
	"subset": `flowprep subset [flags] <raw files or dirs>

Keeps every Normal flow and a random share of DDoS flows (HTTP excluded)
from the raw BoT-IoT export. Writes CSV/botiot-<pct>.csv and
INFO/info-botiot-<pct>.txt under --output-dir. Percentages run in parallel.

Flags:
  --percentage <list>     Comma-separated percentages, e.g. 0.5,1
  --start/--finish/--interval
                          Percentage range
  --decimals <n>          Decimal places in file names
  --seed <n>              Random seed
  --no-header             Omit the column-name row
`,
	"schema": `flowprep schema [list] [flags]

  flowprep schema list                      List built-in profiles
  flowprep schema --profile botiot          Print input columns
  flowprep schema --attributes              Print output attributes
  flowprep schema --format yaml > my.yaml   Export a profile as an editable schema file
`,
	"config": `flowprep config [init] [flags]

  flowprep config                 Print the effective configuration
  flowprep config --validate      Validate and exit non-zero on errors
  flowprep config init [--force]  Write a starter config file
`,
	"history": `flowprep history [flags] [files]

Lists job records from history files. Without arguments, reads every file
in history.dir. Processing commands append to the log when history.enabled
is set or --history is given.

Flags:
  --failed                Only failed jobs
  --format <fmt>          table or json
`,
	"version": "flowprep version\n\nPrint version and build info.\n",
}

func cmdHelp(name string) {
	text, ok := commandHelp[name]
	if !ok {
		fmt.Fprintf(os.Stderr, red("error: ")+"no help for %q\n\n", name)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	fmt.Fprint(os.Stdout, text)
}
