package main

// ---------------------------------------------------------------------------
// app.go — config loading, logger, bus and metrics wiring shared by the
// processing commands
// ---------------------------------------------------------------------------

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/1sec-project/flowprep/internal/core"
	"github.com/1sec-project/flowprep/internal/normalize"
	"github.com/1sec-project/flowprep/internal/pipeline"
	"github.com/1sec-project/flowprep/internal/schema"
	"github.com/1sec-project/flowprep/internal/transform"
)

// commonFlags are accepted by every processing command. Zero values leave
// the config file setting alone.
type commonFlags struct {
	configPath *string
	outputDir  *string
	workers    *int
	format     *string
	jsonOut    *bool
	logLevel   *string
	noBus      *bool
	history    *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", defaultConfigPath, "Config file path"),
		outputDir:  fs.String("output-dir", "", "Directory for outputs (default: next to each input)"),
		workers:    fs.Int("workers", 0, "Files processed in parallel"),
		format:     fs.String("format", "table", "Summary format: table, json, csv"),
		jsonOut:    fs.Bool("json", false, "Output summary as JSON"),
		logLevel:   fs.String("log-level", "", "Log level override: debug, info, warn, error"),
		noBus:      fs.Bool("no-bus", false, "Do not publish job results even if the bus is enabled"),
		history:    fs.Bool("history", false, "Append job results to the history log"),
	}
}

func (f *commonFlags) outputFormat() OutputFormat {
	if *f.jsonOut {
		return FormatJSON
	}
	return parseFormat(*f.format)
}

// app holds what a processing command needs for one invocation.
type app struct {
	cfg     *core.Config
	logger  zerolog.Logger
	runID   string
	bus     *core.JobBus
	history *core.History
	metrics *core.Metrics
}

// loadApp reads the config, applies flag overrides and validates the result.
// Fatal config problems exit the process.
func loadApp(f *commonFlags, override func(*core.Config)) *app {
	cfg, err := core.LoadConfig(envConfig(*f.configPath))
	if err != nil {
		errorf("loading config: %v", err)
	}
	if *f.outputDir != "" {
		cfg.Pipeline.OutputDir = *f.outputDir
	}
	if n := envWorkers(*f.workers); n != 0 {
		cfg.Pipeline.Workers = n
	}
	if *f.logLevel != "" {
		cfg.Logging.Level = *f.logLevel
	}
	if *f.noBus {
		cfg.Bus.Enabled = false
	}
	if *f.history {
		cfg.History.Enabled = true
	}
	if override != nil {
		override(cfg)
	}

	warnings, errs := cfg.Validate()
	for _, w := range warnings {
		warnf("%s", w)
	}
	if len(errs) > 0 {
		for _, e := range errs[1:] {
			warnf("%v", e)
		}
		errorf("invalid config: %v", errs[0])
	}

	a := &app{
		cfg:     cfg,
		logger:  core.NewLogger(cfg.Logging, os.Stderr),
		runID:   uuid.NewString(),
		metrics: core.NewMetrics(),
	}
	a.logger = a.logger.With().Str("run_id", a.runID).Logger()

	if cfg.Bus.Enabled {
		bus, err := core.NewJobBus(&cfg.Bus, a.logger)
		if err != nil {
			errorf("starting job bus: %v", err)
		}
		a.bus = bus
	}
	if cfg.History.Enabled {
		h, err := core.NewHistory(cfg.History, a.runID, a.logger)
		if err != nil {
			errorf("opening job history: %v", err)
		}
		a.history = h
	}
	return a
}

// publisher returns the sinks finished jobs are reported to, or nil.
func (a *app) publisher() core.Publisher {
	var ps core.Publishers
	if a.bus != nil {
		ps = append(ps, a.bus)
	}
	if a.history != nil {
		ps = append(ps, a.history)
	}
	if len(ps) == 0 {
		return nil
	}
	return ps
}

// transformer resolves the configured schema.
func (a *app) transformer() *transform.Transformer {
	s, err := schema.Resolve(a.cfg.Schema.Profile)
	if err != nil {
		errorf("loading schema: %v", err)
	}
	return transform.New(s, transform.Options{
		StrictCategories: a.cfg.Schema.StrictCategories,
		AddressCacheSize: a.cfg.Schema.AddressCache,
	})
}

func (a *app) nullPolicy() normalize.NullPolicy {
	p, err := normalize.ParseNullPolicy(a.cfg.Schema.NullPolicy)
	if err != nil {
		errorf("%v", err)
	}
	return p
}

func (a *app) runner(command string) *pipeline.Runner {
	r := &pipeline.Runner{
		Workers: a.cfg.Pipeline.Workers,
		Command: command,
		Metrics: a.metrics,
		Logger:  a.logger,
		Bus:     a.publisher(),
	}
	return r
}

// layout derives job paths from the pipeline section.
func (a *app) layout(suffix string) pipeline.Layout {
	return pipeline.Layout{
		OutputDir: a.cfg.Pipeline.OutputDir,
		Suffix:    suffix,
		Compress:  a.cfg.Pipeline.CompressOutput,
	}
}

// discover expands directory arguments with the configured pattern.
func (a *app) discover(args []string, pattern string) []string {
	if len(args) == 0 {
		errorf("no inputs given")
	}
	if pattern == "" {
		pattern = a.cfg.Pipeline.Pattern
	}
	var inputs []string
	for _, arg := range args {
		found, err := pipeline.Discover(arg, pattern)
		if err != nil {
			errorf("discovering inputs in %s: %v", arg, err)
		}
		inputs = append(inputs, found...)
	}
	if len(inputs) == 0 {
		errorf("no inputs matching %q", pattern)
	}
	return inputs
}

// close writes the metrics textfile and shuts the bus down.
func (a *app) close() {
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		warnf("%v", err)
	}
	if a.history != nil {
		a.history.Close()
	}
	if a.bus != nil {
		a.bus.Close()
	}
}

// signalContext is cancelled on SIGINT or SIGTERM so in-flight outputs are
// discarded rather than left half written.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
