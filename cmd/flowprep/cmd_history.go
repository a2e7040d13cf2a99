package main

// ---------------------------------------------------------------------------
// cmd_history.go — inspect job history logs
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/1sec-project/flowprep/internal/core"
)

func cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Config file path")
	format := fs.String("format", "table", "Output format: table, json")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	failedOnly := fs.Bool("failed", false, "Only show failed jobs")
	fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		cfg, err := core.LoadConfig(envConfig(*configPath))
		if err != nil {
			errorf("loading config: %v", err)
		}
		files, _ = filepath.Glob(filepath.Join(cfg.History.Dir, "flowprep-*.ndjson*"))
		sort.Strings(files)
		if len(files) == 0 {
			errorf("no history files in %s", cfg.History.Dir)
		}
	}

	var events []*core.JobEvent
	for _, f := range files {
		e, err := core.ReadHistory(f)
		if err != nil {
			errorf("%v", err)
		}
		events = append(events, e...)
	}
	if *failedOnly {
		kept := events[:0]
		for _, e := range events {
			if e.Status == core.JobFailed {
				kept = append(kept, e)
			}
		}
		events = kept
	}

	if *jsonOut || parseFormat(*format) == FormatJSON {
		data, _ := json.MarshalIndent(events, "", "  ")
		fmt.Fprintln(os.Stdout, string(data))
		return
	}

	t := NewTable(os.Stdout, "FINISHED", "RUN", "COMMAND", "INPUT", "STATUS", "NORMAL", "ATTACK", "ADDED")
	for _, e := range events {
		status := green(string(e.Status))
		if e.Status == core.JobFailed {
			status = red(string(e.Status))
		}
		run := e.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		t.AddRow(e.FinishedAt.Local().Format("2006-01-02 15:04:05"), run, e.Command, e.Input, status,
			strconv.Itoa(e.Normal), strconv.Itoa(e.Attack), strconv.Itoa(e.Synthetic))
	}
	t.Render()
}
