package main

// ---------------------------------------------------------------------------
// helpers.go — TTY detection, color, error helpers, env-based config
// ---------------------------------------------------------------------------

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// TTY / color helpers
// ---------------------------------------------------------------------------

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTTY(os.Stderr)
}

func ansi(code, s string) string {
	if !colorEnabled() {
		return s
	}
	return code + s + "\033[0m"
}

func red(s string) string    { return ansi("\033[91m", s) }
func yellow(s string) string { return ansi("\033[93m", s) }
func green(s string) string  { return ansi("\033[32m", s) }
func dim(s string) string    { return ansi("\033[90m", s) }
func bold(s string) string   { return ansi("\033[1m", s) }

// ---------------------------------------------------------------------------
// Error / warn helpers (always to stderr)
// ---------------------------------------------------------------------------

func errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, red("error: ")+format+"\n", args...)
	os.Exit(1)
}

func warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, yellow("warn: ")+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Env-based configuration
//
// Environment variables:
//   FLOWPREP_CONFIG  — default config file path
//   FLOWPREP_WORKERS — worker pool size override
// ---------------------------------------------------------------------------

const defaultConfigPath = "configs/flowprep.yaml"

// envConfig returns the config path, preferring flag > env > default.
func envConfig(flagVal string) string {
	if flagVal != "" && flagVal != defaultConfigPath {
		return flagVal
	}
	if e := os.Getenv("FLOWPREP_CONFIG"); e != "" {
		return e
	}
	return flagVal
}

// envWorkers returns the worker count, preferring flag > env.
func envWorkers(flagVal int) int {
	if flagVal != 0 {
		return flagVal
	}
	if e := os.Getenv("FLOWPREP_WORKERS"); e != "" {
		if n, err := strconv.Atoi(e); err == nil {
			return n
		}
	}
	return 0
}

// ---------------------------------------------------------------------------
// Flag value helpers
// ---------------------------------------------------------------------------

// parsePercentages reads a comma-separated list such as "0.5,1,2.5".
func parsePercentages(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid percentage %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

// percentageRange expands start..finish in interval steps. Each value is
// computed from the step count so rounding errors do not accumulate.
func percentageRange(start, finish, interval float64) ([]float64, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", interval)
	}
	if finish < start {
		return nil, fmt.Errorf("finish %v is below start %v", finish, start)
	}
	var out []float64
	for i := 0; ; i++ {
		v := start + float64(i)*interval
		if v > finish+interval*1e-9 {
			break
		}
		out = append(out, v)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Suggest — typo correction for unknown commands
// ---------------------------------------------------------------------------

var commands = []string{"prepare", "balance", "run", "subset", "schema", "config", "history", "version", "help"}

func suggest(input string) string {
	input = strings.ToLower(input)
	for _, c := range commands {
		if strings.HasPrefix(c, input) || strings.HasPrefix(input, c) {
			return c
		}
	}
	for _, c := range commands {
		if len(c) == len(input) {
			diff := 0
			for i := range c {
				if c[i] != input[i] {
					diff++
				}
			}
			if diff <= 1 {
				return c
			}
		}
	}
	return ""
}
