package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/1sec-project/flowprep/internal/normalize"
	"github.com/1sec-project/flowprep/internal/pipeline"
	"github.com/1sec-project/flowprep/internal/subset"
)

// ─── suggest ──────────────────────────────────────────────────────────────────

func TestSuggest_PrefixMatch(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"prep", "prepare"},
		{"bal", "balance"},
		{"sub", "subset"},
		{"sch", "schema"},
		{"con", "config"},
		{"ver", "version"},
		{"hel", "help"},
	}
	for _, tc := range tests {
		if got := suggest(tc.input); got != tc.want {
			t.Errorf("suggest(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSuggest_TypoCorrection(t *testing.T) {
	if got := suggest("balancd"); got != "balance" {
		t.Errorf("suggest('balancd') = %q, want 'balance'", got)
	}
	if got := suggest("zzzzzzzzz"); got != "" {
		t.Errorf("suggest('zzzzzzzzz') = %q, want empty", got)
	}
	if got := suggest("SCHEMA"); got != "schema" {
		t.Errorf("suggest('SCHEMA') = %q, want 'schema'", got)
	}
}

// ─── env overrides ────────────────────────────────────────────────────────────

func TestEnvConfig(t *testing.T) {
	t.Setenv("FLOWPREP_CONFIG", "/etc/flowprep.yaml")
	if got := envConfig(defaultConfigPath); got != "/etc/flowprep.yaml" {
		t.Errorf("envConfig(default) = %q", got)
	}
	if got := envConfig("mine.yaml"); got != "mine.yaml" {
		t.Errorf("explicit flag should win, got %q", got)
	}
}

func TestEnvWorkers(t *testing.T) {
	t.Setenv("FLOWPREP_WORKERS", "6")
	if got := envWorkers(0); got != 6 {
		t.Errorf("envWorkers(0) = %d, want 6", got)
	}
	if got := envWorkers(2); got != 2 {
		t.Errorf("envWorkers(2) = %d, want 2", got)
	}
	t.Setenv("FLOWPREP_WORKERS", "many")
	if got := envWorkers(0); got != 0 {
		t.Errorf("invalid env = %d, want 0", got)
	}
}

// ─── percentages ──────────────────────────────────────────────────────────────

func TestParsePercentages(t *testing.T) {
	got, err := parsePercentages("0.5, 1,,2.25")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 0.5 || got[2] != 2.25 {
		t.Errorf("got %v", got)
	}
	if _, err := parsePercentages("1,abc"); err == nil {
		t.Error("expected error")
	}
}

func TestPercentageRange(t *testing.T) {
	got, err := percentageRange(0.1, 0.5, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Fatalf("got %v, want 5 values", got)
	}
	if subset.FormatPercentage(got[4], 4) != "0.5000" {
		t.Errorf("last = %v", got[4])
	}
	if _, err := percentageRange(1, 0, 0.5); err == nil {
		t.Error("expected error for finish < start")
	}
	if _, err := percentageRange(0, 1, 0); err == nil {
		t.Error("expected error for zero interval")
	}
}

// ─── output ───────────────────────────────────────────────────────────────────

func TestParseFormat(t *testing.T) {
	tests := map[string]OutputFormat{
		"json": FormatJSON, "JSON": FormatJSON, "csv": FormatCSV,
		"yaml": FormatYAML, "yml": FormatYAML, "table": FormatTable, "": FormatTable,
	}
	for in, want := range tests {
		if got := parseFormat(in); got != want {
			t.Errorf("parseFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTable_Render(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	tbl := NewTable(&buf, "A", "LONGER")
	tbl.AddRow("wide value", "x")
	tbl.AddRow("only")
	tbl.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "┌") || !strings.HasPrefix(lines[5], "└") {
		t.Errorf("borders wrong:\n%s", buf.String())
	}
	if !strings.Contains(lines[3], "│ wide value │ x      │") {
		t.Errorf("row = %q", lines[3])
	}
}

func sampleResults() []pipeline.Result {
	return []pipeline.Result{
		{
			Job:      pipeline.Job{Input: "a.csv", Output: "a.arff"},
			Stats:    normalize.Stats{Rows: 10, Skipped: 1},
			Normal:   7,
			Attack:   3,
			Strategy: "none",
			Digest:   "abc",
		},
		{
			Job: pipeline.Job{Input: "b.csv", Output: "b.arff"},
			Err: errors.New("row 4: bad"),
		},
	}
}

func TestPrintResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, FormatJSON, sampleResults())
	var rows []resultRow
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rows[0].Status != "ok" || rows[0].Output != "a.arff" || rows[0].Rows != 10 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Status != "failed" || rows[1].Output != "" || rows[1].Error != "row 4: bad" {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestPrintResults_CSV(t *testing.T) {
	var buf bytes.Buffer
	printResults(&buf, FormatCSV, sampleResults())
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0][0] != "input" || records[2][2] != "failed" {
		t.Errorf("records = %v", records)
	}
}

func TestPrintSubsets_Table(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	printSubsets(&buf, FormatTable, []subset.Result{{Label: "0.5000", Normal: 4, Attack: 6, Output: "CSV/botiot-0.5000.csv"}})
	if !strings.Contains(buf.String(), "│ 0.5000  │ 4      │ 6      │ 10    │") {
		t.Errorf("table:\n%s", buf.String())
	}
}

func TestSubsetEvent(t *testing.T) {
	e := subsetEvent("run", subset.Result{Label: "1", Err: errors.New("boom")})
	if e.Status != "failed" || e.Error != "boom" || e.Input != "botiot@1%" {
		t.Errorf("event = %+v", e)
	}
}

func TestCommandHelpCoversCommands(t *testing.T) {
	for _, c := range commands {
		if c == "help" {
			continue
		}
		if _, ok := commandHelp[c]; !ok {
			t.Errorf("no help text for %q", c)
		}
	}
}
