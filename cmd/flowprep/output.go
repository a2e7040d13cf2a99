package main

// ---------------------------------------------------------------------------
// output.go — format flag, table rendering, CSV and JSON summaries
// ---------------------------------------------------------------------------

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/1sec-project/flowprep/internal/pipeline"
	"github.com/1sec-project/flowprep/internal/subset"
)

// OutputFormat enumerates supported output formats.
type OutputFormat int

const (
	FormatTable OutputFormat = iota
	FormatJSON
	FormatCSV
	FormatYAML
)

// parseFormat converts a --format string to an OutputFormat.
func parseFormat(s string) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "csv":
		return FormatCSV
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatTable
	}
}

// ---------------------------------------------------------------------------
// Table renderer — auto-sized columns with box-drawing borders
// ---------------------------------------------------------------------------

// Table renders aligned, bordered tables to a writer.
type Table struct {
	headers []string
	rows    [][]string
	w       io.Writer
}

// NewTable creates a table with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{headers: headers, w: w}
}

// AddRow appends a row. Values are matched positionally to headers.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	t.rows = append(t.rows, row)
}

func (t *Table) rule(left, mid, right string, widths []int) string {
	var b strings.Builder
	b.WriteString(left)
	for i, w := range widths {
		b.WriteString(strings.Repeat("─", w+2))
		if i < len(widths)-1 {
			b.WriteString(mid)
		}
	}
	b.WriteString(right)
	return b.String()
}

// Render writes the table with box-drawing borders.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		fmt.Fprint(t.w, "│")
		for i, cell := range cells {
			fmt.Fprintf(t.w, " %-*s │", widths[i], cell)
		}
		fmt.Fprintln(t.w)
	}

	fmt.Fprintln(t.w, t.rule("┌", "┬", "┐", widths))
	printRow(t.headers)
	fmt.Fprintln(t.w, t.rule("├", "┼", "┤", widths))
	for _, row := range t.rows {
		printRow(row)
	}
	fmt.Fprintln(t.w, t.rule("└", "┴", "┘", widths))
}

func writeCSV(w io.Writer, headers []string, rows [][]string) {
	cw := csv.NewWriter(w)
	cw.Write(headers)
	for _, row := range rows {
		cw.Write(row)
	}
	cw.Flush()
}

// outputWriter writes to file if --output is set, otherwise stdout.
func outputWriter(path string) (*os.File, func()) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		errorf("opening output file %q: %v", path, err)
	}
	return f, func() { f.Close() }
}

// ---------------------------------------------------------------------------
// Job summaries
// ---------------------------------------------------------------------------

type resultRow struct {
	Input     string `json:"input"`
	Output    string `json:"output,omitempty"`
	Status    string `json:"status"`
	Rows      int64  `json:"rows"`
	Skipped   int64  `json:"skipped"`
	Normal    int    `json:"normal"`
	Attack    int    `json:"attack"`
	Synthetic int    `json:"synthetic"`
	Strategy  string `json:"strategy"`
	Digest    string `json:"digest,omitempty"`
	Error     string `json:"error,omitempty"`
}

func summarize(results []pipeline.Result) []resultRow {
	rows := make([]resultRow, len(results))
	for i, r := range results {
		row := resultRow{
			Input:     r.Job.Input,
			Status:    "ok",
			Rows:      r.Stats.Rows,
			Skipped:   r.Stats.Skipped,
			Normal:    r.Normal,
			Attack:    r.Attack,
			Synthetic: r.Synthetic,
			Strategy:  r.Strategy,
			Digest:    r.Digest,
		}
		if r.Err != nil {
			row.Status = "failed"
			row.Error = r.Err.Error()
		} else {
			row.Output = r.Job.Output
		}
		rows[i] = row
	}
	return rows
}

func printResults(w io.Writer, format OutputFormat, results []pipeline.Result) {
	rows := summarize(results)
	switch format {
	case FormatJSON:
		data, _ := json.MarshalIndent(rows, "", "  ")
		fmt.Fprintln(w, string(data))
	case FormatCSV:
		headers := []string{"input", "output", "status", "rows", "skipped", "normal", "attack", "synthetic", "strategy", "digest", "error"}
		var out [][]string
		for _, r := range rows {
			out = append(out, []string{
				r.Input, r.Output, r.Status,
				strconv.FormatInt(r.Rows, 10), strconv.FormatInt(r.Skipped, 10),
				strconv.Itoa(r.Normal), strconv.Itoa(r.Attack), strconv.Itoa(r.Synthetic),
				r.Strategy, r.Digest, r.Error,
			})
		}
		writeCSV(w, headers, out)
	default:
		t := NewTable(w, "INPUT", "STATUS", "ROWS", "SKIPPED", "NORMAL", "ATTACK", "ADDED", "OUTPUT")
		for _, r := range rows {
			status := green("ok")
			target := r.Output
			if r.Status != "ok" {
				status = red("failed")
				target = r.Error
			}
			t.AddRow(r.Input, status,
				strconv.FormatInt(r.Rows, 10), strconv.FormatInt(r.Skipped, 10),
				strconv.Itoa(r.Normal), strconv.Itoa(r.Attack), strconv.Itoa(r.Synthetic),
				target)
		}
		t.Render()
	}
}

func printSubsets(w io.Writer, format OutputFormat, results []subset.Result) {
	switch format {
	case FormatJSON:
		type row struct {
			Percentage string `json:"percentage"`
			Output     string `json:"output"`
			Normal     int    `json:"normal"`
			Attack     int    `json:"attack"`
			Digest     string `json:"digest,omitempty"`
			Error      string `json:"error,omitempty"`
		}
		out := make([]row, len(results))
		for i, r := range results {
			out[i] = row{Percentage: r.Label, Output: r.Output, Normal: r.Normal, Attack: r.Attack, Digest: r.Digest}
			if r.Err != nil {
				out[i].Error = r.Err.Error()
			}
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(w, string(data))
	default:
		t := NewTable(w, "PERCENT", "NORMAL", "ATTACK", "TOTAL", "OUTPUT")
		for _, r := range results {
			target := r.Output
			if r.Err != nil {
				target = red(r.Err.Error())
			}
			t.AddRow(r.Label, strconv.Itoa(r.Normal), strconv.Itoa(r.Attack), strconv.Itoa(r.Normal+r.Attack), target)
		}
		t.Render()
	}
}
