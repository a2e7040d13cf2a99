package main

// ---------------------------------------------------------------------------
// cmd_schema.go — list profiles, print or export a schema
// ---------------------------------------------------------------------------

import (
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/1sec-project/flowprep/internal/schema"
)

func cmdSchema(args []string) {
	if len(args) > 0 && args[0] == "list" {
		for _, name := range schema.Profiles() {
			fmt.Println(name)
		}
		return
	}

	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	profile := fs.String("profile", schema.ProfileBoTIoT, "Schema profile name or YAML schema file")
	format := fs.String("format", "table", "Output format: table, yaml, json, csv")
	output := fs.String("output", "", "Write output to file")
	attrs := fs.Bool("attributes", false, "List output attributes instead of input columns")
	fs.Parse(args)

	s, err := schema.Resolve(*profile)
	if err != nil {
		errorf("%v", err)
	}

	w, cleanup := outputWriter(*output)
	defer cleanup()

	switch parseFormat(*format) {
	case FormatYAML:
		data, err := s.Marshal()
		if err != nil {
			errorf("marshaling schema: %v", err)
		}
		fmt.Fprint(w, string(data))
		return
	case FormatJSON:
		data, _ := json.MarshalIndent(map[string]interface{}{
			"relation":   s.Relation(),
			"columns":    s.Columns(),
			"attributes": s.Attributes(),
		}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if *attrs {
		rows := make([][]string, 0, s.OutputWidth())
		for i, a := range s.Attributes() {
			rows = append(rows, []string{strconv.Itoa(i), a})
		}
		if parseFormat(*format) == FormatCSV {
			writeCSV(w, []string{"position", "attribute"}, rows)
			return
		}
		t := NewTable(w, "POS", "ATTRIBUTE")
		for _, r := range rows {
			t.AddRow(r...)
		}
		t.Render()
		fmt.Fprintf(w, "%d attributes + label %q\n", s.OutputWidth(), s.LabelName())
		return
	}

	rows := make([][]string, 0, s.Width())
	for _, c := range s.Columns() {
		cats := make([]string, len(c.Categories))
		for i, cat := range c.Categories {
			cats[i] = cat.Value
		}
		rows = append(rows, []string{strconv.Itoa(c.Index), c.Name, c.Kind.String(), strconv.Itoa(c.Width()), strings.Join(cats, "|")})
	}
	if parseFormat(*format) == FormatCSV {
		writeCSV(w, []string{"index", "name", "kind", "width", "categories"}, rows)
		return
	}
	t := NewTable(w, "IDX", "COLUMN", "KIND", "WIDTH", "CATEGORIES")
	for _, r := range rows {
		if r[2] == schema.KindRemoved.String() {
			r[2] = dim(r[2])
		}
		t.AddRow(r...)
	}
	t.Render()
	fmt.Fprintf(w, "relation %s: %d input columns, %d output attributes\n", s.Relation(), s.Width(), s.OutputWidth())
}
