package subset

import (
	"context"
	"encoding/csv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// rawRow builds a five-column raw record: id, addr, pkts, category, subcategory.
func rawRow(id, category, subcat string) string {
	return strings.Join([]string{id, "10.0.0.1", "4", category, subcat}, ",")
}

func writeRaw(t *testing.T, dir, name string, rows []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fixture(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	var first, second []string
	for i := 0; i < 10; i++ {
		first = append(first, rawRow("n", "Normal", "Normal"))
	}
	for i := 0; i < 200; i++ {
		first = append(first, rawRow("u", "DDoS", "UDP"))
	}
	for i := 0; i < 50; i++ {
		second = append(second, rawRow("h", "DDoS", "HTTP"))
		second = append(second, rawRow("s", "DoS", "TCP"))
		second = append(second, rawRow("t", "DDoS", "TCP"))
	}
	second = append(second, rawRow("n", "Normal", "Normal"))
	return dir, []string{writeRaw(t, dir, "raw_1.csv", first), writeRaw(t, dir, "raw_2.csv", second)}
}

func newExtractor(t *testing.T, dir string, inputs []string) *Extractor {
	t.Helper()
	e, err := New(Options{
		Inputs:         inputs,
		Header:         []string{"id", "addr", "pkts", "category", "subcategory"},
		CategoryColumn: 3,
		SubcatColumn:   4,
		OutputDir:      filepath.Join(dir, "out"),
		Decimals:       2,
		Seed:           9,
		Workers:        2,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestExtract_FullPercentageKeepsAllEligible(t *testing.T) {
	dir, inputs := fixture(t)
	e := newExtractor(t, dir, inputs)

	res, err := e.Extract(context.Background(), 100, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Normal != 11 || res.Attack != 250 {
		t.Errorf("counts = %d/%d, want 11/250", res.Normal, res.Attack)
	}
	rows := readCSV(t, res.Output)
	if len(rows) != 1+11+250 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][3] != "category" {
		t.Errorf("header = %v", rows[0])
	}
	for _, r := range rows[1:] {
		if r[4] == "HTTP" || r[3] == "DoS" {
			t.Errorf("ineligible row kept: %v", r)
		}
	}
	if filepath.Base(res.Output) != "botiot-100.00.csv" {
		t.Errorf("Output = %s", res.Output)
	}
	info, err := os.ReadFile(res.Info)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(info), "Final number of instances (normal + attack) = 261") {
		t.Errorf("info:\n%s", info)
	}
}

func TestExtract_SamplesDDoS(t *testing.T) {
	dir, inputs := fixture(t)
	e := newExtractor(t, dir, inputs)

	res, err := e.Extract(context.Background(), 20, rand.New(rand.NewPCG(4, 4)))
	if err != nil {
		t.Fatal(err)
	}
	if res.Normal != 11 {
		t.Errorf("Normal = %d, want every normal row", res.Normal)
	}
	// 250 eligible rows at 20%: expect about 50.
	if res.Attack < 25 || res.Attack > 80 {
		t.Errorf("Attack = %d, want roughly 50", res.Attack)
	}
	if res.Rows != 10+200+150+1 {
		t.Errorf("scanned = %d", res.Rows)
	}
}

func TestExtractAll_ParallelAndDeterministic(t *testing.T) {
	dir, inputs := fixture(t)
	e := newExtractor(t, dir, inputs)
	pcts := []float64{5, 10, 50}

	first, err := e.ExtractAll(context.Background(), pcts)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	second, err := e.ExtractAll(context.Background(), pcts)
	if err != nil {
		t.Fatal(err)
	}
	for i := range pcts {
		if first[i].Percentage != pcts[i] {
			t.Errorf("result %d is for %v", i, first[i].Percentage)
		}
		if first[i].Digest != second[i].Digest {
			t.Errorf("subset %v not reproducible", pcts[i])
		}
		if _, err := os.Stat(first[i].Output); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}
	if first[0].Attack > first[2].Attack {
		t.Errorf("5%% kept %d, 50%% kept %d", first[0].Attack, first[2].Attack)
	}
}

func TestExtract_InvalidPercentage(t *testing.T) {
	dir, inputs := fixture(t)
	e := newExtractor(t, dir, inputs)
	for _, pct := range []float64{0, -1, 101} {
		if _, err := e.Extract(context.Background(), pct, rand.New(rand.NewPCG(1, 1))); err == nil {
			t.Errorf("Extract(%v) succeeded", pct)
		}
	}
}

func TestExtract_ShortRowLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	bad := writeRaw(t, dir, "raw.csv", []string{rawRow("n", "Normal", "Normal"), "only,three,cols"})
	e := newExtractor(t, dir, []string{bad})

	res, err := e.Extract(context.Background(), 50, rand.New(rand.NewPCG(1, 1)))
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("err = %v, want row 2 failure", err)
	}
	if _, err := os.Stat(res.Output); !os.IsNotExist(err) {
		t.Error("partial subset left behind")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Options{}, zerolog.Nop()); err == nil {
		t.Error("expected error without inputs")
	}
	if _, err := New(Options{Inputs: []string{"x"}, CategoryColumn: -1}, zerolog.Nop()); err == nil {
		t.Error("expected error for negative column")
	}
}

func TestFormatPercentage(t *testing.T) {
	tests := []struct {
		pct      float64
		decimals int
		want     string
	}{
		{0.5, 4, "0.5000"},
		{10, 0, "10"},
		{2.75, 1, "2.8"},
	}
	for _, tt := range tests {
		if got := FormatPercentage(tt.pct, tt.decimals); got != tt.want {
			t.Errorf("FormatPercentage(%v, %d) = %q, want %q", tt.pct, tt.decimals, got, tt.want)
		}
	}
}
