// Package pipeline runs the per-file preparation stages and fans files out
// over a bounded worker pool.
package pipeline

import (
	"encoding/binary"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/1sec-project/flowprep/internal/core"
	"github.com/1sec-project/flowprep/internal/normalize"
	"github.com/1sec-project/flowprep/internal/source"
)

// Job names one input and where its outputs go.
type Job struct {
	Input  string
	Output string
	Info   string
}

// Result describes a finished job. Err is set when the job failed.
type Result struct {
	RunID     string
	Job       Job
	Stats     normalize.Stats
	Normal    int
	Attack    int
	Synthetic int
	Strategy  string
	Digest    string
	Started   time.Time
	Finished  time.Time
	Err       error
}

// Event converts the result into the bus/metrics record.
func (r Result) Event(command string) *core.JobEvent {
	e := &core.JobEvent{
		RunID:      r.RunID,
		Command:    command,
		Input:      r.Job.Input,
		Status:     core.JobSucceeded,
		Rows:       int(r.Stats.Rows),
		Skipped:    int(r.Stats.Skipped),
		Unknown:    int(r.Stats.Unknown),
		Normal:     r.Normal,
		Attack:     r.Attack,
		Synthetic:  r.Synthetic,
		Strategy:   r.Strategy,
		Digest:     r.Digest,
		StartedAt:  r.Started,
		FinishedAt: r.Finished,
	}
	if r.Err != nil {
		e.Status = core.JobFailed
		e.Error = r.Err.Error()
	} else {
		e.Output = r.Job.Output
	}
	return e
}

// Layout derives output paths for inputs.
type Layout struct {
	OutputDir string // empty writes next to the input
	Suffix    string // appended to the base name, e.g. "-balanced"
	Compress  bool
}

// JobFor returns the job writing <base><suffix>.arff and info-<base><suffix>.txt.
func (l Layout) JobFor(input string) Job {
	dir := l.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := trimExt(filepath.Base(input)) + l.Suffix
	out := filepath.Join(dir, base+".arff")
	if l.Compress {
		out += ".gz"
	}
	return Job{
		Input:  input,
		Output: out,
		Info:   filepath.Join(dir, "info-"+base+".txt"),
	}
}

// Jobs maps JobFor over inputs.
func (l Layout) Jobs(inputs []string) []Job {
	jobs := make([]Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = l.JobFor(in)
	}
	return jobs
}

// trimExt strips a compression extension and then the data extension:
// "a.csv.gz" becomes "a".
func trimExt(name string) string {
	if source.Compression(name) != "" {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Discover returns every regular file under root whose name, with any
// compression extension removed, matches pattern. Results are sorted.
func Discover(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.csv"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var found []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		name := d.Name()
		if source.Compression(name) != "" {
			name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		if ok, _ := filepath.Match(pattern, name); ok {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}

// RandFor returns the generator for one input. The stream depends only on
// the seed and the input's base name, so results do not change with worker
// scheduling or directory location.
func RandFor(seed uint64, input string) *rand.Rand {
	sum := blake3.Sum256([]byte(filepath.Base(input)))
	return rand.New(rand.NewPCG(seed, binary.LittleEndian.Uint64(sum[:8])))
}
