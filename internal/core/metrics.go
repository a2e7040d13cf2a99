package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects per-run counters. Each Metrics owns its registry so
// tests and concurrent runs never collide on the default one.
type Metrics struct {
	Registry *prometheus.Registry

	JobsTotal        *prometheus.CounterVec
	RowsProcessed    prometheus.Counter
	RowsSkipped      prometheus.Counter
	InstancesWritten *prometheus.CounterVec
	SyntheticCreated prometheus.Counter
	UnknownCategory  prometheus.Counter
	JobDuration      prometheus.Histogram
}

// NewMetrics registers the flowprep collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		JobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowprep_jobs_total",
			Help: "Finished jobs by status",
		}, []string{"status"}),
		RowsProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "flowprep_rows_processed_total",
			Help: "Input rows transformed and written",
		}),
		RowsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "flowprep_rows_skipped_total",
			Help: "Input rows dropped by the null policy",
		}),
		InstancesWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowprep_instances_written_total",
			Help: "Instances written to ARFF output by label",
		}, []string{"label"}),
		SyntheticCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "flowprep_synthetic_instances_total",
			Help: "Instances added by rebalancing",
		}),
		UnknownCategory: f.NewCounter(prometheus.CounterOpts{
			Name: "flowprep_unknown_category_total",
			Help: "Categorical cells outside the schema's category list",
		}),
		JobDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowprep_job_duration_seconds",
			Help:    "Wall time per job",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}
}

// ObserveJob records one finished job.
func (m *Metrics) ObserveJob(e *JobEvent) {
	if m == nil || e == nil {
		return
	}
	m.JobsTotal.WithLabelValues(string(e.Status)).Inc()
	m.RowsProcessed.Add(float64(e.Rows))
	m.RowsSkipped.Add(float64(e.Skipped))
	m.InstancesWritten.WithLabelValues("normal").Add(float64(e.Normal))
	m.InstancesWritten.WithLabelValues("attack").Add(float64(e.Attack))
	m.SyntheticCreated.Add(float64(e.Synthetic))
	m.UnknownCategory.Add(float64(e.Unknown))
	if !e.StartedAt.IsZero() && !e.FinishedAt.IsZero() {
		m.JobDuration.Observe(e.FinishedAt.Sub(e.StartedAt).Seconds())
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
