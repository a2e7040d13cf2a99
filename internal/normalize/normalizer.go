// Package normalize implements two-pass streaming min-max scaling: the first
// pass collects per-feature bounds, the second rescales and emits instances.
// Only the bounds are held in memory.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/1sec-project/flowprep/internal/instance"
	"github.com/1sec-project/flowprep/internal/source"
	"github.com/1sec-project/flowprep/internal/transform"
)

// ErrEmptyDataset is returned when no row survives null filtering.
var ErrEmptyDataset = errors.New("no valid rows to normalize")

// RowError ties a transformation failure to its 1-based data row.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

// NullPolicy decides what happens to rows with empty cells.
type NullPolicy int

const (
	// NullSkip drops the row from statistics and output.
	NullSkip NullPolicy = iota
	// NullImpute keeps the row; empty cells take the -1 sentinel.
	NullImpute
)

func (p NullPolicy) String() string {
	if p == NullImpute {
		return "impute"
	}
	return "skip"
}

// ParseNullPolicy reads "skip" or "impute".
func ParseNullPolicy(s string) (NullPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return NullSkip, nil
	case "impute":
		return NullImpute, nil
	default:
		return NullSkip, fmt.Errorf("unknown null policy %q", s)
	}
}

// Source can be streamed more than once.
type Source interface {
	Name() string
	Open() (source.Rows, error)
}

// Stats counts what a pass saw. Unknown is the number of categorical cells
// that matched none of their column's categories.
type Stats struct {
	Rows    int64 `json:"rows"`
	Skipped int64 `json:"skipped"`
	Normal  int64 `json:"normal"`
	Attack  int64 `json:"attack"`
	Unknown int64 `json:"unknown"`
}

// Normalizer drives the two passes over a source.
type Normalizer struct {
	tr     *transform.Transformer
	nulls  NullPolicy
	logger zerolog.Logger
}

// New creates a Normalizer.
func New(tr *transform.Transformer, nulls NullPolicy, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		tr:     tr,
		nulls:  nulls,
		logger: logger.With().Str("component", "normalizer").Logger(),
	}
}

// Fit runs pass one and returns the finalized bounds. Apply must not start
// before Fit has returned.
func (n *Normalizer) Fit(ctx context.Context, src Source) (*Bounds, Stats, error) {
	b := NewBounds(n.tr.Schema().OutputWidth())
	stats, err := n.stream(ctx, src, func(in instance.Instance) error {
		return b.Observe(in.Values)
	})
	if err != nil {
		return nil, stats, err
	}
	if b.Observed() == 0 {
		return nil, stats, fmt.Errorf("%s: %w", src.Name(), ErrEmptyDataset)
	}
	n.logger.Debug().
		Str("file", src.Name()).
		Int64("rows", stats.Rows).
		Int64("skipped", stats.Skipped).
		Int64("unknown", stats.Unknown).
		Msg("bounds collected")
	return b, stats, nil
}

// Apply runs pass two: every valid row is transformed, scaled with b and
// handed to emit in source order.
func (n *Normalizer) Apply(ctx context.Context, src Source, b *Bounds, emit func(instance.Instance) error) (Stats, error) {
	if b == nil || b.Observed() == 0 {
		return Stats{}, fmt.Errorf("%s: %w", src.Name(), ErrEmptyDataset)
	}
	return n.stream(ctx, src, func(in instance.Instance) error {
		b.Scale(in.Values)
		return emit(in)
	})
}

func (n *Normalizer) stream(ctx context.Context, src Source, fn func(instance.Instance) error) (Stats, error) {
	var stats Stats
	rows, err := src.Open()
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	s := n.tr.Schema()
	for row := 1; ; row++ {
		if row%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}
		rec, err := rows.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		if n.nulls == NullSkip && s.HasNull(rec) {
			stats.Skipped++
			continue
		}
		in, unknown, err := n.tr.TransformCount(rec)
		if err != nil {
			return stats, &RowError{Row: row, Err: err}
		}
		stats.Unknown += int64(unknown)
		in.Index = int(stats.Rows)
		stats.Rows++
		if in.Label == instance.Attack {
			stats.Attack++
		} else {
			stats.Normal++
		}
		if err := fn(in); err != nil {
			return stats, err
		}
	}
}
