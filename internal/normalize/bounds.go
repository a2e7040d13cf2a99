package normalize

import "fmt"

// Bounds accumulates the per-feature minimum and maximum over one pass of
// instances. It is owned by the caller, one per file, so several files can
// be normalized concurrently without sharing state.
type Bounds struct {
	Min      []float64
	Max      []float64
	observed int64
}

// NewBounds returns an empty accumulator for width features.
func NewBounds(width int) *Bounds {
	return &Bounds{Min: make([]float64, width), Max: make([]float64, width)}
}

// Width is the number of tracked features.
func (b *Bounds) Width() int { return len(b.Min) }

// Observed is the number of instances folded in so far.
func (b *Bounds) Observed() int64 { return b.observed }

// Observe widens the bounds with one instance body. The first instance
// initializes both ends.
func (b *Bounds) Observe(values []float64) error {
	if len(values) != len(b.Min) {
		return fmt.Errorf("bounds: instance has %d features, want %d", len(values), len(b.Min))
	}
	if b.observed == 0 {
		copy(b.Min, values)
		copy(b.Max, values)
	} else {
		for i, v := range values {
			if v < b.Min[i] {
				b.Min[i] = v
			}
			if v > b.Max[i] {
				b.Max[i] = v
			}
		}
	}
	b.observed++
	return nil
}

// Scale rescales values in place to [0,1]. A feature whose range is zero
// maps to 0.
func (b *Bounds) Scale(values []float64) {
	for i, v := range values {
		span := b.Max[i] - b.Min[i]
		if span == 0 {
			values[i] = 0
			continue
		}
		values[i] = (v - b.Min[i]) / span
	}
}

// Unscale maps scaled values back to the original range. Degenerate
// features come back as their constant value.
func (b *Bounds) Unscale(values []float64) {
	for i, v := range values {
		values[i] = b.Min[i] + v*(b.Max[i]-b.Min[i])
	}
}
