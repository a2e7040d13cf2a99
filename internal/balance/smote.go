package balance

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/1sec-project/flowprep/internal/instance"
)

// DefaultNeighbors is the k used for the minority neighbour search.
const DefaultNeighbors = 5

// SMOTE synthesizes minority instances by interpolating between each
// minority instance and one of its k nearest minority neighbours.
type SMOTE struct {
	Rand      *rand.Rand
	K         int
	Threshold float64
}

func (s *SMOTE) Name() string { return "smote" }

func (s *SMOTE) k() int {
	if s.K <= 0 {
		return DefaultNeighbors
	}
	return s.K
}

// Rebalance oversamples the minority by 100/ratio percent. Synthetic
// instances are appended after the originals and carry Index -1.
func (s *SMOTE) Rebalance(p *Partition) (int, error) {
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	ratio := p.Ratio()
	if ratio >= threshold {
		return 0, nil
	}
	minority := p.Minority()
	k := s.k()
	if len(minority) < k+1 {
		return 0, &InsufficientMinorityDataError{Have: len(minority), Need: k + 1}
	}

	points := make([][]float64, len(minority))
	for i, pos := range minority {
		points[i] = p.At(pos).Values
	}
	synthetic, err := Synthesize(points, AmountPerInstance(100/ratio), k, s.Rand)
	if err != nil {
		return 0, err
	}

	label := p.MinorityLabel()
	for _, values := range synthetic {
		p.Append(instance.Instance{Values: values, Label: label, Index: -1})
	}
	return len(synthetic), nil
}

// AmountPerInstance converts an oversampling percentage into a number of
// synthetic samples per minority instance, rounding half up. It never
// returns less than one.
func AmountPerInstance(percentage float64) int {
	n := math.Floor(percentage / 100)
	if math.Mod(percentage, 100) >= 50 {
		n++
	}
	if n < 1 {
		return 1
	}
	return int(n)
}

// Neighbors returns, for every point, the indexes of its k nearest other
// points ordered by increasing Euclidean distance.
func Neighbors(points [][]float64, k int) ([][]int, error) {
	if len(points) < k+1 {
		return nil, &InsufficientMinorityDataError{Have: len(points), Need: k + 1}
	}
	tree := newKDTree(points)
	out := make([][]int, len(points))
	for i := range points {
		out[i] = tree.nearest(i, k)
	}
	return out, nil
}

// Synthesize generates amount synthetic points per input point. Each one is
// x + gap*(y-x) for a neighbour y drawn uniformly from x's k nearest and a
// gap drawn uniformly from [0,1). Neighbours are computed once, from the
// input points only. Output is grouped by source point, in input order.
func Synthesize(points [][]float64, amount, k int, rng *rand.Rand) ([][]float64, error) {
	neighbors, err := Neighbors(points, k)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, 0, len(points)*amount)
	for i, x := range points {
		diff := make([]float64, len(x))
		for n := 0; n < amount; n++ {
			y := points[neighbors[i][rng.IntN(len(neighbors[i]))]]
			gap := rng.Float64()

			floats.SubTo(diff, y, x)
			synth := make([]float64, len(x))
			copy(synth, x)
			floats.AddScaled(synth, gap, diff)
			out = append(out, synth)
		}
	}
	return out, nil
}
