package balance

import "math/rand/v2"

// The majority shrinks to 70% of its size and the minority grows to half of
// the majority's new size, i.e. 35% of the majority's original size.
const (
	oversamplePercent  = 35
	undersamplePercent = 30
)

// RandomResampler duplicates random minority instances (with replacement)
// and excludes random distinct majority instances.
type RandomResampler struct {
	Rand      *rand.Rand
	Threshold float64
}

func (r *RandomResampler) Name() string { return "random" }

// Rebalance appends floor(35% of majority) minority duplicates and excludes
// floor(30% of majority) majority instances. Duplicates are drawn with
// replacement, so the final ratio is approximate.
func (r *RandomResampler) Rebalance(p *Partition) (int, error) {
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if p.Ratio() >= threshold {
		return 0, nil
	}
	minority := p.Minority()
	majority := p.Majority()
	if len(minority) == 0 {
		return 0, &InsufficientMinorityDataError{Have: 0, Need: 1}
	}

	over := len(majority) * oversamplePercent / 100
	for i := 0; i < over; i++ {
		pos := minority[r.Rand.IntN(len(minority))]
		p.Append(p.At(pos).Clone())
	}

	under := len(majority) * undersamplePercent / 100
	excluded := make(map[int]struct{}, under)
	for len(excluded) < under {
		k := r.Rand.IntN(len(majority))
		if _, dup := excluded[k]; dup {
			continue
		}
		excluded[k] = struct{}{}
		p.Exclude(majority[k])
	}

	return over, nil
}
