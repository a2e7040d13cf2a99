package balance

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/1sec-project/flowprep/internal/instance"
)

// DefaultThreshold is the minority/majority ratio at or above which a file
// is considered balanced and left untouched.
const DefaultThreshold = 0.5

// Strategy rebalances a partition in place and reports how many instances
// it appended.
type Strategy interface {
	Name() string
	Rebalance(p *Partition) (int, error)
}

// InsufficientMinorityDataError is returned when the minority group is too
// small for the requested strategy.
type InsufficientMinorityDataError struct {
	Have int
	Need int
}

func (e *InsufficientMinorityDataError) Error() string {
	return fmt.Sprintf("minority class has %d instances, need at least %d", e.Have, e.Need)
}

// Options configure strategies built by NewStrategy.
type Options struct {
	Threshold float64
	Neighbors int
}

// NewStrategy returns the strategy registered under name: "random", "smote"
// or "none".
func NewStrategy(name string, rng *rand.Rand, opts Options) (Strategy, error) {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "random":
		return &RandomResampler{Rand: rng, Threshold: opts.Threshold}, nil
	case "smote":
		return &SMOTE{Rand: rng, K: opts.Neighbors, Threshold: opts.Threshold}, nil
	case "", "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown balancing strategy %q", name)
	}
}

// None leaves every partition as it is.
type None struct{}

func (None) Name() string                      { return "none" }
func (None) Rebalance(*Partition) (int, error) { return 0, nil }

// Shuffle permutes instances in place.
func Shuffle(instances []instance.Instance, rng *rand.Rand) {
	rng.Shuffle(len(instances), func(i, j int) {
		instances[i], instances[j] = instances[j], instances[i]
	})
}
