// Package instance holds the transformed feature vector shared by every
// stage of the pipeline.
package instance

import (
	"fmt"
	"strings"
)

// Label is the class of a flow record.
type Label uint8

const (
	Normal Label = iota
	Attack
)

func (l Label) String() string {
	if l == Attack {
		return "attack"
	}
	return "normal"
}

// ParseLabel converts the textual label used in instance files.
func ParseLabel(s string) (Label, error) {
	switch strings.TrimSpace(s) {
	case "normal":
		return Normal, nil
	case "attack":
		return Attack, nil
	default:
		return Normal, fmt.Errorf("unknown label %q", s)
	}
}

// Instance is one schema-conformant numeric vector plus its label. Index is
// the position of the record in its source stream and survives splitting
// and balancing so members can be excluded by position rather than value.
// Synthetic instances carry Index -1.
type Instance struct {
	Values []float64
	Label  Label
	Index  int
}

// Clone returns a deep copy of the instance.
func (in Instance) Clone() Instance {
	v := make([]float64, len(in.Values))
	copy(v, in.Values)
	return Instance{Values: v, Label: in.Label, Index: in.Index}
}
