// Package balance corrects class imbalance between normal and attack
// instances, either by random over/undersampling or by SMOTE.
package balance

import "github.com/1sec-project/flowprep/internal/instance"

// Partition groups a file's instances by label. Members are referenced by
// position in the backing slice, so undersampling excludes a position
// rather than searching for equal values. Oversampled and synthetic
// instances are appended after the originals.
type Partition struct {
	items    []instance.Instance
	included []bool
	original int
	normal   []int
	attack   []int
}

// Split partitions instances into the normal and attack groups. The slice is
// used as the backing store and must not be modified by the caller after.
func Split(instances []instance.Instance) *Partition {
	p := &Partition{
		items:    instances,
		included: make([]bool, len(instances)),
		original: len(instances),
	}
	for i, in := range instances {
		p.included[i] = true
		if in.Label == instance.Attack {
			p.attack = append(p.attack, i)
		} else {
			p.normal = append(p.normal, i)
		}
	}
	return p
}

// Normal returns the positions of the normal instances.
func (p *Partition) Normal() []int { return p.normal }

// Attack returns the positions of the attack instances.
func (p *Partition) Attack() []int { return p.attack }

// MinorityLabel is the label with fewer instances. On an exact tie normal is
// treated as the majority.
func (p *Partition) MinorityLabel() instance.Label {
	if len(p.normal) < len(p.attack) {
		return instance.Normal
	}
	return instance.Attack
}

// Minority returns the positions of the minority group.
func (p *Partition) Minority() []int {
	if p.MinorityLabel() == instance.Normal {
		return p.normal
	}
	return p.attack
}

// Majority returns the positions of the majority group.
func (p *Partition) Majority() []int {
	if p.MinorityLabel() == instance.Normal {
		return p.attack
	}
	return p.normal
}

// Ratio is |minority| / |majority|. An empty partition reports 1.
func (p *Partition) Ratio() float64 {
	maj := len(p.Majority())
	if maj == 0 {
		return 1
	}
	return float64(len(p.Minority())) / float64(maj)
}

// At returns the instance at a backing position.
func (p *Partition) At(pos int) instance.Instance { return p.items[pos] }

// Exclude drops a position from the output without removing it.
func (p *Partition) Exclude(pos int) { p.included[pos] = false }

// Included reports whether a position will be written.
func (p *Partition) Included(pos int) bool { return p.included[pos] }

// Append adds an oversampled or synthetic instance at the end.
func (p *Partition) Append(in instance.Instance) {
	p.items = append(p.items, in)
	p.included = append(p.included, true)
}

// Appended is the number of instances added after splitting.
func (p *Partition) Appended() int { return len(p.items) - p.original }

// Instances returns the output stream: included originals in their source
// order followed by everything appended.
func (p *Partition) Instances() []instance.Instance {
	out := make([]instance.Instance, 0, len(p.items))
	for i, in := range p.items {
		if p.included[i] {
			out = append(out, in)
		}
	}
	return out
}

// Counts returns the number of normal and attack instances that will be
// written.
func (p *Partition) Counts() (normal, attack int) {
	for i, in := range p.items {
		if !p.included[i] {
			continue
		}
		if in.Label == instance.Attack {
			attack++
		} else {
			normal++
		}
	}
	return normal, attack
}
