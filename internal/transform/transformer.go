// Package transform turns raw flow records into numeric instances according
// to a schema.
package transform

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/1sec-project/flowprep/internal/instance"
	"github.com/1sec-project/flowprep/internal/schema"
)

// DefaultAddressCacheSize bounds the memo of decomposed addresses. Flow
// captures repeat the same handful of hosts millions of times.
const DefaultAddressCacheSize = 4096

// Options tune a Transformer.
type Options struct {
	// StrictCategories turns a categorical value outside the known set into
	// a *MalformedValueError instead of an all-zero one-hot vector.
	StrictCategories bool
	// AddressCacheSize is the LRU capacity; zero uses the default and a
	// negative value disables the memo.
	AddressCacheSize int
}

// Transformer applies a Schema to raw rows. Its output depends only on the
// row and the schema, so one Transformer serves every job of a run; the
// address memo is safe for concurrent use.
type Transformer struct {
	schema *schema.Schema
	strict bool
	addrs  *lru.Cache[string, [schema.AddressSlots]float64]
}

// New builds a Transformer for the schema.
func New(s *schema.Schema, opts Options) *Transformer {
	t := &Transformer{schema: s, strict: opts.StrictCategories}
	size := opts.AddressCacheSize
	if size == 0 {
		size = DefaultAddressCacheSize
	}
	if size > 0 {
		t.addrs, _ = lru.New[string, [schema.AddressSlots]float64](size)
	}
	return t
}

// Schema returns the schema the transformer applies.
func (t *Transformer) Schema() *schema.Schema { return t.schema }

// Transform converts one raw row into an instance. The label is kept apart
// from the body regardless of its column position.
func (t *Transformer) Transform(row []string) (instance.Instance, error) {
	in, _, err := t.TransformCount(row)
	return in, err
}

// TransformCount is Transform that also reports how many categorical cells
// of the row matched none of their column's categories.
func (t *Transformer) TransformCount(row []string) (instance.Instance, int, error) {
	if len(row) != t.schema.Width() {
		return instance.Instance{}, 0, &MalformedValueError{
			Column: -1,
			Name:   "row",
			Err:    fmt.Errorf("expected %d columns, got %d", t.schema.Width(), len(row)),
		}
	}

	values := make([]float64, 0, t.schema.OutputWidth())
	label := instance.Normal
	unknown := 0

	for i, cell := range row {
		col := t.schema.Column(i)
		switch col.Kind {
		case schema.KindRemoved:
			continue
		case schema.KindLabel:
			if strings.TrimSpace(cell) == "1" {
				label = instance.Attack
			}
		case schema.KindInteger:
			v, err := parseInteger(cell)
			if err != nil {
				return instance.Instance{}, 0, &MalformedValueError{Column: i, Name: col.Name, Value: cell, Err: err}
			}
			values = append(values, v)
		case schema.KindReal, schema.KindVerbatim:
			v, err := parseReal(cell)
			if err != nil {
				return instance.Instance{}, 0, &MalformedValueError{Column: i, Name: col.Name, Value: cell, Err: err}
			}
			values = append(values, v)
		case schema.KindCategorical:
			hot := -1
			for j, cat := range col.Categories {
				if cell == cat.Value {
					hot = j
					break
				}
			}
			if hot < 0 {
				if t.strict {
					return instance.Instance{}, 0, &MalformedValueError{Column: i, Name: col.Name, Value: cell, Err: fmt.Errorf("unknown category")}
				}
				unknown++
			}
			for j := range col.Categories {
				if j == hot {
					values = append(values, 1)
				} else {
					values = append(values, 0)
				}
			}
		case schema.KindAddress:
			slots, err := t.decompose(cell)
			if err != nil {
				return instance.Instance{}, 0, &MalformedValueError{Column: i, Name: col.Name, Value: cell, Err: err}
			}
			values = append(values, slots[:]...)
		}
	}

	return instance.Instance{Values: values, Label: label}, unknown, nil
}

func (t *Transformer) decompose(addr string) ([schema.AddressSlots]float64, error) {
	if t.addrs != nil {
		if slots, ok := t.addrs.Get(addr); ok {
			return slots, nil
		}
	}
	slots, err := Decompose(addr)
	if err != nil {
		return slots, err
	}
	if t.addrs != nil {
		t.addrs.Add(addr, slots)
	}
	return slots, nil
}

// parseInteger reads a decimal integer, or a hexadecimal one when the cell
// carries an "x" or "X" marker (BoT-IoT writes some ports as 0x0303). Digits
// after the marker are case-insensitive. Surrounding whitespace is ignored.
func parseInteger(s string) (float64, error) {
	if s == "" {
		return sentinel, nil
	}
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "xX"); i >= 0 {
		n, err := strconv.ParseInt(s[i+1:], 16, 64)
		if err != nil {
			return 0, err
		}
		if strings.HasPrefix(s, "-") {
			n = -n
		}
		return float64(n), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

func parseReal(s string) (float64, error) {
	if s == "" {
		return sentinel, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
