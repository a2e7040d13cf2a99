// Package schema describes the column layout of raw flow records and how each
// column maps onto the numeric instance vector handed to the classifiers.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the semantic type of an input column.
type Kind int

const (
	KindRemoved Kind = iota
	KindInteger
	KindReal
	KindCategorical
	KindVerbatim
	KindAddress
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindRemoved:
		return "removed"
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindCategorical:
		return "categorical"
	case KindVerbatim:
		return "verbatim"
	case KindAddress:
		return "address"
	case KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// ParseKind converts the textual form used in schema files to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "removed", "remove", "drop":
		return KindRemoved, nil
	case "integer", "int":
		return KindInteger, nil
	case "real", "float", "number":
		return KindReal, nil
	case "categorical", "dummies", "onehot":
		return KindCategorical, nil
	case "verbatim":
		return KindVerbatim, nil
	case "address", "ip":
		return KindAddress, nil
	case "label":
		return KindLabel, nil
	default:
		return KindRemoved, fmt.Errorf("unknown column kind %q", s)
	}
}

// AddressSlots is the number of numeric features an address column expands to:
// four IPv4 octets followed by eight IPv6 hextets.
const AddressSlots = 12

// Category is one known value of a categorical column. Value is matched
// exactly against the raw cell; Attribute names the one-hot output feature.
type Category struct {
	Value     string `yaml:"value"`
	Attribute string `yaml:"attribute"`
}

// Column describes a single raw input column. CheckNull overrides whether an
// empty cell in the column marks the row as null; unset, every column except
// a removed one is checked.
type Column struct {
	Index      int        `yaml:"index"`
	Name       string     `yaml:"name"`
	Kind       Kind       `yaml:"kind"`
	Categories []Category `yaml:"categories,omitempty"`
	CheckNull  *bool      `yaml:"check_null,omitempty"`
}

// ChecksNull reports whether an empty cell in the column makes the row null.
func (c Column) ChecksNull() bool {
	if c.CheckNull != nil {
		return *c.CheckNull
	}
	return c.Kind != KindRemoved
}

// Width returns how many instance values the column contributes.
func (c Column) Width() int {
	switch c.Kind {
	case KindInteger, KindReal, KindVerbatim:
		return 1
	case KindCategorical:
		return len(c.Categories)
	case KindAddress:
		return AddressSlots
	default:
		return 0
	}
}

// Schema is an immutable, validated column layout. It is safe to share
// between goroutines; nothing mutates it after New returns.
type Schema struct {
	relation   string
	columns    []Column
	labelIdx   int
	outWidth   int
	attributes []string
}

// New validates the columns and builds a Schema. Columns must cover the
// indexes 0..n-1 exactly once and contain exactly one label column.
func New(relation string, columns []Column) (*Schema, error) {
	if relation == "" {
		return nil, fmt.Errorf("schema: relation name is required")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema %s: no columns", relation)
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Index < cols[j].Index })

	s := &Schema{relation: relation, columns: cols, labelIdx: -1}
	for i, c := range cols {
		if c.Index != i {
			return nil, fmt.Errorf("schema %s: column indexes must be dense, expected %d got %d", relation, i, c.Index)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("schema %s: column %d has no name", relation, i)
		}
		switch c.Kind {
		case KindLabel:
			if s.labelIdx >= 0 {
				return nil, fmt.Errorf("schema %s: more than one label column (%d and %d)", relation, s.labelIdx, i)
			}
			s.labelIdx = i
		case KindCategorical:
			if len(c.Categories) == 0 {
				return nil, fmt.Errorf("schema %s: categorical column %q has no categories", relation, c.Name)
			}
			seen := make(map[string]bool, len(c.Categories))
			for _, cat := range c.Categories {
				if seen[cat.Value] {
					return nil, fmt.Errorf("schema %s: column %q repeats category %q", relation, c.Name, cat.Value)
				}
				seen[cat.Value] = true
			}
		}
		s.outWidth += c.Width()
		s.attributes = append(s.attributes, columnAttributes(c)...)
	}
	if s.labelIdx < 0 {
		return nil, fmt.Errorf("schema %s: no label column", relation)
	}
	if s.outWidth == 0 {
		return nil, fmt.Errorf("schema %s: no output features", relation)
	}
	return s, nil
}

func columnAttributes(c Column) []string {
	switch c.Kind {
	case KindInteger, KindReal, KindVerbatim:
		return []string{c.Name}
	case KindCategorical:
		out := make([]string, len(c.Categories))
		for i, cat := range c.Categories {
			out[i] = cat.Attribute
			if out[i] == "" {
				out[i] = cat.Value
			}
		}
		return out
	case KindAddress:
		out := make([]string, 0, AddressSlots)
		for i := 1; i <= 4; i++ {
			out = append(out, fmt.Sprintf("%s_ipv4_pos%d", c.Name, i))
		}
		for i := 1; i <= 8; i++ {
			out = append(out, fmt.Sprintf("%s_ipv6_pos%d", c.Name, i))
		}
		return out
	default:
		return nil
	}
}

// Relation is the dataset name written to the output header.
func (s *Schema) Relation() string { return s.relation }

// Width is the number of columns a raw row must have.
func (s *Schema) Width() int { return len(s.columns) }

// OutputWidth is the number of numeric values in every instance body.
func (s *Schema) OutputWidth() int { return s.outWidth }

// LabelIndex is the raw column holding the class label.
func (s *Schema) LabelIndex() int { return s.labelIdx }

// Column returns the column at raw index i.
func (s *Schema) Column(i int) Column { return s.columns[i] }

// Columns returns a copy of the column list in index order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Attributes returns the output feature names, positionally matching the
// instance body. The label attribute is not included.
func (s *Schema) Attributes() []string {
	out := make([]string, len(s.attributes))
	copy(out, s.attributes)
	return out
}

// LabelName is the name of the label column.
func (s *Schema) LabelName() string { return s.columns[s.labelIdx].Name }

// HasNull reports whether the row has an empty cell in any column that
// checks nulls (see Column.ChecksNull). Such rows are excluded from
// normalization entirely.
func (s *Schema) HasNull(row []string) bool {
	for i, v := range row {
		if v != "" {
			continue
		}
		if i >= len(s.columns) || s.columns[i].ChecksNull() {
			return true
		}
	}
	return false
}
