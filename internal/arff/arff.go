// Package arff reads and writes the attribute-relation files consumed by the
// streaming-classifier evaluator: a header declaring one numeric attribute
// per feature and the two-valued label, then one comma-separated instance
// per line with the label last.
package arff

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/1sec-project/flowprep/internal/instance"
)

// DefaultLabelAttribute names the class attribute.
const DefaultLabelAttribute = "attack"

// Header describes the relation and its feature attributes. The label
// attribute is always declared last.
type Header struct {
	Relation   string
	Attributes []string
	Label      string
}

func (h Header) label() string {
	if h.Label == "" {
		return DefaultLabelAttribute
	}
	return h.Label
}

// WriteTo renders the header block including the @data marker.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "@relation %s\n", h.Relation)
	for _, a := range h.Attributes {
		fmt.Fprintf(&b, "@attribute '%s' numeric\n", a)
	}
	fmt.Fprintf(&b, "@attribute '%s' {%s, %s}\n", h.label(), instance.Normal, instance.Attack)
	b.WriteString("@data\n")
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Writer streams instances after a header.
type Writer struct {
	w     *bufio.Writer
	width int
	buf   []byte
	count int64
}

// NewWriter writes the header and returns a Writer for the data section.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	bw := bufio.NewWriterSize(w, 1<<16)
	if _, err := h.WriteTo(bw); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &Writer{w: bw, width: len(h.Attributes)}, nil
}

// Write appends one instance line.
func (w *Writer) Write(in instance.Instance) error {
	if len(in.Values) != w.width {
		return fmt.Errorf("instance has %d values, header declares %d", len(in.Values), w.width)
	}
	w.buf = w.buf[:0]
	for _, v := range in.Values {
		w.buf = strconv.AppendFloat(w.buf, v, 'g', -1, 64)
		w.buf = append(w.buf, ',')
	}
	w.buf = append(w.buf, in.Label.String()...)
	w.buf = append(w.buf, '\n')
	if _, err := w.w.Write(w.buf); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count is the number of instances written.
func (w *Writer) Count() int64 { return w.count }

// Flush writes any buffered data.
func (w *Writer) Flush() error { return w.w.Flush() }

// ReadAll loads a whole instance file. Header lines start with '@'; blank
// lines and '%' comments are ignored. Instances get their line order as
// Index.
func ReadAll(r io.Reader) (Header, []instance.Instance, error) {
	var (
		h      Header
		out    []instance.Instance
		inData bool
		line   int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		if !inData {
			if err := h.parseLine(text); err != nil {
				return h, nil, fmt.Errorf("line %d: %w", line, err)
			}
			inData = strings.EqualFold(text, "@data")
			continue
		}

		fields := strings.Split(text, ",")
		if len(fields) != len(h.Attributes)+1 {
			return h, nil, fmt.Errorf("line %d: %d fields, header declares %d", line, len(fields), len(h.Attributes)+1)
		}
		label, err := instance.ParseLabel(fields[len(fields)-1])
		if err != nil {
			return h, nil, fmt.Errorf("line %d: %w", line, err)
		}
		values := make([]float64, len(fields)-1)
		for i, f := range fields[:len(fields)-1] {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return h, nil, fmt.Errorf("line %d, attribute %s: %w", line, h.Attributes[i], err)
			}
			values[i] = v
		}
		out = append(out, instance.Instance{Values: values, Label: label, Index: len(out)})
	}
	if err := sc.Err(); err != nil {
		return h, nil, err
	}
	if !inData {
		return h, nil, fmt.Errorf("missing @data section")
	}
	return h, out, nil
}

func (h *Header) parseLine(text string) error {
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "@relation"):
		h.Relation = strings.TrimSpace(text[len("@relation"):])
	case strings.HasPrefix(lower, "@attribute"):
		rest := strings.TrimSpace(text[len("@attribute"):])
		name, kind := splitAttribute(rest)
		if strings.HasPrefix(kind, "{") {
			if h.Label != "" {
				return fmt.Errorf("more than one nominal attribute")
			}
			h.Label = name
			return nil
		}
		if h.Label != "" {
			return fmt.Errorf("attribute %s declared after the label", name)
		}
		h.Attributes = append(h.Attributes, name)
	case lower == "@data":
		if h.Label == "" {
			return fmt.Errorf("no label attribute declared")
		}
	default:
		return fmt.Errorf("unexpected header line %q", text)
	}
	return nil
}

func splitAttribute(s string) (name, kind string) {
	if strings.HasPrefix(s, "'") {
		if end := strings.Index(s[1:], "'"); end >= 0 {
			return s[1 : end+1], strings.TrimSpace(s[end+2:])
		}
	}
	name, kind, _ = strings.Cut(s, " ")
	return name, strings.TrimSpace(kind)
}
