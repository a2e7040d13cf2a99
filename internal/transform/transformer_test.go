package transform

import (
	"errors"
	"reflect"
	"testing"

	"github.com/1sec-project/flowprep/internal/instance"
	"github.com/1sec-project/flowprep/internal/schema"
)

// botiotRow returns a complete 35-column BoT-IoT record.
func botiotRow() []string {
	return []string{
		"1", "1526344121.15", "e", "tcp", "192.168.100.147", "0x0303", "2001:db8::1", "80",
		"4", "240", "CON", "1526344122.0", "12", "0.5", "0.1", "0.0",
		"", "", "0.4", "0.0", "0.2", "", "", "", "",
		"2", "2", "120", "120", "1.5", "0.7", "0.7",
		"1", "DDoS", "TCP",
	}
}

func mustBoTIoT(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.BoTIoT()
	if err != nil {
		t.Fatalf("BoTIoT schema: %v", err)
	}
	return s
}

func TestTransform_BoTIoTLayout(t *testing.T) {
	tr := New(mustBoTIoT(t), Options{})
	in, err := tr.Transform(botiotRow())
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if len(in.Values) != 70 {
		t.Fatalf("len(Values) = %d, want 70", len(in.Values))
	}
	if in.Label != instance.Attack {
		t.Errorf("Label = %v, want attack", in.Label)
	}

	checks := map[int]float64{
		0:  1,
		1:  1526344121.15,
		3:  1,     // flgs "e"
		15: 1,     // proto "tcp"
		18: 192,   // saddr octet 1
		21: 147,   // saddr octet 4
		22: -1,    // saddr ipv6 slot 1
		30: 0x303, // sport hex
		31: -1,    // daddr ipv4 slot 1
		35: 0x2001,
		36: 0xdb8,
		42: 1,
		43: 80,
		47: 1, // state "CON"
		56: 12,
		69: 0.7,
	}
	for pos, want := range checks {
		if in.Values[pos] != want {
			t.Errorf("Values[%d] = %v, want %v", pos, in.Values[pos], want)
		}
	}
	// flgs one-hot must contain exactly one 1
	sum := 0.0
	for _, v := range in.Values[2:11] {
		sum += v
	}
	if sum != 1 {
		t.Errorf("flgs one-hot sum = %v, want 1", sum)
	}
}

func TestTransform_FixedWidthIndependentOfValues(t *testing.T) {
	s := mustBoTIoT(t)
	tr := New(s, Options{})
	rows := [][]string{botiotRow(), botiotRow(), botiotRow()}
	rows[1][4] = "fe80::1"
	rows[1][6] = "10.0.0.2"
	rows[2][3] = "sctp" // unknown protocol
	rows[2][13] = ""    // empty real
	for i, row := range rows {
		in, err := tr.Transform(row)
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		if len(in.Values) != s.OutputWidth() {
			t.Errorf("row %d: width %d, want %d", i, len(in.Values), s.OutputWidth())
		}
	}
}

func TestTransform_NullSentinels(t *testing.T) {
	tr := New(mustBoTIoT(t), Options{})
	row := botiotRow()
	row[0] = ""  // integer
	row[13] = "" // real (dur)
	in, err := tr.Transform(row)
	if err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if in.Values[0] != -1 {
		t.Errorf("empty integer = %v, want -1", in.Values[0])
	}
	if in.Values[57] != -1 {
		t.Errorf("empty real = %v, want -1", in.Values[57])
	}
}

func TestTransform_LabelMapping(t *testing.T) {
	tr := New(mustBoTIoT(t), Options{})
	for _, tt := range []struct {
		cell string
		want instance.Label
	}{
		{"1", instance.Attack},
		{"0", instance.Normal},
		{"2", instance.Normal},
		{"", instance.Normal},
	} {
		row := botiotRow()
		row[32] = tt.cell
		in, err := tr.Transform(row)
		if err != nil {
			t.Fatalf("label %q: %v", tt.cell, err)
		}
		if in.Label != tt.want {
			t.Errorf("label %q -> %v, want %v", tt.cell, in.Label, tt.want)
		}
	}
}

// An unrecognized category silently produces an all-zero vector. This keeps
// compatibility with existing datasets; StrictCategories turns it into an error.
func TestTransform_UnknownCategoryIsAllZero(t *testing.T) {
	tr := New(mustBoTIoT(t), Options{})
	row := botiotRow()
	row[3] = "sctp"
	row[10] = "XYZ"
	in, unknown, err := tr.TransformCount(row)
	if err != nil {
		t.Fatalf("TransformCount error: %v", err)
	}
	for i, v := range in.Values[11:18] {
		if v != 0 {
			t.Errorf("proto one-hot[%d] = %v, want 0", i, v)
		}
	}
	if unknown != 2 {
		t.Errorf("unknown = %d, want 2", unknown)
	}

	// The count is per row, not accumulated across calls.
	if _, unknown, _ := tr.TransformCount(botiotRow()); unknown != 0 {
		t.Errorf("unknown for a clean row = %d, want 0", unknown)
	}
}

func TestTransform_StrictCategories(t *testing.T) {
	tr := New(mustBoTIoT(t), Options{StrictCategories: true})
	row := botiotRow()
	row[10] = "XYZ"
	_, err := tr.Transform(row)
	var valErr *MalformedValueError
	if !errors.As(err, &valErr) {
		t.Fatalf("error = %v, want *MalformedValueError", err)
	}
	if valErr.Column != 10 || valErr.Name != "state" {
		t.Errorf("error column = %d (%s), want 10 (state)", valErr.Column, valErr.Name)
	}
}

func TestTransform_MalformedValues(t *testing.T) {
	tests := []struct {
		name string
		col  int
		cell string
	}{
		{"integer", 8, "four"},
		{"hex", 5, "0xZZ"},
		{"real", 1, "1.2.3"},
		{"address", 4, "bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(mustBoTIoT(t), Options{})
			row := botiotRow()
			row[tt.col] = tt.cell
			_, err := tr.Transform(row)
			var valErr *MalformedValueError
			if !errors.As(err, &valErr) {
				t.Fatalf("error = %v, want *MalformedValueError", err)
			}
			if valErr.Column != tt.col {
				t.Errorf("Column = %d, want %d", valErr.Column, tt.col)
			}
		})
	}
}

func TestParseInteger(t *testing.T) {
	tests := []struct {
		cell string
		want float64
	}{
		{"5", 5},
		{" 5", 5},
		{"5 ", 5},
		{"-7", -7},
		{"0x1f", 31},
		{"0X1F", 31},
		{" 0x0303 ", 771},
		{"x10", 16},
		{"-0x10", -16},
		{"", sentinel},
	}
	for _, tt := range tests {
		got, err := parseInteger(tt.cell)
		if err != nil {
			t.Errorf("parseInteger(%q) error: %v", tt.cell, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseInteger(%q) = %v, want %v", tt.cell, got, tt.want)
		}
	}
	for _, bad := range []string{"four", "0xZZ", "1.5", "5 6"} {
		if _, err := parseInteger(bad); err == nil {
			t.Errorf("parseInteger(%q) accepted", bad)
		}
	}
}

func TestTransform_AddressErrorUnwraps(t *testing.T) {
	tr := New(mustBoTIoT(t), Options{})
	row := botiotRow()
	row[6] = "1::2::3"
	_, err := tr.Transform(row)
	var addrErr *MalformedAddressError
	if !errors.As(err, &addrErr) {
		t.Fatalf("error = %v, want wrapped *MalformedAddressError", err)
	}
}

func TestTransform_WrongWidth(t *testing.T) {
	tr := New(mustBoTIoT(t), Options{})
	_, err := tr.Transform([]string{"1", "2"})
	var valErr *MalformedValueError
	if !errors.As(err, &valErr) {
		t.Fatalf("error = %v, want *MalformedValueError", err)
	}
}

func TestTransform_Deterministic(t *testing.T) {
	tr := New(mustBoTIoT(t), Options{})
	a, err := tr.Transform(botiotRow())
	if err != nil {
		t.Fatal(err)
	}
	b, err := tr.Transform(botiotRow()) // second call hits the address cache
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical rows produced different instances")
	}

	uncached := New(mustBoTIoT(t), Options{AddressCacheSize: -1})
	c, err := uncached.Transform(botiotRow())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, c) {
		t.Error("cached and uncached transformers disagree")
	}
}

func TestTransform_FeatureSelectionProfiles(t *testing.T) {
	balanced, err := schema.BoTIoTBalancedFS()
	if err != nil {
		t.Fatal(err)
	}
	in, err := New(balanced, Options{}).Transform(botiotRow())
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1526344121.15, 1, 12} // column order: stime, state=CON, seq
	if !reflect.DeepEqual(in.Values, want) {
		t.Errorf("balanced-fs values = %v, want %v", in.Values, want)
	}

	unbalanced, err := schema.BoTIoTUnbalancedFS()
	if err != nil {
		t.Fatal(err)
	}
	row := botiotRow()
	row[10] = "FIN"
	in, err = New(unbalanced, Options{}).Transform(row)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in.Values, []float64{0}) {
		t.Errorf("unbalanced-fs values = %v, want [0]", in.Values)
	}
}
