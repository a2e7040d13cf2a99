package transform

import (
	"errors"
	"testing"
)

func TestDecompose_IPv4(t *testing.T) {
	got, err := Decompose("192.168.1.10")
	if err != nil {
		t.Fatalf("Decompose error: %v", err)
	}
	want := [12]float64{192, 168, 1, 10, -1, -1, -1, -1, -1, -1, -1, -1}
	if got != want {
		t.Errorf("Decompose(192.168.1.10) = %v, want %v", got, want)
	}
}

func TestDecompose_IPv6Compressed(t *testing.T) {
	got, err := Decompose("2001:db8::1")
	if err != nil {
		t.Fatalf("Decompose error: %v", err)
	}
	want := [12]float64{-1, -1, -1, -1, 0x2001, 0x0db8, 0, 0, 0, 0, 0, 1}
	if got != want {
		t.Errorf("Decompose(2001:db8::1) = %v, want %v", got, want)
	}
}

func TestDecompose_IPv6Forms(t *testing.T) {
	tests := []struct {
		in   string
		want [8]float64
	}{
		{"fe80::250:56ff:febe:c038", [8]float64{0xfe80, 0, 0, 0, 0x250, 0x56ff, 0xfebe, 0xc038}},
		{"::1", [8]float64{0, 0, 0, 0, 0, 0, 0, 1}},
		{"fe80::", [8]float64{0xfe80, 0, 0, 0, 0, 0, 0, 0}},
		{"::", [8]float64{}},
		{"1:2:3:4:5:6:7:8", [8]float64{1, 2, 3, 4, 5, 6, 7, 8}},
		{"ff02::1:ff00:0", [8]float64{0xff02, 0, 0, 0, 0, 1, 0xff00, 0}},
	}
	for _, tt := range tests {
		got, err := Decompose(tt.in)
		if err != nil {
			t.Errorf("Decompose(%q) error: %v", tt.in, err)
			continue
		}
		for i := 0; i < 4; i++ {
			if got[i] != -1 {
				t.Errorf("Decompose(%q) ipv4 slot %d = %v, want -1", tt.in, i, got[i])
			}
		}
		for i, w := range tt.want {
			if got[4+i] != w {
				t.Errorf("Decompose(%q) ipv6 slot %d = %v, want %v", tt.in, i, got[4+i], w)
			}
		}
	}
}

func TestDecompose_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"not-an-address",
		"1::2::3",
		"1:2:3",
		"1:2:3:4:5:6:7:8:9",
		"1:2:3:4::5:6:7:8",
		"2001:db8::zzzz",
		"2001:db8::12345",
		"1:2:3:4:5:6:7:",
	} {
		_, err := Decompose(in)
		var addrErr *MalformedAddressError
		if !errors.As(err, &addrErr) {
			t.Errorf("Decompose(%q) error = %v, want *MalformedAddressError", in, err)
		}
	}
}

func TestDecompose_ExactlyOneFamilyPopulated(t *testing.T) {
	for _, in := range []string{"10.0.0.1", "0.0.0.0", "255.255.255.255", "2001:db8::1", "::1", "fe80::1:2"} {
		got, err := Decompose(in)
		if err != nil {
			t.Fatalf("Decompose(%q) error: %v", in, err)
		}
		v4 := got[0] != -1 || got[1] != -1 || got[2] != -1 || got[3] != -1
		v6 := false
		for _, v := range got[4:] {
			if v != -1 {
				v6 = true
			}
		}
		if v4 == v6 {
			t.Errorf("Decompose(%q) = %v: want exactly one family populated", in, got)
		}
	}
}
