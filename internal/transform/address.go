package transform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/1sec-project/flowprep/internal/schema"
)

const (
	ipv4Groups = 4
	ipv6Groups = 8
	sentinel   = -1
)

var ipv4Pattern = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)

// Decompose splits a textual address into twelve numeric slots: four IPv4
// octets followed by eight IPv6 hextets. The family that does not apply is
// filled with -1. Anything that is not dotted-decimal is read as IPv6; an
// empty or unparseable string is a *MalformedAddressError.
func Decompose(addr string) ([schema.AddressSlots]float64, error) {
	var out [schema.AddressSlots]float64
	for i := range out {
		out[i] = sentinel
	}

	if ipv4Pattern.MatchString(addr) {
		for i, part := range strings.Split(addr, ".") {
			n, err := strconv.Atoi(part)
			if err != nil {
				return out, &MalformedAddressError{Value: addr, Reason: err.Error()}
			}
			out[i] = float64(n)
		}
		return out, nil
	}

	groups, err := expandIPv6(addr)
	if err != nil {
		return out, err
	}
	for i, g := range groups {
		n, err := strconv.ParseUint(g, 16, 16)
		if err != nil {
			return out, &MalformedAddressError{Value: addr, Reason: "group " + strconv.Quote(g) + " is not a 16-bit hex number"}
		}
		out[ipv4Groups+i] = float64(n)
	}
	return out, nil
}

// expandIPv6 returns exactly eight textual groups, replacing the single
// "::" compression point with as many "0" groups as needed.
func expandIPv6(addr string) ([]string, error) {
	if addr == "" {
		return nil, &MalformedAddressError{Value: addr, Reason: "empty address"}
	}
	if !strings.Contains(addr, ":") {
		return nil, &MalformedAddressError{Value: addr, Reason: "neither IPv4 nor IPv6"}
	}

	switch strings.Count(addr, "::") {
	case 0:
		groups := strings.Split(addr, ":")
		if len(groups) != ipv6Groups {
			return nil, &MalformedAddressError{Value: addr, Reason: "expected 8 groups, got " + strconv.Itoa(len(groups))}
		}
		for _, g := range groups {
			if g == "" {
				return nil, &MalformedAddressError{Value: addr, Reason: "empty group outside compression"}
			}
		}
		return groups, nil
	case 1:
	default:
		return nil, &MalformedAddressError{Value: addr, Reason: "more than one :: compression"}
	}

	head, tail, _ := strings.Cut(addr, "::")
	left := splitGroups(head)
	right := splitGroups(tail)
	for _, g := range append(append([]string{}, left...), right...) {
		if g == "" {
			return nil, &MalformedAddressError{Value: addr, Reason: "empty group outside compression"}
		}
	}
	fill := ipv6Groups - len(left) - len(right)
	if fill < 1 {
		return nil, &MalformedAddressError{Value: addr, Reason: "too many groups around ::"}
	}

	groups := make([]string, 0, ipv6Groups)
	groups = append(groups, left...)
	for i := 0; i < fill; i++ {
		groups = append(groups, "0")
	}
	return append(groups, right...), nil
}

func splitGroups(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ":")
}
