package transform

import "fmt"

// MalformedValueError reports a non-empty cell that cannot be parsed as the
// kind its column declares. Empty cells are never malformed; they take the
// -1 sentinel.
type MalformedValueError struct {
	Column int
	Name   string
	Value  string
	Err    error
}

func (e *MalformedValueError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("malformed row: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("column %d (%s): malformed value %q: %v", e.Column, e.Name, e.Value, e.Err)
	}
	return fmt.Sprintf("column %d (%s): malformed value %q", e.Column, e.Name, e.Value)
}

func (e *MalformedValueError) Unwrap() error { return e.Err }

// MalformedAddressError reports an address that is neither dotted-decimal
// IPv4 nor colon-separated IPv6.
type MalformedAddressError struct {
	Value  string
	Reason string
}

func (e *MalformedAddressError) Error() string {
	return fmt.Sprintf("malformed address %q: %s", e.Value, e.Reason)
}
