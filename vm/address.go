package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Labels: atomic identifiers
// ---------------------------------------------------------------------------

// Label is an atomic name: one or more alphanumeric or underscore
// characters, with no separators. Labels are compared by content.
type Label string

// ValidLabel reports whether s is a well-formed Label.
func ValidLabel(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// ParseLabel validates s and returns it as a Label.
func ParseLabel(s string) (Label, error) {
	if !ValidLabel(s) {
		return "", &ParseError{Input: s, Reason: "not a valid label"}
	}
	return Label(s), nil
}

// MustLabel is ParseLabel for known-good literals.
// Panics on invalid input.
func MustLabel(s string) Label {
	l, err := ParseLabel(s)
	if err != nil {
		panic(err)
	}
	return l
}

// ---------------------------------------------------------------------------
// Addresses: dot-joined label sequences
// ---------------------------------------------------------------------------

// Address is an ordered, non-empty sequence of Labels, printed
// dot-joined. Addresses identify modules, system calls, and data
// constructor tags. The zero Address (no labels) is invalid and only
// appears as the failure result of a constructor.
type Address struct {
	labels []Label
}

// NewAddress builds an Address from labels. At least one label is
// required.
func NewAddress(labels ...Label) (Address, error) {
	if len(labels) == 0 {
		return Address{}, &ParseError{Input: "", Reason: "empty address"}
	}
	for _, l := range labels {
		if !ValidLabel(string(l)) {
			return Address{}, &ParseError{Input: string(l), Reason: "not a valid label"}
		}
	}
	out := make([]Label, len(labels))
	copy(out, labels)
	return Address{labels: out}, nil
}

// MustAddress is NewAddress for known-good literals.
// Panics on invalid input.
func MustAddress(labels ...Label) Address {
	a, err := NewAddress(labels...)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseAddress parses a dot-joined label sequence such as "vec.make".
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, ".")
	labels := make([]Label, 0, len(parts))
	for _, p := range parts {
		l, err := ParseLabel(p)
		if err != nil {
			return Address{}, &ParseError{Input: s, Reason: fmt.Sprintf("bad label %q", p)}
		}
		labels = append(labels, l)
	}
	return NewAddress(labels...)
}

// IsZero reports whether a is the invalid zero Address.
func (a Address) IsZero() bool {
	return len(a.labels) == 0
}

// Labels returns the label sequence. The returned slice must not be
// mutated.
func (a Address) Labels() []Label {
	return a.labels
}

// Len returns the number of labels.
func (a Address) Len() int {
	return len(a.labels)
}

// String renders the address dot-joined. ParseAddress(a.String())
// round-trips for every valid Address.
func (a Address) String() string {
	var sb strings.Builder
	for i, l := range a.labels {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(string(l))
	}
	return sb.String()
}

// Child returns the address extended by one label, used to name a
// builtin method under its module's address.
func (a Address) Child(l Label) Address {
	labels := make([]Label, 0, len(a.labels)+1)
	labels = append(labels, a.labels...)
	labels = append(labels, l)
	return Address{labels: labels}
}

// Compare orders addresses lexicographically over their label
// sequences. Returns -1, 0, or 1.
func (a Address) Compare(b Address) int {
	for i := 0; i < len(a.labels) && i < len(b.labels); i++ {
		if a.labels[i] != b.labels[i] {
			if a.labels[i] < b.labels[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a.labels) < len(b.labels):
		return -1
	case len(a.labels) > len(b.labels):
		return 1
	}
	return 0
}

// Equal reports whether two addresses name the same label sequence.
func (a Address) Equal(b Address) bool {
	return a.Compare(b) == 0
}

// ---------------------------------------------------------------------------
// Parse errors
// ---------------------------------------------------------------------------

// ParseError reports a malformed label or address, carrying the
// offending input.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vm: cannot parse %q: %s", e.Input, e.Reason)
}
