// Package storepath implements the dotted-segment identifiers used to
// address values in the execution context's stores.
package storepath

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is an ordered, non-empty sequence of non-empty string segments.
// Equality is segment-wise; Path is a value type and safe to copy.
type Path struct {
	segments []string
}

// New builds a Path from individual segments. Every segment must be
// non-empty.
func New(segments ...string) (Path, error) {
	if len(segments) == 0 {
		return Path{}, fmt.Errorf("storepath: path must have at least one segment")
	}
	out := make([]string, len(segments))
	for i, s := range segments {
		if s == "" {
			return Path{}, fmt.Errorf("storepath: segment %d is empty", i)
		}
		out[i] = s
	}
	return Path{segments: out}, nil
}

// MustNew is like New but panics on error. Intended for literals known
// to be valid at compile time (schema construction, tests).
func MustNew(segments ...string) Path {
	p, err := New(segments...)
	if err != nil {
		panic(err)
	}
	return p
}

// FromDotted parses a dotted path string such as "a.b.c" into a Path.
// An empty string, or a string with an empty component (e.g. "a..b" or
// a leading/trailing dot), is rejected.
func FromDotted(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("storepath: empty dotted string")
	}
	parts := strings.Split(s, ".")
	return New(parts...)
}

// String renders the path in dotted form, e.g. "a.b.c".
func (p Path) String() string {
	return strings.Join(p.segments, ".")
}

// Segments returns the path's segments. The returned slice must not be
// mutated by the caller.
func (p Path) Segments() []string {
	return p.segments
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segments)
}

// Append returns a new Path with seg appended.
func (p Path) Append(seg string) Path {
	out := make([]string, len(p.segments)+1)
	copy(out, p.segments)
	out[len(p.segments)] = seg
	return Path{segments: out}
}

// AppendIndex returns a new Path with the decimal rendering of i
// appended as a segment. Used to address an iteration of an iterative
// namespace.
func (p Path) AppendIndex(i int) Path {
	return p.Append(strconv.Itoa(i))
}

// Namespace returns the first segment, the conventional namespace name
// for paths rooted at a pipeline namespace.
func (p Path) Namespace() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[0]
}

// HasPrefix reports whether prefix's segments are a leading subsequence
// of p's segments.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.segments) > len(p.segments) {
		return false
	}
	for i, s := range prefix.segments {
		if p.segments[i] != s {
			return false
		}
	}
	return true
}

// Equal reports segment-wise equality.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i, s := range p.segments {
		if other.segments[i] != s {
			return false
		}
	}
	return true
}

// IsZero reports whether p is the zero value (no segments).
func (p Path) IsZero() bool {
	return len(p.segments) == 0
}
