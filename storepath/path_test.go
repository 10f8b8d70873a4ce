package storepath

import "testing"

func TestRoundTripDotted(t *testing.T) {
	cases := [][]string{
		{"a"},
		{"a", "b", "c"},
		{"namespace", "step", "0", "field"},
	}
	for _, segs := range cases {
		p, err := New(segs...)
		if err != nil {
			t.Fatalf("New(%v): %v", segs, err)
		}
		dotted := p.String()
		back, err := FromDotted(dotted)
		if err != nil {
			t.Fatalf("FromDotted(%q): %v", dotted, err)
		}
		if !back.Equal(p) {
			t.Errorf("round trip mismatch: %v != %v", back.Segments(), p.Segments())
		}
	}
}

func TestFromDottedRejectsEmptySegments(t *testing.T) {
	for _, s := range []string{"", "a..b", ".a", "a.", "."} {
		if _, err := FromDotted(s); err == nil {
			t.Errorf("FromDotted(%q) expected error, got nil", s)
		}
	}
}

func TestNewRejectsEmptySegment(t *testing.T) {
	if _, err := New("a", "", "b"); err == nil {
		t.Error("expected error for empty segment")
	}
}

func TestAppendAndAppendIndex(t *testing.T) {
	p := MustNew("data", "load")
	p2 := p.Append("rows")
	if p2.String() != "data.load.rows" {
		t.Errorf("got %q", p2.String())
	}
	// original unaffected
	if p.String() != "data.load" {
		t.Errorf("original mutated: %q", p.String())
	}
	p3 := p.AppendIndex(2)
	if p3.String() != "data.load.2" {
		t.Errorf("got %q", p3.String())
	}
}

func TestNamespace(t *testing.T) {
	p := MustNew("query", "sum", "total")
	if p.Namespace() != "query" {
		t.Errorf("got %q", p.Namespace())
	}
}

func TestHasPrefix(t *testing.T) {
	p := MustNew("ns", "cmd", "0", "field")
	if !p.HasPrefix(MustNew("ns", "cmd")) {
		t.Error("expected prefix match")
	}
	if p.HasPrefix(MustNew("ns", "other")) {
		t.Error("unexpected prefix match")
	}
	if p.HasPrefix(MustNew("ns", "cmd", "0", "field", "extra")) {
		t.Error("longer prefix should not match")
	}
}

func TestEqual(t *testing.T) {
	a := MustNew("a", "b")
	b := MustNew("a", "b")
	c := MustNew("a", "c")
	if !a.Equal(b) {
		t.Error("expected equal")
	}
	if a.Equal(c) {
		t.Error("expected not equal")
	}
}
