package slp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseAtoms(t *testing.T) {
	r := Parse("[1 -2 3.14 -0.5 foo \"hi\" 'x]")
	if r.Err != nil {
		t.Fatal(r.Err)
	}
	top, _ := r.Object.At(0)
	if top.Tag() != BracketList {
		t.Fatalf("expected bracket list, got %s", top.Tag())
	}
	items := top.Items()
	want := []Tag{Integer, Integer, Real, Real, Symbol, DqList, Some}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, w := range want {
		if items[i].Tag() != w {
			t.Errorf("item %d: got %s, want %s", i, items[i].Tag(), w)
		}
	}
	if items[0].Int() != 1 || items[1].Int() != -2 {
		t.Errorf("integer values wrong: %v %v", items[0].Int(), items[1].Int())
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src  string
		kind ErrorKind
	}{
		{"(a b", UnclosedParen},
		{"[a b", UnclosedBracket},
		{"{a b", UnclosedBrace},
		{`"unterminated`, UnclosedString},
		{")", UnexpectedCloser},
		{"", EmptyInput},
	}
	for _, c := range cases {
		r := Parse(c.src)
		if r.Err == nil {
			t.Errorf("src %q: expected error, got none", c.src)
			continue
		}
		if r.Err.Kind != c.kind {
			t.Errorf("src %q: got kind %s, want %s", c.src, r.Err.Kind, c.kind)
		}
	}
}

func TestParseDatumAndError(t *testing.T) {
	r := Parse(`[#(import a "b.sxs") @(1 2)]`)
	if r.Err != nil {
		t.Fatal(r.Err)
	}
	top, _ := r.Object.At(0)
	items := top.Items()
	if items[0].Tag() != Datum {
		t.Errorf("expected datum, got %s", items[0].Tag())
	}
	if items[1].Tag() != ErrorTag {
		t.Errorf("expected error cell, got %s", items[1].Tag())
	}
}

func TestParseRoundTrip(t *testing.T) {
	srcs := []string{
		`[(def x 1) (def y "hi") (def z 'sym)]`,
		`[(fn (a :int b :str) :int [42])]`,
		`[{1 2 3} (a/b 1 2)]`,
		`[-5 -3.5 0 0.0]`,
		`[none (def x none)]`,
	}
	for _, src := range srcs {
		r := Parse(src)
		if r.Err != nil {
			t.Fatalf("parse %q: %v", src, r.Err)
		}
		printed := PrintProgram(r.Object)
		r2 := Parse(printed)
		if r2.Err != nil {
			t.Fatalf("reparse %q: %v", printed, r2.Err)
		}
		if !Equal(r.Object, r2.Object) {
			t.Errorf("round trip mismatch for %q:\nfirst  = %s\nsecond = %s\ndiff: %s",
				src, Print(r.Object), Print(r2.Object), cmp.Diff(describe(r.Object), describe(r2.Object)))
		}
	}
}

// describe renders a Cell tree into a comparable plain structure for cmp,
// since Cell itself carries unexported fields cmp cannot see into directly.
func describe(c Cell) any {
	switch c.Tag() {
	case ParenList, BracketList, BraceList, Datum:
		items := c.Items()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = describe(it)
		}
		return out
	case Some:
		return []any{"some", describe(c.Inner())}
	case ErrorTag:
		return []any{"error", describe(c.Inner())}
	case Integer:
		return c.Int()
	case Real:
		return c.Float()
	case DqList:
		return c.Str()
	case Symbol:
		return c.SymbolName()
	default:
		return c.Tag().String()
	}
}
