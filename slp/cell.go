// Package slp implements the SLP cell store: the tagged, immutable value
// type that every SLP program is built from, plus its parser and printer.
package slp

import (
	"fmt"
	"go/token"
)

// Tag identifies the kind of value a Cell holds. The set is closed; the
// interpreter and checker both switch on it rather than on a Go type
// hierarchy.
type Tag int

const (
	None Tag = iota
	Some
	ParenList
	BracketList
	BraceList
	DqList
	Symbol
	Rune
	Integer
	Real
	ErrorTag
	Datum
	Aberrant
	Environment
)

func (t Tag) String() string {
	switch t {
	case None:
		return "none"
	case Some:
		return "some"
	case ParenList:
		return "paren-list"
	case BracketList:
		return "bracket-list"
	case BraceList:
		return "brace-list"
	case DqList:
		return "dq-list"
	case Symbol:
		return "symbol"
	case Rune:
		return "rune"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case ErrorTag:
		return "error"
	case Datum:
		return "datum"
	case Aberrant:
		return "aberrant"
	case Environment:
		return "environment"
	default:
		return fmt.Sprintf("tag(%d)", int(t))
	}
}

// Cell is the universal, immutable value type. A Cell is never mutated in
// place; every operation that would change a Cell returns a new one.
type Cell struct {
	tag Tag
	pos token.Pos

	// scalar payloads; only the field matching tag is meaningful.
	i     int64
	f     float64
	str   string
	items []Cell // ParenList / BracketList / BraceList / Datum children
	inner *Cell   // Some(inner), Error(payload)
	id    uint64  // Aberrant lambda handle
}

// Pos returns the byte offset (as a token.Pos into the owning FileSet) where
// this cell began in its source text.
func (c Cell) Pos() token.Pos { return c.pos }

// Tag reports the cell's closed-set type tag.
func (c Cell) Tag() Tag { return c.tag }

// WithPos returns a copy of c carrying a new source position. Cells are
// immutable, so this never mutates c.
func (c Cell) WithPos(p token.Pos) Cell {
	c.pos = p
	return c
}

// Constructors. Each returns a freshly built, immutable Cell.

func NewNone() Cell { return Cell{tag: None} }

func NewSome(inner Cell) Cell {
	i := inner
	return Cell{tag: Some, inner: &i}
}

func newList(tag Tag, items []Cell) Cell {
	cp := make([]Cell, len(items))
	copy(cp, items)
	return Cell{tag: tag, items: cp}
}

func NewParenList(items []Cell) Cell   { return newList(ParenList, items) }
func NewBracketList(items []Cell) Cell { return newList(BracketList, items) }
func NewBraceList(items []Cell) Cell   { return newList(BraceList, items) }

func NewDqList(s string) Cell { return Cell{tag: DqList, str: s} }

func NewSymbol(name string) Cell { return Cell{tag: Symbol, str: name} }

func NewRune(r rune) Cell { return Cell{tag: Rune, i: int64(r)} }

func NewInteger(v int64) Cell { return Cell{tag: Integer, i: v} }

func NewReal(v float64) Cell { return Cell{tag: Real, f: v} }

// NewError wraps payload (typically a ParenList of diagnostic tokens) as an
// Error-tagged data cell. Error cells are data, not thrown failures.
func NewError(payload Cell) Cell {
	p := payload
	return Cell{tag: ErrorTag, inner: &p}
}

// NewDatum tags a parsed ParenList as a #(...) directive.
func NewDatum(items []Cell) Cell { return newList(Datum, items) }

// NewAberrant builds a lambda-handle cell for the given lambda-table ID.
func NewAberrant(id uint64) Cell { return Cell{tag: Aberrant, id: id} }

// Accessors. Each panics if called against the wrong tag; callers are
// expected to switch on Tag() first, mirroring the interpreter's own
// dispatch discipline.

func (c Cell) mustBe(t Tag) {
	if c.tag != t {
		panic(fmt.Sprintf("slp: Cell.%s called on a %s cell", t, c.tag))
	}
}

func (c Cell) Int() int64 {
	c.mustBe(Integer)
	return c.i
}

func (c Cell) RuneVal() rune {
	c.mustBe(Rune)
	return rune(c.i)
}

func (c Cell) Float() float64 {
	c.mustBe(Real)
	return c.f
}

func (c Cell) Str() string {
	if c.tag != DqList && c.tag != Symbol {
		panic(fmt.Sprintf("slp: Cell.Str called on a %s cell", c.tag))
	}
	return c.str
}

// SymbolName is an alias for Str restricted (by convention) to Symbol cells.
func (c Cell) SymbolName() string {
	c.mustBe(Symbol)
	return c.str
}

// Items returns the child cells of a list-shaped cell (ParenList,
// BracketList, BraceList or Datum). The returned slice must not be mutated.
func (c Cell) Items() []Cell {
	switch c.tag {
	case ParenList, BracketList, BraceList, Datum:
		return c.items
	default:
		panic(fmt.Sprintf("slp: Cell.Items called on a %s cell", c.tag))
	}
}

// Len is O(1) for list-shaped cells.
func (c Cell) Len() int {
	switch c.tag {
	case ParenList, BracketList, BraceList, Datum:
		return len(c.items)
	default:
		panic(fmt.Sprintf("slp: Cell.Len called on a %s cell", c.tag))
	}
}

// At returns the i'th child of a list-shaped cell, and whether i was in
// bounds.
func (c Cell) At(i int) (Cell, bool) {
	items := c.Items()
	if i < 0 || i >= len(items) {
		return Cell{}, false
	}
	return items[i], true
}

// Inner returns the wrapped cell of a Some or Error cell.
func (c Cell) Inner() Cell {
	if c.tag != Some && c.tag != ErrorTag {
		panic(fmt.Sprintf("slp: Cell.Inner called on a %s cell", c.tag))
	}
	return *c.inner
}

// LambdaID returns the lambda-table handle of an Aberrant cell.
func (c Cell) LambdaID() uint64 {
	c.mustBe(Aberrant)
	return c.id
}

// IsList reports whether c is one of the three list-shaped container tags.
func (c Cell) IsList() bool {
	switch c.tag {
	case ParenList, BracketList, BraceList:
		return true
	default:
		return false
	}
}

// Truthy implements the `if` truthiness rule from spec §4.5: an
// Integer is truthy unless it is exactly 0; every other tag is truthy.
func (c Cell) Truthy() bool {
	if c.tag == Integer {
		return c.i != 0
	}
	return true
}

// Equal implements value-equality by tag then value, as used by `match`
// pattern comparison and form-field comparisons. Lists compare
// element-wise; Aberrant compares by lambda ID.
func Equal(a, b Cell) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case None, Environment:
		return true
	case Integer:
		return a.i == b.i
	case Rune:
		return a.i == b.i
	case Real:
		return a.f == b.f
	case DqList, Symbol:
		return a.str == b.str
	case Aberrant:
		return a.id == b.id
	case Some:
		return Equal(*a.inner, *b.inner)
	case ErrorTag:
		return Equal(*a.inner, *b.inner)
	case ParenList, BracketList, BraceList, Datum:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
