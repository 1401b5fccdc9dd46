package tcs

import (
	"github.com/slp-lang/slp/interp"
	"github.com/slp-lang/slp/slp"
)

// formShape is the checker's record of a `#(define-form ...)` declaration
// (spec §4.7's "Forms" paragraph), shaped exactly like interp/forms.go's
// formDef but consulted statically instead of against a runtime BraceList.
type formShape struct {
	Name     string
	Fields   []interp.TypeTag
	Variadic bool
	ElemType interp.TypeTag
}

// resolveTypeSymbol extends interp.ParseTypeSymbol with this checker's own
// form table, the same way interp.(*Interpreter).resolveTypeSymbol does at
// runtime (interp/forms.go) — kept as an independent copy here because the
// checker's form table is populated by static traversal, not evaluation.
func (c *Checker) resolveTypeSymbol(sym string) (TypeInfo, *interp.FnSignature, bool) {
	if t, sig, found := interp.ParseTypeSymbol(sym); found {
		return TypeInfo{Base: t}, sig, true
	}
	if len(sym) > 1 && sym[0] == ':' {
		if _, found := c.forms[sym[1:]]; found {
			return form(sym[1:]), nil, true
		}
	}
	return TypeInfo{}, nil, false
}

func (c *Checker) defineForm(d slp.Cell) {
	items := d.Items()
	if len(items) != 3 {
		c.errorAt(d.Pos(), "arity_error", "define-form requires exactly 2 operands")
		return
	}
	nameCell, shapeCell := items[1], items[2]
	if nameCell.Tag() != slp.Symbol {
		c.errorAt(nameCell.Pos(), "type_error", "define-form name must be a symbol")
		return
	}
	if shapeCell.Tag() != slp.ParenList {
		c.errorAt(shapeCell.Pos(), "type_error", "define-form shape must be a paren list")
		return
	}
	shapeItems := shapeCell.Items()
	shape := &formShape{Name: nameCell.SymbolName()}

	if len(shapeItems) == 2 && shapeItems[1].Tag() == slp.Symbol && shapeItems[1].SymbolName() == "..." {
		elemSym := shapeItems[0]
		t, ok := c.typeSymbolTag(elemSym)
		if !ok {
			return
		}
		shape.Variadic = true
		shape.ElemType = t
	} else {
		fields := make([]interp.TypeTag, len(shapeItems))
		for i, f := range shapeItems {
			t, ok := c.typeSymbolTag(f)
			if !ok {
				return
			}
			fields[i] = t
		}
		shape.Fields = fields
	}
	c.forms[shape.Name] = shape
}

func (c *Checker) typeSymbolTag(sym slp.Cell) (interp.TypeTag, bool) {
	if sym.Tag() != slp.Symbol {
		c.errorAt(sym.Pos(), "type_error", "define-form field must be a type symbol")
		return 0, false
	}
	t, _, ok := interp.ParseTypeSymbol(sym.SymbolName())
	if !ok {
		c.errorAt(sym.Pos(), "type_error", "unrecognized type symbol %q", sym.SymbolName())
		return 0, false
	}
	return t, true
}

// formMatchesStatic reports whether a statically-known TypeInfo could match
// a declared form type: a value whose own TypeInfo already carries the same
// form name (propagated through cast or a typed parameter), or a :none
// value whose type is not known statically. A plain :list-c brace list is
// not accepted here; callers that allow one (checkFn, checkCast) test for
// it themselves.
func (c *Checker) formMatchesStatic(formName string, ti TypeInfo) bool {
	if ti.Base == interp.TForm {
		return ti.FormName == formName
	}
	return ti.Base == interp.TNone
}
