package interp

import "github.com/slp-lang/slp/slp"

// resolveTypeSymbol extends ParseTypeSymbol with user-declared forms (spec
// §4.7): a symbol that isn't a recognized base type or :fn<...> signature is
// checked against this interpreter's form table, keyed by the symbol with
// its leading ':' stripped (so `(fn (p :point) ...)` declares a point-typed
// parameter the same way `:int` declares an integer one).
func (it *Interpreter) resolveTypeSymbol(sym string) (tag TypeTag, sig *FnSignature, formName string, ok bool) {
	if t, s, found := ParseTypeSymbol(sym); found {
		return t, s, "", true
	}
	if len(sym) > 1 && sym[0] == ':' {
		if _, found := it.forms[sym[1:]]; found {
			return TForm, nil, sym[1:], true
		}
	}
	return 0, nil, "", false
}

// matchesForm reports whether value structurally matches the registered
// form named formName: a BraceList whose element tags match the form's
// fixed field types, or (for a variadic form) whose elements are all the
// declared element type.
func (it *Interpreter) matchesForm(formName string, value slp.Cell) bool {
	def, ok := it.forms[formName]
	if !ok || value.Tag() != slp.BraceList {
		return false
	}
	items := value.Items()
	if def.Variadic {
		for _, elem := range items {
			actual, ok := TagOf(elem.Tag())
			if !ok || (def.ElemType != TNone && actual != def.ElemType) {
				return false
			}
		}
		return true
	}
	if len(items) != len(def.Fields) {
		return false
	}
	for i, field := range def.Fields {
		if field == TNone {
			continue
		}
		actual, ok := TagOf(items[i].Tag())
		if !ok || actual != field {
			return false
		}
	}
	return true
}

// evalDefineForm handles `#(define-form <name> <shape>)` (spec §4.5). shape
// is either a ParenList of type symbols (a fixed-arity form) or a 2-element
// ParenList `(:type ...)` whose second element is the literal symbol "..."
// (a homogeneous variadic form).
func (it *Interpreter) evalDefineForm(d slp.Cell) (slp.Cell, *Failure) {
	items := d.Items()
	if len(items) != 3 {
		return slp.Cell{}, ThrowAt(d.Pos(), KindArityMismatch, "define-form requires exactly 2 operands")
	}
	nameCell, shapeCell := items[1], items[2]
	if nameCell.Tag() != slp.Symbol {
		return slp.Cell{}, ThrowAt(nameCell.Pos(), KindInvalidType, "define-form name must be a symbol")
	}
	if shapeCell.Tag() != slp.ParenList {
		return slp.Cell{}, ThrowAt(shapeCell.Pos(), KindInvalidType, "define-form shape must be a paren list")
	}
	shapeItems := shapeCell.Items()

	def := &formDef{Name: nameCell.SymbolName()}
	if len(shapeItems) == 2 && shapeItems[1].Tag() == slp.Symbol && shapeItems[1].SymbolName() == "..." {
		elemSym := shapeItems[0]
		if elemSym.Tag() != slp.Symbol {
			return slp.Cell{}, ThrowAt(elemSym.Pos(), KindInvalidType, "define-form element type must be a type symbol")
		}
		t, _, ok := ParseTypeSymbol(elemSym.SymbolName())
		if !ok {
			return slp.Cell{}, ThrowAt(elemSym.Pos(), KindInvalidType, "unrecognized type symbol %q", elemSym.SymbolName())
		}
		def.Variadic = true
		def.ElemType = t
	} else {
		fields := make([]TypeTag, len(shapeItems))
		for i, f := range shapeItems {
			if f.Tag() != slp.Symbol {
				return slp.Cell{}, ThrowAt(f.Pos(), KindInvalidType, "define-form field must be a type symbol")
			}
			t, _, ok := ParseTypeSymbol(f.SymbolName())
			if !ok {
				return slp.Cell{}, ThrowAt(f.Pos(), KindInvalidType, "unrecognized type symbol %q", f.SymbolName())
			}
			fields[i] = t
		}
		def.Fields = fields
	}

	it.forms[def.Name] = def
	return slp.NewNone(), nil
}
