package interp

import (
	"fmt"

	"github.com/slp-lang/slp/slp"
)

// builtins is the fixed operator table consulted before scope lookup for a
// plain (non-prefixed) call head (spec §4.6). It is package-level and
// read-only after init: a name-keyed dispatch table rather than a switch
// spread across the evaluator.
var builtins = map[string]builtinFn{
	"def":     builtinDef,
	"set":     builtinDef,
	"fn":      builtinFn_,
	"if":      builtinIf,
	"match":   builtinMatch,
	"reflect": builtinReflect,
	"recover": builtinRecover,
	"assert":  builtinAssert,
	"apply":   builtinApply,
	"do":      builtinDo,
	"done":    builtinDone,
	"at":      builtinAt,
	"cast":    builtinCast,
	"debug":   builtinDebug,
	"eval":    builtinEval,
	"try":     builtinTry,
	"export":  builtinExport,
}

func arity(call slp.Cell, n int) []slp.Cell {
	items := call.Items()
	if len(items)-1 != n {
		return nil
	}
	return items[1:]
}

// def / set: (def name expr). Both names dispatch the same implementation;
// the distinction in the source material is purely stylistic (def for
// first binding, set for rebind), since scope.define always overwrites.
func builtinDef(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 2)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "def/set requires exactly 2 operands")
	}
	nameCell := ops[0]
	if nameCell.Tag() != slp.Symbol {
		return slp.Cell{}, ThrowAt(nameCell.Pos(), KindInvalidType, "def/set: first operand must be a symbol")
	}
	value, err := it.eval(ops[1])
	if err != nil {
		return slp.Cell{}, err
	}
	it.scope.define(nameCell.SymbolName(), value)
	return slp.NewNone(), nil
}

// export: (export name expr). Same as def, plus marks the name visible
// through this file's import prefix (spec §4.5).
func builtinExport(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 2)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "export requires exactly 2 operands")
	}
	nameCell := ops[0]
	if nameCell.Tag() != slp.Symbol {
		return slp.Cell{}, ThrowAt(nameCell.Pos(), KindInvalidType, "export: first operand must be a symbol")
	}
	value, err := it.eval(ops[1])
	if err != nil {
		return slp.Cell{}, err
	}
	it.scope.define(nameCell.SymbolName(), value)
	it.exported[nameCell.SymbolName()] = true
	return slp.NewNone(), nil
}

// fn: (fn (params…) :ret [body]). See spec §4.3 for the 7-step contract;
// this implements step 1-3 (validation and allocation), invocation (steps
// 4-7) lives in eval.go's invokeLambda.
func builtinFn_(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 3)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "fn requires exactly 3 operands")
	}
	paramsCell, retCell, bodyCell := ops[0], ops[1], ops[2]

	if paramsCell.Tag() != slp.ParenList {
		return slp.Cell{}, ThrowAt(paramsCell.Pos(), KindInvalidType, "fn: parameter list must be a paren list")
	}
	paramItems := paramsCell.Items()
	if len(paramItems)%2 != 0 {
		return slp.Cell{}, ThrowAt(paramsCell.Pos(), KindInvalidType, "fn: parameter list must be name/type pairs")
	}
	params := make([]Param, 0, len(paramItems)/2)
	for i := 0; i < len(paramItems); i += 2 {
		nameC, typeC := paramItems[i], paramItems[i+1]
		if nameC.Tag() != slp.Symbol || typeC.Tag() != slp.Symbol {
			return slp.Cell{}, ThrowAt(nameC.Pos(), KindInvalidType, "fn: parameter pair must be (name type-symbol)")
		}
		tag, sig, formName, ok := it.resolveTypeSymbol(typeC.SymbolName())
		if !ok {
			return slp.Cell{}, ThrowAt(typeC.Pos(), KindInvalidType, "fn: unrecognized type symbol %q", typeC.SymbolName())
		}
		params = append(params, Param{Name: nameC.SymbolName(), Type: tag, Sig: sig, FormName: formName})
	}

	if retCell.Tag() != slp.Symbol {
		return slp.Cell{}, ThrowAt(retCell.Pos(), KindInvalidType, "fn: return type must be a type symbol")
	}
	retTag, retSig, retFormName, ok := it.resolveTypeSymbol(retCell.SymbolName())
	if !ok {
		return slp.Cell{}, ThrowAt(retCell.Pos(), KindInvalidType, "fn: unrecognized type symbol %q", retCell.SymbolName())
	}

	if bodyCell.Tag() != slp.BracketList {
		return slp.Cell{}, ThrowAt(bodyCell.Pos(), KindInvalidType, "fn: body must be a bracket list")
	}

	rec := &lambdaRecord{
		Params:      params,
		Return:      retTag,
		RetSig:      retSig,
		RetFormName: retFormName,
		Body:        bodyCell,
		Owner:       it,
		Depth:       it.scope.topDepth(),
	}
	id := it.lambdas.allocate(rec)
	return slp.NewAberrant(id).WithPos(call.Pos()), nil
}

// if: (if cond then else). Truthiness is spec §4.5's rule: Integer(0) is
// the only falsy value.
func builtinIf(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 3)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "if requires exactly 3 operands")
	}
	cond, err := it.eval(ops[0])
	if err != nil {
		return slp.Cell{}, err
	}
	if cond.Truthy() {
		return it.eval(ops[1])
	}
	return it.eval(ops[2])
}

// match: (match scrutinee (pattern body)…). See spec §4.5/§4.9: patterns
// are literal Integer/Real/DqList/Symbol; a bound symbol pattern compares
// by its bound value, an unbound one compares by its own name. No match
// returns an Error cell rather than throwing (spec §8's exhaustiveness
// invariant).
func builtinMatch(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	items := call.Items()
	if len(items) < 3 {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "match requires a scrutinee and at least one arm")
	}
	scrutinee, err := it.eval(items[1])
	if err != nil {
		return slp.Cell{}, err
	}
	if scrutinee.Tag() == slp.Aberrant {
		return slp.Cell{}, ThrowAt(items[1].Pos(), KindTypeMismatch, "match: matching on an aberrant scrutinee is not supported")
	}

	for _, arm := range items[2:] {
		if arm.Tag() != slp.ParenList || arm.Len() != 2 {
			return slp.Cell{}, ThrowAt(arm.Pos(), KindInvalidType, "match: each arm must be (pattern body)")
		}
		pattern, _ := arm.At(0)
		body, _ := arm.At(1)
		patValue, ok := it.resolveMatchPattern(pattern)
		if !ok {
			continue
		}
		if patValue.Tag() == scrutinee.Tag() && slp.Equal(patValue, scrutinee) {
			return it.eval(body)
		}
	}
	return slp.NewError(slp.NewDqList(fmt.Sprintf("match: no arm matched %s", slp.Print(scrutinee)))).WithPos(call.Pos()), nil
}

// resolveMatchPattern implements "symbols resolve before compare if bound"
// (spec §4.5): a pattern symbol bound in scope compares by its value; an
// unbound one compares by its literal name.
func (it *Interpreter) resolveMatchPattern(pattern slp.Cell) (slp.Cell, bool) {
	switch pattern.Tag() {
	case slp.Integer, slp.Real, slp.DqList:
		return pattern, true
	case slp.Symbol:
		if v, ok := it.scope.lookup(pattern.SymbolName()); ok {
			return v, true
		}
		return pattern, true
	default:
		return slp.Cell{}, false
	}
}

// reflect: (reflect expr (:type body)…). Selects the first arm whose type
// symbol matches expr's runtime shape (spec §4.5).
func builtinReflect(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	items := call.Items()
	if len(items) < 3 {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "reflect requires an expression and at least one arm")
	}
	value, err := it.eval(items[1])
	if err != nil {
		return slp.Cell{}, err
	}
	for _, arm := range items[2:] {
		if arm.Tag() != slp.ParenList || arm.Len() != 2 {
			return slp.Cell{}, ThrowAt(arm.Pos(), KindInvalidType, "reflect: each arm must be (:type body)")
		}
		typeCell, _ := arm.At(0)
		body, _ := arm.At(1)
		if typeCell.Tag() != slp.Symbol {
			return slp.Cell{}, ThrowAt(typeCell.Pos(), KindInvalidType, "reflect: arm selector must be a type symbol")
		}
		tag, sig, formName, ok := it.resolveTypeSymbol(typeCell.SymbolName())
		if !ok {
			return slp.Cell{}, ThrowAt(typeCell.Pos(), KindInvalidType, "reflect: unrecognized type symbol %q", typeCell.SymbolName())
		}
		matched := false
		switch tag {
		case TForm:
			matched = it.matchesForm(formName, value)
		case TFn, TAberrant:
			matched = it.MatchesDeclaredType(tag, sig, value)
		default:
			actual, ok := TagOf(value.Tag())
			matched = ok && actual == tag
		}
		if matched {
			return it.eval(body)
		}
	}
	return slp.NewError(slp.NewDqList(fmt.Sprintf("reflect: no arm matched %s", value.Tag()))).WithPos(call.Pos()), nil
}

// recover: (recover [body] [handler]). Evaluate body; on thrown failure
// (not an Error cell result), push a frame binding $exception to the
// failure message and evaluate handler there (spec §4.5).
func builtinRecover(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 2)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "recover requires exactly 2 operands")
	}
	bodyCell, handlerCell := ops[0], ops[1]
	if bodyCell.Tag() != slp.BracketList || handlerCell.Tag() != slp.BracketList {
		return slp.Cell{}, ThrowAt(call.Pos(), KindInvalidType, "recover: both operands must be bracket lists")
	}

	result, err := it.evalSequence(bodyCell.Items())
	if err == nil {
		return result, nil
	}

	it.scope.push()
	it.scope.define("$exception", slp.NewDqList(err.Message))
	handlerResult, herr := it.evalSequence(handlerCell.Items())
	popped := it.scope.pop()
	it.lambdas.removeAtDepth(popped)
	return handlerResult, herr
}

// assert: (assert cond message). Cond must be Integer, message DqList
// (spec §4.5); zero throws AssertFailed carrying the message verbatim.
func builtinAssert(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 2)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "assert requires exactly 2 operands")
	}
	cond, err := it.eval(ops[0])
	if err != nil {
		return slp.Cell{}, err
	}
	if cond.Tag() != slp.Integer {
		return slp.Cell{}, ThrowAt(ops[0].Pos(), KindTypeMismatch, "assert: condition must be an integer")
	}
	msg, err := it.eval(ops[1])
	if err != nil {
		return slp.Cell{}, err
	}
	if msg.Tag() != slp.DqList {
		return slp.Cell{}, ThrowAt(ops[1].Pos(), KindTypeMismatch, "assert: message must be a string")
	}
	if cond.Int() == 0 {
		return slp.Cell{}, ThrowAt(call.Pos(), KindAssertFailed, "%s", msg.Str())
	}
	return slp.NewNone(), nil
}

// apply: (apply aberrant-expr brace-list-expr). Invokes the lambda with the
// brace list's elements as positional arguments (spec §4.5).
func builtinApply(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 2)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "apply requires exactly 2 operands")
	}
	callee, err := it.eval(ops[0])
	if err != nil {
		return slp.Cell{}, err
	}
	if callee.Tag() != slp.Aberrant {
		return slp.Cell{}, ThrowAt(ops[0].Pos(), KindTypeMismatch, "apply: first operand must be a lambda")
	}
	argList, err := it.eval(ops[1])
	if err != nil {
		return slp.Cell{}, err
	}
	if argList.Tag() != slp.BraceList {
		return slp.Cell{}, ThrowAt(ops[1].Pos(), KindTypeMismatch, "apply: second operand must be a brace list")
	}
	return it.invokeLambda(callee.LambdaID(), argList.Items(), call.Pos())
}

// at: (at index collection). Index must be Integer; lists return the
// element or an Error cell on out-of-bounds, DqList returns the byte at
// that position as an Integer (spec §4.5).
func builtinAt(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 2)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "at requires exactly 2 operands")
	}
	idxCell, err := it.eval(ops[0])
	if err != nil {
		return slp.Cell{}, err
	}
	if idxCell.Tag() != slp.Integer {
		return slp.Cell{}, ThrowAt(ops[0].Pos(), KindTypeMismatch, "at: index must be an integer")
	}
	coll, err := it.eval(ops[1])
	if err != nil {
		return slp.Cell{}, err
	}
	idx := int(idxCell.Int())

	switch coll.Tag() {
	case slp.ParenList, slp.BracketList, slp.BraceList:
		v, ok := coll.At(idx)
		if !ok {
			return slp.NewError(slp.NewDqList("at: index out of bounds")).WithPos(call.Pos()), nil
		}
		return v, nil
	case slp.DqList:
		s := coll.Str()
		if idx < 0 || idx >= len(s) {
			return slp.NewError(slp.NewDqList("at: index out of bounds")).WithPos(call.Pos()), nil
		}
		return slp.NewInteger(int64(s[idx])).WithPos(call.Pos()), nil
	default:
		return slp.Cell{}, ThrowAt(ops[1].Pos(), KindTypeMismatch, "at: collection must be a list or string")
	}
}

// cast: (cast :type expr). A checker-level retag; at runtime it verifies
// the structural match and passes the value through unchanged (spec §4.5,
// §9 Open Question 2 resolution: a shape mismatch throws InvalidType).
func builtinCast(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 2)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "cast requires exactly 2 operands")
	}
	typeCell, exprCell := ops[0], ops[1]
	if typeCell.Tag() != slp.Symbol {
		return slp.Cell{}, ThrowAt(typeCell.Pos(), KindInvalidType, "cast: first operand must be a type symbol")
	}
	value, err := it.eval(exprCell)
	if err != nil {
		return slp.Cell{}, err
	}
	tag, sig, formName, ok := it.resolveTypeSymbol(typeCell.SymbolName())
	if !ok {
		return slp.Cell{}, ThrowAt(typeCell.Pos(), KindInvalidType, "cast: unrecognized type symbol %q", typeCell.SymbolName())
	}
	var matches bool
	switch tag {
	case TForm:
		matches = it.matchesForm(formName, value)
	default:
		matches = it.MatchesDeclaredType(tag, sig, value)
	}
	if !matches {
		return slp.Cell{}, ThrowAt(call.Pos(), KindInvalidType, "cast: value does not match %s", typeCell.SymbolName())
	}
	return value, nil
}

// debug: variadic. Prints each argument's printed form to Stdout, space
// separated, and returns Integer(0) (spec §4.5).
func builtinDebug(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	items := call.Items()[1:]
	parts := make([]string, len(items))
	for i, item := range items {
		v, err := it.eval(item)
		if err != nil {
			return slp.Cell{}, err
		}
		parts[i] = slp.Print(v)
	}
	it.writeStdout(joinSpace(parts) + "\n")
	return slp.NewInteger(0).WithPos(call.Pos()), nil
}

func joinSpace(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

// eval: (eval expr). expr must be a DqList; it is parsed as a cell and
// evaluated in the current scope (spec §4.5).
func builtinEval(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 1)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "eval requires exactly 1 operand")
	}
	src, err := it.eval(ops[0])
	if err != nil {
		return slp.Cell{}, err
	}
	if src.Tag() != slp.DqList {
		return slp.Cell{}, ThrowAt(ops[0].Pos(), KindEvalRequiresString, "eval: operand must evaluate to a string")
	}
	result := slp.Parse(src.Str())
	if result.Err != nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindParseError, "%s", result.Err.Message)
	}
	return it.evalSequence(result.Object.Items())
}

// try: (try expr1 expr2). Evaluate expr1; on a thrown failure, evaluate and
// return expr2 instead (spec §4.5). Unlike recover, try has no access to
// the failure's message.
func builtinTry(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 2)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "try requires exactly 2 operands")
	}
	v, err := it.eval(ops[0])
	if err == nil {
		return v, nil
	}
	return it.eval(ops[1])
}
