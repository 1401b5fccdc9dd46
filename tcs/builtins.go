package tcs

import (
	"github.com/slp-lang/slp/interp"
	"github.com/slp-lang/slp/slp"
)

// builtinCheckers mirrors interp.builtins' operator table (spec §4.6):
// the same 17 names, each routed here instead of to an evaluator so the
// checker can compute a TypeInfo for every builtin form without ever
// calling it.
var builtinCheckers = map[string]func(c *Checker, call slp.Cell) TypeInfo{
	"def":     (*Checker).checkDef,
	"set":     (*Checker).checkSet,
	"fn":      (*Checker).checkFn,
	"if":      (*Checker).checkIf,
	"match":   (*Checker).checkMatch,
	"reflect": (*Checker).checkReflect,
	"recover": (*Checker).checkRecover,
	"assert":  (*Checker).checkAssert,
	"apply":   (*Checker).checkApply,
	"do":      (*Checker).checkDo,
	"done":    (*Checker).checkDone,
	"at":      (*Checker).checkAt,
	"cast":    (*Checker).checkCast,
	"debug":   (*Checker).checkDebug,
	"eval":    (*Checker).checkEval,
	"try":     (*Checker).checkTry,
	"export":  (*Checker).checkExport,
}

// checkDef implements the checker's "rejects use-before-define and
// redefinition in the same scope" invariant: unlike interp's builtinDef,
// which shares one implementation between def and set because scope.define
// always overwrites at runtime, the checker treats def strictly as a
// FIRST binding, flagging a second def of the same name in the same frame
// as a redefinition. set (checkSet) performs no such check, since its
// purpose is to rebind an existing name.
func (c *Checker) checkDef(call slp.Cell) TypeInfo {
	ops := arity(call, 2)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "def/set requires exactly 2 operands")
		return none()
	}
	nameCell := ops[0]
	if nameCell.Tag() != slp.Symbol {
		c.errorAt(nameCell.Pos(), "type_error", "def/set: first operand must be a symbol")
		return none()
	}
	valueType := c.checkExpr(ops[1])
	name := nameCell.SymbolName()
	if c.scope.has(name, true) {
		c.errorAt(nameCell.Pos(), "redefinition", "%q is already defined in this scope", name)
	}
	c.scope.define(name, valueType)
	return none()
}

func (c *Checker) checkSet(call slp.Cell) TypeInfo {
	ops := arity(call, 2)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "def/set requires exactly 2 operands")
		return none()
	}
	nameCell := ops[0]
	if nameCell.Tag() != slp.Symbol {
		c.errorAt(nameCell.Pos(), "type_error", "def/set: first operand must be a symbol")
		return none()
	}
	valueType := c.checkExpr(ops[1])
	c.scope.define(nameCell.SymbolName(), valueType)
	return none()
}

// checkExport mirrors builtinExport: a def that also marks the name visible
// to importers, recorded under its runtime-evaluated type so a checker
// importing this file can type-check calls against it (checkPrefixedCall).
func (c *Checker) checkExport(call slp.Cell) TypeInfo {
	ops := arity(call, 2)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "export requires exactly 2 operands")
		return none()
	}
	nameCell := ops[0]
	if nameCell.Tag() != slp.Symbol {
		c.errorAt(nameCell.Pos(), "type_error", "export: first operand must be a symbol")
		return none()
	}
	valueType := c.checkExpr(ops[1])
	name := nameCell.SymbolName()
	if c.scope.has(name, true) {
		c.errorAt(nameCell.Pos(), "redefinition", "%q is already defined in this scope", name)
	}
	c.scope.define(name, valueType)
	c.exported[name] = valueType
	return none()
}

// checkFn implements spec §4.3 steps 1-3 statically: validates the
// parameter list and declared return type, checks the body in a pushed
// scope with parameters bound to their declared types, and flags a body
// whose inferred type is incompatible with the declared return type
// (spec §8's explicit "return type mismatch" rejection case). A
// lambdaSignature is recorded so later calls can be arity/type-checked
// against it (checkInvocation, checkPrefixedCall).
func (c *Checker) checkFn(call slp.Cell) TypeInfo {
	ops := arity(call, 3)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "fn requires exactly 3 operands")
		return none()
	}
	paramsCell, retCell, bodyCell := ops[0], ops[1], ops[2]

	if paramsCell.Tag() != slp.ParenList {
		c.errorAt(paramsCell.Pos(), "type_error", "fn: parameter list must be a paren list")
		return none()
	}
	paramItems := paramsCell.Items()
	if len(paramItems)%2 != 0 {
		c.errorAt(paramsCell.Pos(), "type_error", "fn: parameter list must be name/type pairs")
		return none()
	}
	params := make([]interp.Param, 0, len(paramItems)/2)
	for i := 0; i < len(paramItems); i += 2 {
		nameC, typeC := paramItems[i], paramItems[i+1]
		if nameC.Tag() != slp.Symbol || typeC.Tag() != slp.Symbol {
			c.errorAt(nameC.Pos(), "type_error", "fn: parameter pair must be (name type-symbol)")
			return none()
		}
		ti, sig, ok := c.resolveTypeSymbol(typeC.SymbolName())
		if !ok {
			c.errorAt(typeC.Pos(), "type_error", "fn: unrecognized type symbol %q", typeC.SymbolName())
			return none()
		}
		params = append(params, interp.Param{Name: nameC.SymbolName(), Type: ti.Base, Sig: sig, FormName: ti.FormName})
	}

	if retCell.Tag() != slp.Symbol {
		c.errorAt(retCell.Pos(), "type_error", "fn: return type must be a type symbol")
		return none()
	}
	retTI, _, ok := c.resolveTypeSymbol(retCell.SymbolName())
	if !ok {
		c.errorAt(retCell.Pos(), "type_error", "fn: unrecognized type symbol %q", retCell.SymbolName())
		return none()
	}

	if bodyCell.Tag() != slp.BracketList {
		c.errorAt(bodyCell.Pos(), "type_error", "fn: body must be a bracket list")
		return none()
	}

	c.scope.push()
	for _, p := range params {
		c.scope.define(p.Name, paramTypeInfo(p))
	}
	bodyType := c.checkSequence(bodyCell.Items())
	popped := c.scope.pop()
	removeAtDepth(c.lambdas, popped)

	returnMatches := retTI.compatible(bodyType)
	if retTI.Base == interp.TForm {
		// A literal brace list's element types aren't individually tracked
		// (checkExpr(BraceList) always reports :list-c), so a form-typed
		// return can only be statically refuted, not statically confirmed:
		// accept any body type except one we positively know disagrees.
		returnMatches = c.formMatchesStatic(retTI.FormName, bodyType) || bodyType.Base == interp.TListC
	}
	if !returnMatches {
		c.errorAt(bodyCell.Pos(), "type_error", "fn: declared return type %s does not match body type %s", retTI, bodyType)
	}

	id := c.lambdas.allocate(&lambdaSignature{Params: params, Return: retTI})
	return TypeInfo{Base: interp.TAberrant, LambdaID: id, LambdaKnown: true}
}

// removeAtDepth is a no-op placeholder: lambdaTypeTable entries are never
// depth-scoped the way interp's lambdaTable is, because a checker never
// re-runs a scope at the same depth twice (no loops re-execute during
// checking) so there is nothing to reclaim. Kept as a named call site to
// keep checkFn/checkRecover/checkDo textually parallel to their eval.go
// counterparts.
func removeAtDepth(lt *lambdaTypeTable, depth int) { _ = depth }

// checkIf mirrors builtinIf: cond must be :int, the two branches must
// agree (spec §8's "branch type mismatch" rejection case), result is the
// unified branch type.
func (c *Checker) checkIf(call slp.Cell) TypeInfo {
	ops := arity(call, 3)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "if requires exactly 3 operands")
		return none()
	}
	condType := c.checkExpr(ops[0])
	if !condType.compatible(of(interp.TInt)) {
		c.errorAt(ops[0].Pos(), "type_error", "if: condition must be :int, got %s", condType)
	}
	thenType := c.checkExpr(ops[1])
	elseType := c.checkExpr(ops[2])
	if !thenType.compatible(elseType) {
		c.errorAt(call.Pos(), "type_error", "if: branches disagree: %s vs %s", thenType, elseType)
	}
	return unify(thenType, elseType)
}

// checkMatch mirrors builtinMatch: each arm is (pattern body) with a
// literal Integer/Real/DqList/Symbol pattern; arm bodies must mutually
// agree, since match always returns from whichever arm is taken (an
// unmatched scrutinee instead returns an Error cell at runtime, which
// TypeInfo has no union to express — spec §4.7 only requires static
// agreement among the arms actually present).
func (c *Checker) checkMatch(call slp.Cell) TypeInfo {
	items := call.Items()
	if len(items) < 3 {
		c.errorAt(call.Pos(), "arity_error", "match requires a scrutinee and at least one arm")
		return none()
	}
	c.checkExpr(items[1])
	result := none()
	for _, arm := range items[2:] {
		if arm.Tag() != slp.ParenList || arm.Len() != 2 {
			c.errorAt(arm.Pos(), "type_error", "match: each arm must be (pattern body)")
			continue
		}
		pattern, _ := arm.At(0)
		body, _ := arm.At(1)
		switch pattern.Tag() {
		case slp.Integer, slp.Real, slp.DqList, slp.Symbol:
		default:
			c.errorAt(pattern.Pos(), "type_error", "match: pattern must be a literal or symbol")
		}
		bodyType := c.checkExpr(body)
		if !result.compatible(bodyType) {
			c.errorAt(body.Pos(), "type_error", "match: arm type %s disagrees with %s", bodyType, result)
		}
		result = unify(result, bodyType)
	}
	return result
}

// checkReflect mirrors builtinReflect: each arm selector must be a
// recognized type symbol (base type, :fn<...>, or a declared form); arm
// bodies must mutually agree the same way match's do.
func (c *Checker) checkReflect(call slp.Cell) TypeInfo {
	items := call.Items()
	if len(items) < 3 {
		c.errorAt(call.Pos(), "arity_error", "reflect requires an expression and at least one arm")
		return none()
	}
	c.checkExpr(items[1])
	result := none()
	for _, arm := range items[2:] {
		if arm.Tag() != slp.ParenList || arm.Len() != 2 {
			c.errorAt(arm.Pos(), "type_error", "reflect: each arm must be (:type body)")
			continue
		}
		typeCell, _ := arm.At(0)
		body, _ := arm.At(1)
		if typeCell.Tag() != slp.Symbol {
			c.errorAt(typeCell.Pos(), "type_error", "reflect: arm selector must be a type symbol")
			continue
		}
		if _, _, ok := c.resolveTypeSymbol(typeCell.SymbolName()); !ok {
			c.errorAt(typeCell.Pos(), "type_error", "reflect: unrecognized type symbol %q", typeCell.SymbolName())
		}
		bodyType := c.checkExpr(body)
		if !result.compatible(bodyType) {
			c.errorAt(body.Pos(), "type_error", "reflect: arm type %s disagrees with %s", bodyType, result)
		}
		result = unify(result, bodyType)
	}
	return result
}

// checkRecover mirrors builtinRecover: both operands must be bracket
// lists; the handler arm runs in a pushed scope binding $exception to
// :str. The two arms' types need not agree, since at runtime exactly one
// of them executes and recover returns whichever ran — but a caller
// still needs a single static type, so the result is unified the same
// way if's branches are.
func (c *Checker) checkRecover(call slp.Cell) TypeInfo {
	ops := arity(call, 2)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "recover requires exactly 2 operands")
		return none()
	}
	bodyCell, handlerCell := ops[0], ops[1]
	if bodyCell.Tag() != slp.BracketList || handlerCell.Tag() != slp.BracketList {
		c.errorAt(call.Pos(), "type_error", "recover: both operands must be bracket lists")
		return none()
	}
	bodyType := c.checkSequence(bodyCell.Items())

	c.scope.push()
	c.scope.define("$exception", of(interp.TStr))
	handlerType := c.checkSequence(handlerCell.Items())
	popped := c.scope.pop()
	removeAtDepth(c.lambdas, popped)

	return unify(bodyType, handlerType)
}

// checkAssert mirrors builtinAssert: cond must be :int, message :str.
func (c *Checker) checkAssert(call slp.Cell) TypeInfo {
	ops := arity(call, 2)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "assert requires exactly 2 operands")
		return none()
	}
	condType := c.checkExpr(ops[0])
	if !condType.compatible(of(interp.TInt)) {
		c.errorAt(ops[0].Pos(), "type_error", "assert: condition must be :int, got %s", condType)
	}
	msgType := c.checkExpr(ops[1])
	if !msgType.compatible(of(interp.TStr)) {
		c.errorAt(ops[1].Pos(), "type_error", "assert: message must be :str, got %s", msgType)
	}
	return none()
}

// checkApply mirrors builtinApply: the callee must be :aberrant with a
// known lambda signature, and the argument list must be a literal brace
// list so each element's static type can be checked against the
// recorded parameter types (an apply over a non-literal brace-list
// expression is accepted but cannot be arity/type-checked, since its
// element count is not known statically).
func (c *Checker) checkApply(call slp.Cell) TypeInfo {
	ops := arity(call, 2)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "apply requires exactly 2 operands")
		return none()
	}
	calleeType := c.checkExpr(ops[0])
	if calleeType.Base != interp.TNone && calleeType.Base != interp.TAberrant {
		c.errorAt(ops[0].Pos(), "type_error", "apply: first operand must be a lambda, got %s", calleeType)
	}
	if ops[1].Tag() != slp.BraceList {
		argType := c.checkExpr(ops[1])
		if !argType.compatible(of(interp.TListC)) {
			c.errorAt(ops[1].Pos(), "type_error", "apply: second operand must be a brace list, got %s", argType)
		}
		return none()
	}
	argExprs := ops[1].Items()
	argTypes := make([]TypeInfo, len(argExprs))
	for i, e := range argExprs {
		argTypes[i] = c.checkExpr(e)
	}
	if !calleeType.LambdaKnown {
		return none()
	}
	rec, ok := c.lambdas.get(calleeType.LambdaID)
	if !ok {
		return none()
	}
	if len(argExprs) != len(rec.Params) {
		c.errorAt(call.Pos(), "arity_error", "apply: expected %d argument(s), got %d", len(rec.Params), len(argExprs))
		return rec.Return
	}
	for i, p := range rec.Params {
		want := paramTypeInfo(p)
		if !want.compatible(argTypes[i]) {
			c.errorAt(argExprs[i].Pos(), "type_error", "apply: argument %d: expected %s, got %s", i+1, want, argTypes[i])
		}
	}
	return rec.Return
}

// checkDo mirrors builtinDo's static half: the body is checked once (not
// repeated, since checking never executes), in a pushed scope binding
// $iterations to :int. A loopCheckFrame records the unified type of every
// `done` lexically reachable in the body, becoming do's own result type —
// a do whose body never calls done reports :none, matching a loop with no
// statically-reachable exit value.
func (c *Checker) checkDo(call slp.Cell) TypeInfo {
	ops := arity(call, 1)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "do requires exactly 1 operand")
		return none()
	}
	bodyCell := ops[0]
	if bodyCell.Tag() != slp.BracketList {
		c.errorAt(bodyCell.Pos(), "type_error", "do: operand must be a bracket list")
		return none()
	}

	lf := &loopCheckFrame{doneType: none()}
	c.loops = append(c.loops, lf)

	c.scope.push()
	c.scope.define("$iterations", of(interp.TInt))
	c.checkSequence(bodyCell.Items())
	popped := c.scope.pop()
	removeAtDepth(c.lambdas, popped)

	c.loops = c.loops[:len(c.loops)-1]
	if !lf.sawDone {
		return none()
	}
	return lf.doneType
}

// checkDone mirrors builtinDone: requires an enclosing do; folds its
// operand's type into that do's recorded result type.
func (c *Checker) checkDone(call slp.Cell) TypeInfo {
	ops := arity(call, 1)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "done requires exactly 1 operand")
		return none()
	}
	if len(c.loops) == 0 {
		c.errorAt(call.Pos(), "scope_error", "done used outside of a do loop")
		c.checkExpr(ops[0])
		return none()
	}
	valueType := c.checkExpr(ops[0])
	lf := c.loops[len(c.loops)-1]
	if lf.sawDone && !lf.doneType.compatible(valueType) {
		c.errorAt(ops[0].Pos(), "type_error", "done: type %s disagrees with earlier done type %s", valueType, lf.doneType)
	}
	lf.doneType = unify(lf.doneType, valueType)
	lf.sawDone = true
	return valueType
}

// checkAt mirrors builtinAt: index must be :int; list collections return
// :none (their element type is not tracked statically); :str returns
// :int (a byte value); anything else is a type error.
func (c *Checker) checkAt(call slp.Cell) TypeInfo {
	ops := arity(call, 2)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "at requires exactly 2 operands")
		return none()
	}
	idxType := c.checkExpr(ops[0])
	if !idxType.compatible(of(interp.TInt)) {
		c.errorAt(ops[0].Pos(), "type_error", "at: index must be :int, got %s", idxType)
	}
	collType := c.checkExpr(ops[1])
	switch collType.Base {
	case interp.TListP, interp.TListB, interp.TListC, interp.TNone:
		return none()
	case interp.TStr:
		return of(interp.TInt)
	default:
		c.errorAt(ops[1].Pos(), "type_error", "at: collection must be a list or string, got %s", collType)
		return none()
	}
}

// checkCast mirrors builtinCast: the declared type must be recognized;
// when it names a form, the cast expression must either already carry that
// form's static type or be a :list-c brace list (whose elements cannot be
// verified field-by-field without evaluating it, so it is accepted and left
// to the runtime shape check, the same way checkFn treats a form return);
// otherwise the expression's type must be compatible with the declared type.
func (c *Checker) checkCast(call slp.Cell) TypeInfo {
	ops := arity(call, 2)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "cast requires exactly 2 operands")
		return none()
	}
	typeCell, exprCell := ops[0], ops[1]
	if typeCell.Tag() != slp.Symbol {
		c.errorAt(typeCell.Pos(), "type_error", "cast: first operand must be a type symbol")
		return none()
	}
	exprType := c.checkExpr(exprCell)
	declared, _, ok := c.resolveTypeSymbol(typeCell.SymbolName())
	if !ok {
		c.errorAt(typeCell.Pos(), "type_error", "cast: unrecognized type symbol %q", typeCell.SymbolName())
		return none()
	}
	if declared.Base == interp.TForm {
		if !c.formMatchesStatic(declared.FormName, exprType) && exprType.Base != interp.TListC {
			c.errorAt(call.Pos(), "type_error", "cast: value does not match %s", typeCell.SymbolName())
		}
		return declared
	}
	if !declared.compatible(exprType) {
		c.errorAt(call.Pos(), "type_error", "cast: value does not match %s", typeCell.SymbolName())
	}
	return declared
}

// checkDebug mirrors builtinDebug: variadic, always returns :int.
func (c *Checker) checkDebug(call slp.Cell) TypeInfo {
	for _, item := range call.Items()[1:] {
		c.checkExpr(item)
	}
	return of(interp.TInt)
}

// checkEval mirrors builtinEval: operand must be :str; the parsed program
// is opaque to static analysis (spec §4.7: "eval's result is :none —
// unknown at static time"), so the result is always :none.
func (c *Checker) checkEval(call slp.Cell) TypeInfo {
	ops := arity(call, 1)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "eval requires exactly 1 operand")
		return none()
	}
	srcType := c.checkExpr(ops[0])
	if !srcType.compatible(of(interp.TStr)) {
		c.errorAt(ops[0].Pos(), "type_error", "eval: operand must be :str, got %s", srcType)
	}
	return none()
}

// checkTry mirrors builtinTry: both operands are checked; since exactly
// one runs at runtime, the result is the unified type of the two,
// matching recover's treatment.
func (c *Checker) checkTry(call slp.Cell) TypeInfo {
	ops := arity(call, 2)
	if ops == nil {
		c.errorAt(call.Pos(), "arity_error", "try requires exactly 2 operands")
		return none()
	}
	a := c.checkExpr(ops[0])
	b := c.checkExpr(ops[1])
	return unify(a, b)
}
