package interp

import (
	"go/token"
	"strings"

	"github.com/slp-lang/slp/slp"
)

// eval is the single dispatch point every other file in this package routes
// through: a switch over SLP's cell tags directly, since SLP has no separate
// compile step to dispatch over instead.
func (it *Interpreter) eval(c slp.Cell) (slp.Cell, *Failure) {
	switch c.Tag() {
	case slp.Integer, slp.Real, slp.DqList, slp.Rune, slp.None, slp.Some,
		slp.ErrorTag, slp.Aberrant, slp.Environment:
		// Self-evaluating: a Some cell is a quoted/suspended value and must
		// not be unwrapped (spec §3); Error cells are data, never promoted.
		return c, nil

	case slp.Symbol:
		if v, ok := it.scope.lookup(c.SymbolName()); ok {
			return v, nil
		}
		return slp.Cell{}, ThrowAt(c.Pos(), KindUnknownSymbol, "unknown symbol %q", c.SymbolName())

	case slp.Datum:
		return it.evalDatum(c)

	case slp.BracketList:
		return it.evalSequence(c.Items())

	case slp.BraceList:
		// A brace list not consumed by `apply`/`cast` is a literal list
		// value: each element evaluates in place, the results collected.
		return it.evalBraceLiteral(c)

	case slp.ParenList:
		return it.evalCall(c)

	default:
		return slp.Cell{}, ThrowAt(c.Pos(), KindTypeMismatch, "cannot evaluate a cell of tag %s", c.Tag())
	}
}

// evalSequence evaluates items in order in the CURRENT scope (no frame is
// pushed here; callers that need a fresh frame for a block — fn invocation,
// each `do` pass, `recover`'s handler arm — push it themselves before
// calling this). It returns None for an empty sequence, and stops early if
// an active `do` has just been exited by `done` (so statements following a
// `done` in the same block never run).
func (it *Interpreter) evalSequence(items []slp.Cell) (slp.Cell, *Failure) {
	result := slp.NewNone()
	for _, item := range items {
		v, err := it.eval(item)
		if err != nil {
			return slp.Cell{}, err
		}
		result = v
		if it.innermostLoopExited() {
			break
		}
	}
	return result, nil
}

func (it *Interpreter) innermostLoopExited() bool {
	if len(it.loops) == 0 {
		return false
	}
	return it.loops[len(it.loops)-1].exited
}

func (it *Interpreter) evalBraceLiteral(c slp.Cell) (slp.Cell, *Failure) {
	items := c.Items()
	out := make([]slp.Cell, len(items))
	for i, item := range items {
		v, err := it.eval(item)
		if err != nil {
			return slp.Cell{}, err
		}
		out[i] = v
	}
	return slp.NewBraceList(out).WithPos(c.Pos()), nil
}

// evalCall dispatches a ParenList being evaluated as a call: `(head arg…)`.
// Resolution order (spec §4.6) is slash-prefixed name → builtin → scope
// (expecting an Aberrant to invoke).
func (it *Interpreter) evalCall(c slp.Cell) (slp.Cell, *Failure) {
	items := c.Items()
	if len(items) == 0 {
		return c, nil // an empty "()" is just a literal empty list
	}
	head := items[0]

	if head.Tag() == slp.Symbol {
		name := head.SymbolName()
		if prefix, rest, ok := splitPrefixed(name); ok {
			return it.evalPrefixedCall(c, prefix, rest)
		}
		if fn, ok := builtins[name]; ok {
			return fn(it, c)
		}
		if v, ok := it.scope.lookup(name); ok {
			return it.invokeCallee(c, v, items[1:])
		}
		return slp.Cell{}, ThrowAt(head.Pos(), KindUnknownSymbol, "unknown symbol %q", name)
	}

	callee, err := it.eval(head)
	if err != nil {
		return slp.Cell{}, err
	}
	return it.invokeCallee(c, callee, items[1:])
}

func splitPrefixed(name string) (prefix, rest string, ok bool) {
	idx := strings.IndexByte(name, '/')
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// invokeCallee implements spec §4.3's invocation steps 1-7 for a callee that
// has already been resolved to a value (as opposed to a slash call, which
// resolves through import/kernel registries instead of a lambda record).
func (it *Interpreter) invokeCallee(call slp.Cell, callee slp.Cell, argExprs []slp.Cell) (slp.Cell, *Failure) {
	if callee.Tag() != slp.Aberrant {
		return slp.Cell{}, ThrowAt(call.Pos(), KindTypeMismatch, "value is not callable")
	}
	args := make([]slp.Cell, len(argExprs))
	for i, expr := range argExprs {
		v, err := it.eval(expr)
		if err != nil {
			return slp.Cell{}, err
		}
		args[i] = v
	}
	return it.invokeLambda(callee.LambdaID(), args, call.Pos())
}

// invokeLambda runs the body of the lambda identified by id against
// already-evaluated args, in the lambda's OWNING interpreter (which differs
// from it when the lambda crossed an import boundary), per spec §4.3 step 4.
func (it *Interpreter) invokeLambda(id uint64, args []slp.Cell, pos token.Pos) (slp.Cell, *Failure) {
	rec, ok := it.lambdas.Get(id)
	if !ok {
		return slp.Cell{}, ThrowAt(pos, KindLambdaInvalidated, "lambda %d has been invalidated", id)
	}
	if len(args) != len(rec.Params) {
		return slp.Cell{}, ThrowAt(pos, KindArityMismatch, "expected %d argument(s), got %d", len(rec.Params), len(args))
	}
	for i, p := range rec.Params {
		if !rec.Owner.matchesParam(p, args[i]) {
			return slp.Cell{}, ThrowAt(pos, KindTypeMismatch,
				"argument %d: expected %s, got %s", i+1, p.Type, args[i].Tag())
		}
	}

	owner := rec.Owner
	owner.scope.push()
	for i, p := range rec.Params {
		owner.scope.define(p.Name, args[i])
	}
	result, err := owner.evalSequence(rec.Body.Items())
	poppedDepth := owner.scope.pop()
	owner.lambdas.removeAtDepth(poppedDepth)

	if err != nil {
		return slp.Cell{}, err
	}
	if !owner.matchesReturn(rec, result) {
		return slp.Cell{}, ThrowAt(pos, KindReturnTypeMismatch,
			"expected return type %s, got %s", rec.Return, result.Tag())
	}
	return result, nil
}

func (it *Interpreter) matchesParam(p Param, value slp.Cell) bool {
	if p.Type == TForm {
		return it.matchesForm(p.FormName, value)
	}
	return it.MatchesDeclaredType(p.Type, p.Sig, value)
}

func (it *Interpreter) matchesReturn(rec *lambdaRecord, value slp.Cell) bool {
	if rec.Return == TForm {
		return it.matchesForm(rec.RetFormName, value)
	}
	return it.MatchesDeclaredType(rec.Return, rec.RetSig, value)
}

// copyAcrossBoundary deep-copies a cell crossing an import boundary by
// serializing through the parser/printer contract (spec §5), which is the
// only mechanism SLP has for moving a value between two interpreter
// instances without aliasing. Aberrant cells do not round-trip through Print
// and Error cells are outside the round-trip guarantee (spec §4.1), so both
// cross by value unchanged instead: an
// Aberrant crossing a boundary keeps pointing at its owning interpreter's
// lambda table, which is exactly the semantics exported lambdas need.
func copyAcrossBoundary(c slp.Cell) slp.Cell {
	if c.Tag() == slp.Aberrant || c.Tag() == slp.ErrorTag {
		return c
	}
	printed := slp.Print(c)
	result := slp.Parse(printed)
	if result.Err != nil || result.Object.Len() != 1 {
		return c
	}
	cp, _ := result.Object.At(0)
	return cp
}
