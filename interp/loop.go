package interp

import "github.com/slp-lang/slp/slp"

// builtinDo implements `(do [body])` (spec §4.5): push a loop frame and
// evaluate the body repeatedly, each pass in its own pushed scope binding
// `$iterations` (1-based at the user-visible surface, spec §9's Open
// Question 3 resolution), until `done` marks the loop frame exited. There
// is no other way out — an infinite loop whose body never calls `done`
// never returns, matching the source material's exception-based original.
func builtinDo(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 1)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "do requires exactly 1 operand")
	}
	bodyCell := ops[0]
	if bodyCell.Tag() != slp.BracketList {
		return slp.Cell{}, ThrowAt(bodyCell.Pos(), KindInvalidType, "do: operand must be a bracket list")
	}

	lf := &loopFrame{}
	it.loops = append(it.loops, lf)
	defer func() {
		it.loops = it.loops[:len(it.loops)-1]
	}()

	for {
		it.scope.push()
		it.scope.define("$iterations", slp.NewInteger(lf.iteration+1))
		_, err := it.evalSequence(bodyCell.Items())
		popped := it.scope.pop()
		it.lambdas.removeAtDepth(popped)

		if err != nil {
			return slp.Cell{}, err
		}
		if lf.exited {
			return lf.doneValue, nil
		}
		lf.iteration++
	}
}

// builtinDone implements `done` (spec §4.5): evaluates its argument, records
// it as the innermost active `do`'s return value, and marks that loop
// exited. Outside any `do`, it throws DoneOutsideLoop (spec §8's scoping
// invariant).
func builtinDone(it *Interpreter, call slp.Cell) (slp.Cell, *Failure) {
	ops := arity(call, 1)
	if ops == nil {
		return slp.Cell{}, ThrowAt(call.Pos(), KindArityMismatch, "done requires exactly 1 operand")
	}
	if len(it.loops) == 0 {
		return slp.Cell{}, ThrowAt(call.Pos(), KindDoneOutsideLoop, "done used outside of a do loop")
	}
	value, err := it.eval(ops[0])
	if err != nil {
		return slp.Cell{}, err
	}
	lf := it.loops[len(it.loops)-1]
	lf.doneValue = value
	lf.exited = true
	return value, nil
}
