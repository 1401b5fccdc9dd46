package interp

import (
	"strings"
	"testing"

	"github.com/slp-lang/slp/slp"
)

func mustEval(t *testing.T, it *Interpreter, src string) slp.Cell {
	t.Helper()
	v, err := it.Eval(src)
	if err != nil {
		t.Fatalf("Eval(%q): unexpected error: %v", src, err)
	}
	return v
}

func global(t *testing.T, it *Interpreter, name string) slp.Cell {
	t.Helper()
	v, ok := it.scope.lookup(name)
	if !ok {
		t.Fatalf("expected %q to be bound in global scope", name)
	}
	return v
}

// Scenario 1: if selects the true branch.
func TestScenarioIf(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def result (if 1 42 99))]`)
	r := global(t, it, "result")
	if r.Tag() != slp.Integer || r.Int() != 42 {
		t.Errorf("result = %v, want Integer 42", r)
	}
}

// Scenario 2: apply invokes a lambda with brace-list arguments.
func TestScenarioApply(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def add (fn (a :int b :int) :int [42])) (def r (apply add {1 2}))]`)
	r := global(t, it, "r")
	if r.Tag() != slp.Integer || r.Int() != 42 {
		t.Errorf("r = %v, want Integer 42", r)
	}
}

// Scenario 3: do/done returns the signaled value and leaves no loop frame.
func TestScenarioDoDone(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def r (do [(done 7)]))]`)
	r := global(t, it, "r")
	if r.Tag() != slp.Integer || r.Int() != 7 {
		t.Errorf("r = %v, want Integer 7", r)
	}
	if len(it.loops) != 0 {
		t.Errorf("expected no remaining loop frame, got %d", len(it.loops))
	}
}

// Scenario 4: scope discipline — the lambda's local binding does not leak,
// but the lambda's own global binding survives the call.
func TestScenarioScopeDiscipline(t *testing.T) {
	it := New(Options{})
	it.Eval(`[(def fn1 (fn () :int [(def inner 1)])) (fn1)]`)
	if !it.HasSymbol("fn1", false) {
		t.Error(`expected has("fn1") to be true`)
	}
	if it.HasSymbol("inner", false) {
		t.Error(`expected has("inner") to be false`)
	}
}

// Scenario 5: $iterations is 1-based at the user-visible surface.
func TestScenarioIterationsOneBased(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def x 999) (def r (do [(done $iterations)]))]`)
	r := global(t, it, "r")
	if r.Tag() != slp.Integer || r.Int() != 1 {
		t.Errorf("r = %v, want Integer 1", r)
	}
}

// Scenario 6: match picks the exact-value arm.
func TestScenarioMatch(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def r (match 50 (10 "a") (20 "b") (50 "c")))]`)
	r := global(t, it, "r")
	if r.Tag() != slp.DqList || r.Str() != "c" {
		t.Errorf("r = %v, want DqList \"c\"", r)
	}
}

// Scenario 7: reflect picks the arm matching the runtime tag.
func TestScenarioReflect(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def r (reflect 3.14 (:int 100) (:real 200)))]`)
	r := global(t, it, "r")
	if r.Tag() != slp.Integer || r.Int() != 200 {
		t.Errorf("r = %v, want Integer 200", r)
	}
}

// Scenario 8: recover binds $exception to the thrown message.
func TestScenarioRecover(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def r (recover [(assert 0 "boom") 0] [$exception]))]`)
	r := global(t, it, "r")
	if r.Tag() != slp.DqList || r.Str() != "boom" {
		t.Errorf("r = %v, want DqList \"boom\"", r)
	}
}

// Scenario 9: match exhaustiveness — no arm matches produces an Error cell,
// not a thrown failure.
func TestScenarioMatchExhaustiveness(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def r (match 999 (1 "a") (2 "b")))]`)
	r := global(t, it, "r")
	if r.Tag() != slp.ErrorTag {
		t.Errorf("r.Tag() = %v, want ErrorTag", r.Tag())
	}
}

// Scenario 10: assert throws AssertFailed carrying the message verbatim.
func TestScenarioAssertThrows(t *testing.T) {
	it := New(Options{})
	_, err := it.Eval(`[(assert 0 "msg")]`)
	if err == nil {
		t.Fatal("expected an error")
	}
	f, ok := err.(*Failure)
	if !ok {
		t.Fatalf("error is %T, want *Failure", err)
	}
	if f.Kind != KindAssertFailed || f.Message != "msg" {
		t.Errorf("failure = %+v, want {AssertFailed msg}", f)
	}
}

func TestLambdaCleanupInvalidatesHandle(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def keeper (fn () :aberrant [(fn () :int [1])]))]`)
	lam := mustEval(t, it, `[(keeper)]`)
	if lam.Tag() != slp.Aberrant {
		t.Fatalf("expected keeper() to return an Aberrant, got %v", lam.Tag())
	}
	_, err := it.invokeLambda(lam.LambdaID(), nil, lam.Pos())
	if err == nil || err.Kind != KindLambdaInvalidated {
		t.Errorf("expected LambdaInvalidated invoking a lambda declared inside a popped frame, got %v", err)
	}
}

func TestTypeMismatchOnArgument(t *testing.T) {
	it := New(Options{})
	it.Eval(`[(def add (fn (a :int) :int [42]))]`)
	_, err := it.Eval(`[(add "x")]`)
	if err == nil {
		t.Fatal("expected a type mismatch error")
	}
	f := err.(*Failure)
	if f.Kind != KindTypeMismatch {
		t.Errorf("Kind = %v, want TypeMismatch", f.Kind)
	}
}

func TestDoneOutsideLoopThrows(t *testing.T) {
	it := New(Options{})
	_, err := it.Eval(`[(done 1)]`)
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.(*Failure).Kind != KindDoneOutsideLoop {
		t.Errorf("Kind = %v, want DoneOutsideLoop", err.(*Failure).Kind)
	}
}

func TestUnknownSymbolThrows(t *testing.T) {
	it := New(Options{})
	_, err := it.Eval(`[(nonexistent)]`)
	if err == nil || !strings.Contains(err.Error(), "UnknownSymbol") {
		t.Errorf("expected an UnknownSymbol error, got %v", err)
	}
}

func TestAtOutOfBoundsReturnsErrorNotThrow(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def r (at 9 {1 2 3}))]`)
	r := global(t, it, "r")
	if r.Tag() != slp.ErrorTag {
		t.Errorf("r.Tag() = %v, want ErrorTag", r.Tag())
	}
}

func TestTryCatchesThrow(t *testing.T) {
	it := New(Options{})
	mustEval(t, it, `[(def r (try (assert 0 "nope") "fallback"))]`)
	r := global(t, it, "r")
	if r.Tag() != slp.DqList || r.Str() != "fallback" {
		t.Errorf("r = %v, want DqList \"fallback\"", r)
	}
}
