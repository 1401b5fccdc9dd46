package tcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slp-lang/slp/interp"
)

func checkSrc(t *testing.T, src string) (bool, []Diagnostic) {
	t.Helper()
	c := NewChecker(Options{})
	return c.Check(src)
}

func TestAcceptsIfWithAgreeingBranches(t *testing.T) {
	ok, diags := checkSrc(t, `[(def result (if 1 42 99))]`)
	assert.True(t, ok, "diagnostics: %v", diags)
}

func TestRejectsIfWithDisagreeingBranches(t *testing.T) {
	ok, diags := checkSrc(t, `[(def r (if 1 42 "string"))]`)
	require.False(t, ok)
	assert.Equal(t, "type_error", diags[0].Category)
}

func TestAcceptsWellTypedCall(t *testing.T) {
	ok, diags := checkSrc(t, `[(def add (fn (a :int b :int) :int [0])) (add 1 2)]`)
	assert.True(t, ok, "diagnostics: %v", diags)
}

func TestRejectsCallArgumentTypeMismatch(t *testing.T) {
	ok, diags := checkSrc(t, `[(def add (fn (a :int) :int [42])) (add "x")]`)
	require.False(t, ok)
	assert.Equal(t, "type_error", diags[0].Category)
}

func TestRejectsRedefinitionInSameScope(t *testing.T) {
	ok, diags := checkSrc(t, `[(def x 1) (def x 2)]`)
	require.False(t, ok)
	assert.Equal(t, "redefinition", diags[0].Category)
}

func TestAllowsSetToRebindWithoutRedefinitionError(t *testing.T) {
	ok, diags := checkSrc(t, `[(def x 1) (set x 2)]`)
	assert.True(t, ok, "diagnostics: %v", diags)
}

func TestRejectsUnknownSymbol(t *testing.T) {
	ok, diags := checkSrc(t, `[(def r missing)]`)
	require.False(t, ok)
	assert.Equal(t, "unknown_symbol", diags[0].Category)
}

func TestRejectsFnReturnTypeMismatch(t *testing.T) {
	ok, diags := checkSrc(t, `[(def f (fn () :int ["not an int"]))]`)
	require.False(t, ok)
	assert.Equal(t, "type_error", diags[0].Category)
}

func TestAcceptsApplyWithMatchingBraceList(t *testing.T) {
	ok, diags := checkSrc(t, `[(def add (fn (a :int b :int) :int [42])) (def r (apply add {1 2}))]`)
	assert.True(t, ok, "diagnostics: %v", diags)
}

func TestRejectsApplyArityMismatch(t *testing.T) {
	ok, diags := checkSrc(t, `[(def add (fn (a :int b :int) :int [42])) (def r (apply add {1}))]`)
	require.False(t, ok)
	assert.Equal(t, "arity_error", diags[0].Category)
}

func TestAcceptsDoDoneRoundTrip(t *testing.T) {
	ok, diags := checkSrc(t, `[(def r (do [(done 7)]))]`)
	assert.True(t, ok, "diagnostics: %v", diags)
}

func TestRejectsDoneOutsideLoop(t *testing.T) {
	ok, diags := checkSrc(t, `[(done 7)]`)
	require.False(t, ok)
	assert.Equal(t, "scope_error", diags[0].Category)
}

func TestDoWithNoDoneReportsNone(t *testing.T) {
	c := NewChecker(Options{})
	ok, diags := c.Check(`[(def r (do [(def x 1)]))]`)
	require.True(t, ok, "diagnostics: %v", diags)
	rt, found := c.scope.lookup("r")
	require.True(t, found)
	assert.Equal(t, interp.TNone, rt.Base)
}

func TestAcceptsMatchWithAgreeingArms(t *testing.T) {
	ok, diags := checkSrc(t, `[(def r (match 1 (1 "one") (2 "two")))]`)
	assert.True(t, ok, "diagnostics: %v", diags)
}

func TestRejectsMatchWithDisagreeingArms(t *testing.T) {
	ok, diags := checkSrc(t, `[(def r (match 1 (1 "one") (2 2)))]`)
	require.False(t, ok)
	assert.Equal(t, "type_error", diags[0].Category)
}

func TestAcceptsCastToDeclaredForm(t *testing.T) {
	ok, diags := checkSrc(t, `[
#(define-form point (:int :int))
(def mk (fn (x :int y :int) :point [{x y}]))
(def p (cast :point (mk 1 2)))
]`)
	assert.True(t, ok, "diagnostics: %v", diags)
}

func TestRejectsImportNotFound(t *testing.T) {
	ok, diags := checkSrc(t, `[#(import a "does-not-exist.sxs")]`)
	require.False(t, ok)
	assert.Equal(t, "import_error", diags[0].Category)
}

func TestRejectsEvalOnNonString(t *testing.T) {
	ok, diags := checkSrc(t, `[(eval 5)]`)
	require.False(t, ok)
	assert.Equal(t, "type_error", diags[0].Category)
}

func TestEvalResultIsAlwaysNone(t *testing.T) {
	c := NewChecker(Options{})
	ok, diags := c.Check(`[(def r (eval "1"))]`)
	require.True(t, ok, "diagnostics: %v", diags)
	rt, found := c.scope.lookup("r")
	require.True(t, found)
	assert.Equal(t, interp.TNone, rt.Base)
}

func TestRejectsAssertWithNonIntCondition(t *testing.T) {
	ok, diags := checkSrc(t, `[(assert "nope" "message")]`)
	require.False(t, ok)
	assert.Equal(t, "type_error", diags[0].Category)
}

func TestRecoverUnifiesBodyAndHandlerTypes(t *testing.T) {
	ok, diags := checkSrc(t, `[(def r (recover [1] [2]))]`)
	assert.True(t, ok, "diagnostics: %v", diags)
}

func TestAtOnStringReturnsInt(t *testing.T) {
	c := NewChecker(Options{})
	ok, diags := c.Check(`[(def r (at 0 "abc"))]`)
	require.True(t, ok, "diagnostics: %v", diags)
	rt, found := c.scope.lookup("r")
	require.True(t, found)
	assert.Equal(t, interp.TInt, rt.Base)
}

func TestCheckFileReportsReadError(t *testing.T) {
	c := NewChecker(Options{})
	_, _, err := c.CheckFile("/no/such/file.slp")
	require.Error(t, err)
}
