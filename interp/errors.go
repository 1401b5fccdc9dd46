package interp

import (
	"fmt"
	"go/token"
)

// FailureKind enumerates the thrown-failure channel of spec §4.9. Error
// cells (slp.Cell with Tag() == slp.ErrorTag) are a separate, non-throwing
// data channel and are never represented as a Failure.
type FailureKind string

const (
	KindParseError          FailureKind = "ParseError"
	KindArityMismatch       FailureKind = "ArityMismatch"
	KindTypeMismatch        FailureKind = "TypeMismatch"
	KindReturnTypeMismatch  FailureKind = "ReturnTypeMismatch"
	KindUnknownSymbol       FailureKind = "UnknownSymbol"
	KindLambdaInvalidated   FailureKind = "LambdaInvalidated"
	KindImportCycle         FailureKind = "ImportCycle"
	KindImportNotFound      FailureKind = "ImportNotFound"
	KindKernelLoadFailed    FailureKind = "KernelLoadFailed"
	KindAssertFailed        FailureKind = "AssertFailed"
	KindDoneOutsideLoop     FailureKind = "DoneOutsideLoop"
	KindInvalidType         FailureKind = "InvalidType"
	KindRedefinition        FailureKind = "Redefinition"
	KindEvalRequiresString  FailureKind = "EvalRequiresString"
)

// Failure is a thrown failure: it unwinds evaluation of the call that
// raised it. It's a typed value a host can type-switch on rather than a
// bare errors.New string.
type Failure struct {
	Kind    FailureKind
	Message string
	Pos     token.Pos
	HasPos  bool
}

func (f *Failure) Error() string {
	if f.HasPos {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Throw builds a Failure with no position information attached.
func Throw(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ThrowAt is Throw with a source position attached for diagnostic display.
func ThrowAt(pos token.Pos, kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos, HasPos: true}
}
