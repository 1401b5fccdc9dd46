// Package tcs implements the SLP static type-and-scope checker: a parallel
// traversal of the same cell tree the interpreter walks, but one that infers
// TypeInfo instead of producing values and never executes a side effect or
// loads a kernel dylib (spec §4.7).
package tcs

import (
	"github.com/slp-lang/slp/interp"
	"github.com/slp-lang/slp/slp"
)

// TypeInfo is the checker's result type for every expression (spec §3):
// deliberately more precise than a runtime Cell tag because it also tracks
// a form name (for user-declared forms) and a lambda ID (for arity/type
// checking through reflect's ":fn<T1,T2>R" selectors and apply).
type TypeInfo struct {
	Base       interp.TypeTag
	FormName   string // meaningful only when Base == interp.TForm
	LambdaID   uint64 // meaningful only when LambdaKnown is true
	LambdaKnown bool  // true when LambdaID names an entry in this checker's lambdaTypeTable
	IsVariadic bool   // meaningful only for kernel-function signatures
}

func none() TypeInfo { return TypeInfo{Base: interp.TNone} }

func of(t interp.TypeTag) TypeInfo { return TypeInfo{Base: t} }

func form(name string) TypeInfo { return TypeInfo{Base: interp.TForm, FormName: name} }

// fromRuntimeTag maps a literal cell's own Tag() to the TypeInfo a checker
// assigns a self-evaluating literal (spec §4.7's traversal mirrors the
// interpreter's self-evaluating cell set in eval.go).
func fromRuntimeTag(t slp.Tag) (TypeInfo, bool) {
	base, ok := interp.TagOf(t)
	if !ok {
		return TypeInfo{}, false
	}
	return TypeInfo{Base: base}, true
}

// compatible implements the checker's notion of "these two TypeInfo values
// may stand in the same position" (if/match/reflect/recover/try branch
// agreement, spec §4.7). :none is the universal wildcard on both sides,
// mirroring interp.MatchesDeclaredType's :none rule; forms must share a
// FormName; everything else compares by base tag.
func (ti TypeInfo) compatible(other TypeInfo) bool {
	if ti.Base == interp.TNone || other.Base == interp.TNone {
		return true
	}
	if ti.Base == interp.TForm || other.Base == interp.TForm {
		return ti.Base == other.Base && ti.FormName == other.FormName
	}
	return ti.Base == other.Base
}

// unify picks the more informative of two compatible TypeInfo values (a
// concrete type beats :none), used to fold n branch types (match/reflect
// arms, if's two branches) into the single TypeInfo the enclosing
// expression reports.
func unify(a, b TypeInfo) TypeInfo {
	if a.Base == interp.TNone {
		return b
	}
	return a
}

func (ti TypeInfo) String() string {
	if ti.Base == interp.TForm {
		return ":" + ti.FormName
	}
	return ti.Base.String()
}
