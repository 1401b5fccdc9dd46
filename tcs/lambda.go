package tcs

import "github.com/slp-lang/slp/interp"

// lambdaSignature is the checker's lambda-table entry: declared parameter
// and return types only, never a body or owning interpreter, since the
// checker never invokes anything (spec §4.7 "Maintains a parallel lambda
// table keyed by ID with declared parameter types and return type").
type lambdaSignature struct {
	Params []interp.Param
	Return TypeInfo
}

// lambdaTypeTable is keyed the same way interp's runtime lambda table is
// (a monotonic per-checker uint64), so a `(reflect ... (:fn<...>R body))`
// arm or an `apply` call can look up a previously recorded signature by the
// ID a `fn` check assigned it.
type lambdaTypeTable struct {
	nextID  uint64
	entries map[uint64]*lambdaSignature
}

func newLambdaTypeTable() *lambdaTypeTable {
	return &lambdaTypeTable{entries: map[uint64]*lambdaSignature{}}
}

func (lt *lambdaTypeTable) allocate(sig *lambdaSignature) uint64 {
	id := lt.nextID
	lt.nextID++
	lt.entries[id] = sig
	return id
}

func (lt *lambdaTypeTable) get(id uint64) (*lambdaSignature, bool) {
	sig, ok := lt.entries[id]
	return sig, ok
}

// matchesSignature compares a recorded lambda signature against a parsed
// ":fn<T1,T2>R" type: same arity, same parameter tags, same return tag.
// Neither checkReflect nor checkApply calls it; checkApply compares each
// argument against the recorded parameters itself.
func (lt *lambdaTypeTable) matchesSignature(id uint64, sig *interp.FnSignature) bool {
	rec, ok := lt.get(id)
	if !ok {
		return false
	}
	if sig == nil {
		return true
	}
	if len(rec.Params) != len(sig.Params) {
		return false
	}
	for i, p := range rec.Params {
		if p.Type != sig.Params[i] {
			return false
		}
	}
	return rec.Return.Base == sig.Return
}
