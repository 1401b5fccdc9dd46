package interp

import "github.com/slp-lang/slp/slp"

// Param is one (name, declared type) pair from a fn's parameter list.
type Param struct {
	Name     string
	Type     TypeTag
	Sig      *FnSignature // non-nil only when Type == TFn
	FormName string       // non-empty only when Type == TForm
}

// lambdaRecord is the lambda table entry described by spec §3/§4.3: the
// parameter list, declared return type, body, the interpreter instance that
// owns the body (so invocation evaluates it in the right environment), and
// the scope depth it was declared at (for cleanup on frame pop, spec §4.4).
type lambdaRecord struct {
	ID          uint64
	Params      []Param
	Return      TypeTag
	RetSig      *FnSignature
	RetFormName string // non-empty only when Return == TForm
	Body        slp.Cell
	Owner       *Interpreter
	Depth       int
}

// lambdaTable is a per-interpreter arena keyed by a monotonically
// increasing ID, replacing the pointer-graph lambda ownership a
// garbage-collected host would use (spec §9's re-architecture note).
type lambdaTable struct {
	nextID  uint64
	entries map[uint64]*lambdaRecord
}

func newLambdaTable() *lambdaTable {
	return &lambdaTable{entries: map[uint64]*lambdaRecord{}}
}

// allocate reserves the next ID and stores rec under it.
func (lt *lambdaTable) allocate(rec *lambdaRecord) uint64 {
	id := lt.nextID
	lt.nextID++
	rec.ID = id
	lt.entries[id] = rec
	return id
}

// Get looks up a lambda record by ID; ok is false once the record has been
// cleaned up (spec §4.4) or never existed.
func (lt *lambdaTable) Get(id uint64) (*lambdaRecord, bool) {
	rec, ok := lt.entries[id]
	return rec, ok
}

// removeAtDepth deletes every entry whose declaring frame was depth,
// implementing the only reclamation mechanism lambdas have (spec §4.4).
func (lt *lambdaTable) removeAtDepth(depth int) {
	for id, rec := range lt.entries {
		if rec.Depth == depth {
			delete(lt.entries, id)
		}
	}
}
