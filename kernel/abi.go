// Package kernel implements the SLP kernel ABI: the contract a dynamically
// loaded native module uses to register callable functions with the core
// and to call back into it. The C-ABI vtable described by the source
// material (kernel_init/kernel_shutdown exporting raw function pointers) is
// re-expressed here as Go interfaces and function values loaded through the
// standard library's plugin package, since SLP has no cgo dependency
// anywhere else and a hand-rolled dlopen wrapper would be a platform-
// fragility regression for no benefit over plugin.Open.
package kernel

import "github.com/slp-lang/slp/slp"

// Context is the opaque handle a kernel function receives: the re-entrant
// hook back into the interpreter that called it (spec §4.8's "eval(context,
// cell)"), plus read-only system info.
type Context interface {
	// Eval re-enters the calling interpreter with cell as if it were a
	// freshly parsed top-level form. Re-entrancy is required for kernels
	// that implement higher-order callbacks (spec §5).
	Eval(cell slp.Cell) (slp.Cell, error)
	WorkingDir() string
}

// Fn is the calling convention from the core into a kernel function: call
// is a ParenList whose head is the dispatched symbol ("name/fn") and whose
// tail is the already-evaluated arguments (spec §4.8).
type Fn func(ctx Context, call slp.Cell) (slp.Cell, error)

// Signature is what the checker needs to know about a registered function
// without ever calling it: declared parameter/return type symbols and
// whether the last parameter is variadic.
type Signature struct {
	Name       string
	ParamTypes []string
	ReturnType string
	Variadic   bool
}

// Registry is handed to a kernel's init function so it can register the
// functions it implements (spec §4.8's register_function).
type Registry interface {
	RegisterFunction(name string, fn Fn, sig Signature)
}

// InitFunc is the symbol every kernel plugin must export under the name
// "KernelInit" (Go's plugin package resolves exported identifiers by name,
// not C symbols, so this stands in for the source ABI's kernel_init).
type InitFunc func(registry Registry, api *APITable)

// ShutdownFunc is the symbol every kernel plugin must export under the name
// "KernelShutdown", called once at interpreter teardown in reverse load
// order (spec §4.8).
type ShutdownFunc func(api *APITable)

// SystemInfo is what get_system_info reports (spec §4.8): at minimum the
// working root path a kernel should resolve relative paths against.
type SystemInfo struct {
	WorkingRoot string
}

// APITable is the vtable handed to a kernel at load time: cell
// constructors, re-entrant eval, and system introspection (spec §4.8).
// Kernels never construct slp.Cell values directly (the slp package is
// intentionally not part of any kernel's own import graph in a real
// deployment, since a dylib and the host may be built against different
// versions of it); they go through this table instead.
type APITable struct {
	Eval              func(ctx Context, cell slp.Cell) (slp.Cell, error)
	CreateInt         func(int64) slp.Cell
	CreateReal        func(float64) slp.Cell
	CreateString      func(string) slp.Cell
	CreateNone        func() slp.Cell
	CreateSymbol      func(string) slp.Cell
	CreateParenList   func([]slp.Cell) slp.Cell
	CreateBracketList func([]slp.Cell) slp.Cell
	CreateBraceList   func([]slp.Cell) slp.Cell
	GetSystemInfo     func() SystemInfo
}

// NewAPITable builds the standard vtable backed directly by the slp package
// constructors, plus the given re-entrant eval hook and working root.
func NewAPITable(evalFn func(ctx Context, cell slp.Cell) (slp.Cell, error), workingRoot string) *APITable {
	return &APITable{
		Eval:              evalFn,
		CreateInt:         slp.NewInteger,
		CreateReal:        slp.NewReal,
		CreateString:      slp.NewDqList,
		CreateNone:        func() slp.Cell { return slp.NewNone() },
		CreateSymbol:      slp.NewSymbol,
		CreateParenList:   slp.NewParenList,
		CreateBracketList: slp.NewBracketList,
		CreateBraceList:   slp.NewBraceList,
		GetSystemInfo:     func() SystemInfo { return SystemInfo{WorkingRoot: workingRoot} },
	}
}
