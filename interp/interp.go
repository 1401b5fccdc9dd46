// Package interp implements the SLP tree-walking interpreter: scoped symbol
// lookup, builtin instruction dispatch, lambda definition/invocation, the
// import subsystem, the kernel loader, and the do/done loop.
package interp

import (
	"fmt"
	"go/token"
	"io"
	"os"
	"sync"

	"github.com/slp-lang/slp/kernel"
	"github.com/slp-lang/slp/slp"
)

// Options configures an Interpreter: standard Stdin/Stdout/Stderr/Env plumbing
// plus SLP's include-path/working-dir surface (spec §6).
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// IncludePaths is the ordered list of directories searched for
	// imports and kernel dylibs (spec §6). A front end typically seeds
	// this from RUNTIME_INCLUDE_PATHS plus repeated --include flags; the
	// core itself never reads the environment.
	IncludePaths []string

	// WorkingDir is the first directory imports are resolved against,
	// before IncludePaths is searched, and the value kernels observe
	// through GetSystemInfo (spec §4.8).
	WorkingDir string

	// Env holds host-supplied environment entries. New defaults it to an
	// empty map; neither the interpreter nor the kernel API table reads it.
	// It never falls back to os.Environ: the core performs no environment
	// reads of its own (spec §1.4).
	Env map[string]string
}

// builtinFn is a builtin operator's implementation. call is the full
// ParenList cell (head included); builtins decide their own evaluation
// order rather than having arguments pre-evaluated for them, since several
// (if, match, fn, recover) must evaluate some operands conditionally or
// not at all.
type builtinFn func(it *Interpreter, call slp.Cell) (slp.Cell, *Failure)

// loopFrame is one entry of the loop-frame stack (spec §3): do pushes,
// done mutates the innermost one, do pops when its body's pass observes
// the exited flag.
type loopFrame struct {
	iteration int64 // 0-based internally; $iterations is iteration+1 (spec §9)
	doneValue slp.Cell
	exited    bool
}

// formDef is a registered user form's field shape (spec §4.7).
type formDef struct {
	Name     string
	Fields   []TypeTag // fixed shape when Variadic == false
	Variadic bool
	ElemType TypeTag // element type when Variadic == true
}

// importLoadState is the per-path load state shared across a whole program
// (spec §3 "Import slot").
type importLoadState int

const (
	stateInProgress importLoadState = iota
	stateReady
	stateFailed
)

// sharedProgramState is held by every interpreter instance belonging to one
// program (the root plus every imported sub-interpreter), so the cycle
// guard and the kernel loader are global even though user scope is not
// (spec §4.6, §5).
type sharedProgramState struct {
	mu      sync.Mutex
	visited map[string]importLoadState
	loader  *kernel.Loader
	order   []string // kernel load order, for shutdown
}

// importSlot is one registered import in *this* interpreter's prefix
// namespace (spec §3 "Import slot").
type importSlot struct {
	prefix string
	path   string
	child  *Interpreter
}

// kernelSlot is one registered kernel in this interpreter's prefix
// namespace (spec §3 "Kernel slot").
type kernelSlot struct {
	name   string
	loaded *kernel.Loaded
}

// Interpreter is one SLP evaluation context: its own scope stack, lambda
// table, loop-frame stack, import/kernel prefix registries and form table.
// Importing a file creates a new Interpreter that shares the builtin table
// and the program-wide kernel/cycle state but not user scope (spec §4.6).
type Interpreter struct {
	opt    Options
	fset   *token.FileSet
	name   string // source name, for diagnostics
	shared *sharedProgramState

	scope   *scope
	lambdas *lambdaTable
	loops   []*loopFrame

	imports   map[string]*importSlot
	kernels   map[string]*kernelSlot
	forms     map[string]*formDef
	exported  map[string]bool
	manifests map[string]*kernelManifestEntry
}

// New returns a new root Interpreter. Imported files get their own instance
// built internally by the import subsystem (see import.go), never through
// New directly.
func New(opt Options) *Interpreter {
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	if opt.Stdout == nil {
		opt.Stdout = os.Stdout
	}
	if opt.Stderr == nil {
		opt.Stderr = os.Stderr
	}
	if opt.Env == nil {
		opt.Env = map[string]string{}
	}

	it := &Interpreter{
		opt:       opt,
		fset:      token.NewFileSet(),
		name:      "main",
		scope:     newScope(),
		lambdas:   newLambdaTable(),
		imports:   map[string]*importSlot{},
		kernels:   map[string]*kernelSlot{},
		forms:     map[string]*formDef{},
		exported:  map[string]bool{},
		manifests: map[string]*kernelManifestEntry{},
		shared: &sharedProgramState{
			visited: map[string]importLoadState{},
			loader:  kernel.NewLoader(opt.IncludePaths),
		},
	}
	return it
}

// Eval parses and evaluates src, returning the value of the last top-level
// form (spec.md's end-to-end scenarios all check this shape) or the first
// thrown failure. Conventionally src is itself a single top-level
// BracketList (as every example in the corpus writes programs); Eval does
// not special-case that, since evaluating a BracketList already means
// "evaluate its items in the current scope, return the last" (see eval.go),
// which is exactly what a top-level program needs.
func (it *Interpreter) Eval(src string) (slp.Cell, error) {
	return it.evalNamed(src, it.name)
}

// EvalFile reads path and evaluates it the same way Eval does, using path
// as the source name for diagnostics.
func (it *Interpreter) EvalFile(path string) (slp.Cell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return slp.Cell{}, err
	}
	return it.evalNamed(string(data), path)
}

func (it *Interpreter) evalNamed(src, name string) (slp.Cell, error) {
	result := slp.ParseFile(it.fset, name, src)
	if result.Err != nil {
		return slp.Cell{}, result.Err
	}

	var last slp.Cell = slp.NewNone()
	for _, form := range result.Object.Items() {
		v, ferr := it.eval(form)
		if ferr != nil {
			return slp.Cell{}, ferr
		}
		last = v
	}
	return last, nil
}

// HasSymbol reports whether name is bound, optionally restricted to the
// current top frame (spec §4.2's has_symbol). It is exposed on Interpreter
// for host/test introspection of the scope-discipline property (spec §8).
func (it *Interpreter) HasSymbol(name string, localOnly bool) bool {
	return it.scope.has(name, localOnly)
}

// Shutdown runs every loaded kernel's shutdown hook in reverse load order
// (spec §4.8). Only meaningful on the root interpreter, since kernels are
// loaded once and shared across a program's sub-interpreters (spec §5).
func (it *Interpreter) Shutdown() {
	it.shared.mu.Lock()
	order := append([]string(nil), it.shared.order...)
	it.shared.mu.Unlock()
	it.shared.loader.ShutdownAll(order)
}

func (it *Interpreter) writeStdout(s string) {
	fmt.Fprint(it.opt.Stdout, s)
}
