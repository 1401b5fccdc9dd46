package tcs

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/module"

	"github.com/slp-lang/slp/interp"
	"github.com/slp-lang/slp/slp"
)

// Options configures a Checker, mirroring interp.Options' include-path /
// working-dir surface (spec §6) minus Stdin/Stdout/Stderr: the checker never
// executes a side effect, so it has nothing to write (spec §4.7).
type Options struct {
	IncludePaths []string
	WorkingDir   string
}

type importLoadState int

const (
	stateInProgress importLoadState = iota
	stateReady
	stateFailed
)

// sharedCheckState is the checker's counterpart to interp's
// sharedProgramState: the import cycle guard, shared across a root checker
// and every child checker built while checking `#(import ...)` directives.
// Unlike interp's it needs no mutex — a Checker run is single-threaded top
// to bottom, there is no kernel dylib to load concurrently.
type sharedCheckState struct {
	visited map[string]importLoadState
}

type importSlot struct {
	prefix string
	path   string
	child  *Checker
}

// loopCheckFrame is the checker's counterpart to interp's loopFrame (spec
// §3): instead of an iteration counter, it records the unified type of
// every `done` lexically reachable inside the enclosing `do`, so the `do`
// expression itself can report a TypeInfo.
type loopCheckFrame struct {
	doneType TypeInfo
	sawDone  bool
}

// Checker runs the same cell-tree traversal shape as interp.Interpreter
// (spec §4.7: "shares traversal shape with the interpreter but computes
// TypeInfo instead of cells"), never evaluating a side effect and never
// loading a kernel dylib.
type Checker struct {
	opt    Options
	fset   *token.FileSet
	name   string
	shared *sharedCheckState

	scope   *typeScope
	lambdas *lambdaTypeTable
	forms   map[string]*formShape

	imports       map[string]*importSlot
	kernels       map[string]*kernelManifest
	manifestCache map[string]*kernelManifest
	exported      map[string]TypeInfo

	loops []*loopCheckFrame
	diags []Diagnostic
}

// NewChecker returns a root Checker. Imported files get their own instance
// built internally by checkImportDirective, the same split interp.go draws
// between New and newChildInterpreter.
func NewChecker(opt Options) *Checker {
	return &Checker{
		opt:           opt,
		fset:          token.NewFileSet(),
		name:          "main",
		scope:         newTypeScope(),
		lambdas:       newLambdaTypeTable(),
		forms:         map[string]*formShape{},
		imports:       map[string]*importSlot{},
		kernels:       map[string]*kernelManifest{},
		manifestCache: map[string]*kernelManifest{},
		exported:      map[string]TypeInfo{},
		shared:        &sharedCheckState{visited: map[string]importLoadState{}},
	}
}

func (c *Checker) newChildChecker(name string) *Checker {
	return &Checker{
		opt:           c.opt,
		fset:          c.fset,
		name:          name,
		shared:        c.shared,
		scope:         newTypeScope(),
		lambdas:       newLambdaTypeTable(),
		forms:         map[string]*formShape{},
		imports:       map[string]*importSlot{},
		kernels:       map[string]*kernelManifest{},
		manifestCache: map[string]*kernelManifest{},
		exported:      map[string]TypeInfo{},
	}
}

// FileSet exposes the checker's token.FileSet so a host can feed it to
// Format alongside the diagnostics Check returns.
func (c *Checker) FileSet() *token.FileSet { return c.fset }

// Check parses and statically checks src. It returns ok=false if any
// diagnostic was recorded; diagnostics are collected rather than
// short-circuited on the first one (spec §7), except for a failed parse,
// which the checker — like the interpreter — refuses to check further.
func (c *Checker) Check(src string) (bool, []Diagnostic) {
	c.checkProgramSource(src, c.name)
	return len(c.diags) == 0, c.diags
}

// CheckFile reads path and checks it the same way Check does, using path as
// the checker's source name for diagnostics.
func (c *Checker) CheckFile(path string) (bool, []Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, nil, err
	}
	c.name = path
	ok, diags := c.Check(string(data))
	return ok, diags, nil
}

func (c *Checker) checkProgramSource(src, name string) {
	result := slp.ParseFile(c.fset, name, src)
	if result.Err != nil {
		c.diags = append(c.diags, Diagnostic{
			Category: "parse_error",
			Message:  result.Err.Message,
			Pos:      result.Err.Pos,
		})
		return
	}
	for _, form := range result.Object.Items() {
		c.checkExpr(form)
	}
}

func (c *Checker) errorAt(pos token.Pos, category, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{Category: category, Message: fmt.Sprintf(format, args...), Pos: pos})
}

func arity(call slp.Cell, n int) []slp.Cell {
	items := call.Items()
	if len(items)-1 != n {
		return nil
	}
	return items[1:]
}

func splitPrefixed(name string) (prefix, rest string, ok bool) {
	idx := strings.IndexByte(name, '/')
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

func paramTypeInfo(p interp.Param) TypeInfo {
	if p.Type == interp.TForm {
		return form(p.FormName)
	}
	return of(p.Type)
}

func (c *Checker) resolveIncludePath(rel string) (string, bool) {
	if filepath.IsAbs(rel) {
		if _, err := os.Stat(rel); err == nil {
			return rel, true
		}
		return "", false
	}
	candidates := append([]string{c.opt.WorkingDir}, c.opt.IncludePaths...)
	for _, dir := range candidates {
		full := filepath.Join(dir, rel)
		if _, err := os.Stat(full); err == nil {
			return full, true
		}
	}
	return "", false
}

// checkExpr is the single dispatch point every check* function routes
// through, mirroring interp's eval (eval.go) cell-tag switch exactly.
func (c *Checker) checkExpr(cell slp.Cell) TypeInfo {
	switch cell.Tag() {
	case slp.Integer, slp.Real, slp.DqList, slp.Rune, slp.None, slp.Some,
		slp.ErrorTag, slp.Aberrant, slp.Environment:
		ti, ok := fromRuntimeTag(cell.Tag())
		if !ok {
			return none()
		}
		return ti

	case slp.Symbol:
		if ti, ok := c.scope.lookup(cell.SymbolName()); ok {
			return ti
		}
		c.errorAt(cell.Pos(), "unknown_symbol", "unknown symbol %q", cell.SymbolName())
		return none()

	case slp.Datum:
		return c.checkDatum(cell)

	case slp.BracketList:
		return c.checkSequence(cell.Items())

	case slp.BraceList:
		for _, item := range cell.Items() {
			c.checkExpr(item)
		}
		return of(interp.TListC)

	case slp.ParenList:
		return c.checkCall(cell)

	default:
		c.errorAt(cell.Pos(), "type_error", "cannot type-check a cell of tag %s", cell.Tag())
		return none()
	}
}

// checkSequence mirrors evalSequence (eval.go): no frame is pushed here,
// since fn-body/do-body/recover-arm call sites push their own before
// calling it.
func (c *Checker) checkSequence(items []slp.Cell) TypeInfo {
	result := none()
	for _, item := range items {
		result = c.checkExpr(item)
	}
	return result
}

// checkCall mirrors evalCall's resolution order (spec §4.6): slash-prefixed
// name → builtin → scope (expecting an aberrant-typed value to invoke).
func (c *Checker) checkCall(call slp.Cell) TypeInfo {
	items := call.Items()
	if len(items) == 0 {
		return of(interp.TListP)
	}
	head := items[0]

	if head.Tag() == slp.Symbol {
		name := head.SymbolName()
		if prefix, rest, ok := splitPrefixed(name); ok {
			return c.checkPrefixedCall(call, prefix, rest)
		}
		if fn, ok := builtinCheckers[name]; ok {
			return fn(c, call)
		}
		if ti, ok := c.scope.lookup(name); ok {
			return c.checkInvocation(call, ti, items[1:])
		}
		c.errorAt(head.Pos(), "unknown_symbol", "unknown symbol %q", name)
		for _, e := range items[1:] {
			c.checkExpr(e)
		}
		return none()
	}

	calleeType := c.checkExpr(head)
	return c.checkInvocation(call, calleeType, items[1:])
}

// checkInvocation mirrors invokeCallee/invokeLambda's static half: arity and
// per-argument declared-type checks against the lambda signature recorded
// when its `fn` was checked (spec §4.3 steps 2-3).
func (c *Checker) checkInvocation(call slp.Cell, calleeType TypeInfo, argExprs []slp.Cell) TypeInfo {
	argTypes := make([]TypeInfo, len(argExprs))
	for i, e := range argExprs {
		argTypes[i] = c.checkExpr(e)
	}
	if calleeType.Base == interp.TNone {
		// Declared/inferred :none: the call cannot be statically verified,
		// mirroring interp.MatchesDeclaredType's :none wildcard.
		return none()
	}
	if calleeType.Base != interp.TAberrant {
		c.errorAt(call.Pos(), "type_error", "value is not callable")
		return none()
	}
	if !calleeType.LambdaKnown {
		return none()
	}
	rec, ok := c.lambdas.get(calleeType.LambdaID)
	if !ok {
		return none()
	}
	if len(argExprs) != len(rec.Params) {
		c.errorAt(call.Pos(), "arity_error", "expected %d argument(s), got %d", len(rec.Params), len(argExprs))
		return rec.Return
	}
	for i, p := range rec.Params {
		want := paramTypeInfo(p)
		if !want.compatible(argTypes[i]) {
			c.errorAt(argExprs[i].Pos(), "type_error", "argument %d: expected %s, got %s", i+1, want, argTypes[i])
		}
	}
	return rec.Return
}

// checkDatum dispatches a `#(...)` directive the same way evalDatum does
// (spec §4.5): the checker inspects import/load/form/manifest directives
// without ever reading a file's bytes as anything but SLP source text, and
// never opens a kernel dylib.
func (c *Checker) checkDatum(d slp.Cell) TypeInfo {
	items := d.Items()
	if len(items) == 0 {
		c.errorAt(d.Pos(), "arity_error", "empty datum directive")
		return none()
	}
	head := items[0]
	if head.Tag() != slp.Symbol {
		c.errorAt(head.Pos(), "type_error", "datum directive head must be a symbol")
		return none()
	}
	switch head.SymbolName() {
	case "import":
		return c.checkImportDirective(d)
	case "load":
		return c.checkLoadDirective(d)
	case "define-form":
		c.defineForm(d)
		return none()
	case "define-kernel":
		c.checkDefineKernelManifest(d)
		return none()
	case "define-function":
		if _, ok := c.parseManifestFunction(d); !ok {
			c.errorAt(d.Pos(), "type_error", "expected a define-function entry")
		}
		return none()
	case "debug":
		for _, item := range items[1:] {
			c.checkExpr(item)
		}
		return of(interp.TInt)
	default:
		c.errorAt(head.Pos(), "unknown_symbol", "unknown datum directive %q", head.SymbolName())
		return none()
	}
}

// checkImportDirective mirrors evalImportDirective's contract exactly,
// minus actually running the imported file: it parses and checks it with a
// child Checker instead (spec §4.7: "parses the imported file, builds a
// child checker, uses its export-marked signatures to type-check calls into
// it").
func (c *Checker) checkImportDirective(d slp.Cell) TypeInfo {
	items := d.Items()
	if len(items) != 3 {
		c.errorAt(d.Pos(), "arity_error", "import requires exactly 2 operands")
		return none()
	}
	prefixCell, pathCell := items[1], items[2]
	if prefixCell.Tag() != slp.Symbol {
		c.errorAt(prefixCell.Pos(), "type_error", "import: prefix must be a symbol")
		return none()
	}
	if pathCell.Tag() != slp.DqList {
		c.errorAt(pathCell.Pos(), "type_error", "import: path must be a string")
		return none()
	}
	prefix := prefixCell.SymbolName()
	if err := module.CheckImportPath(prefix); err != nil {
		c.errorAt(prefixCell.Pos(), "type_error", "import: invalid prefix %q: %v", prefix, err)
		return none()
	}

	resolved, found := c.resolveIncludePath(pathCell.Str())
	if !found {
		c.errorAt(pathCell.Pos(), "import_error", "import: %q not found on include path", pathCell.Str())
		return none()
	}

	if existing, ok := c.imports[prefix]; ok {
		if existing.path == resolved {
			return none()
		}
		c.errorAt(d.Pos(), "redefinition", "import: prefix %q already bound to %q", prefix, existing.path)
		return none()
	}

	if state, seen := c.shared.visited[resolved]; seen && state == stateInProgress {
		c.errorAt(d.Pos(), "import_error", "import cycle at %q", resolved)
		return none()
	}
	c.shared.visited[resolved] = stateInProgress

	src, err := os.ReadFile(resolved)
	if err != nil {
		c.shared.visited[resolved] = stateFailed
		c.errorAt(pathCell.Pos(), "import_error", "import: %v", err)
		return none()
	}

	child := c.newChildChecker(resolved)
	child.checkProgramSource(string(src), resolved)
	c.diags = append(c.diags, child.diags...)
	c.shared.visited[resolved] = stateReady

	c.imports[prefix] = &importSlot{prefix: prefix, path: resolved, child: child}
	return none()
}

// checkLoadDirective mirrors evalLoadDirective except it never opens the
// dylib: it only looks for and parses the sibling manifest (spec §4.7).
func (c *Checker) checkLoadDirective(d slp.Cell) TypeInfo {
	items := d.Items()
	if len(items) != 2 {
		c.errorAt(d.Pos(), "arity_error", "load requires exactly 1 operand")
		return none()
	}
	nameCell := items[1]
	if nameCell.Tag() != slp.DqList {
		c.errorAt(nameCell.Pos(), "type_error", "load: kernel name must be a string")
		return none()
	}
	name := nameCell.Str()
	manifest, _ := c.loadManifest(name)
	c.kernels[name] = manifest
	return none()
}

// checkPrefixedCall mirrors evalPrefixedCall's resolution order (spec
// §4.6): a registered import prefix resolves against the child checker's
// exported signatures; a registered kernel prefix resolves against its
// manifest, if one was found.
func (c *Checker) checkPrefixedCall(call slp.Cell, prefix, rest string) TypeInfo {
	argExprs := call.Items()[1:]

	if imp, ok := c.imports[prefix]; ok {
		expType, ok := imp.child.exported[rest]
		if !ok {
			c.errorAt(call.Pos(), "unknown_symbol", "unknown symbol %s/%s", prefix, rest)
			for _, e := range argExprs {
				c.checkExpr(e)
			}
			return none()
		}
		argTypes := make([]TypeInfo, len(argExprs))
		for i, e := range argExprs {
			argTypes[i] = c.checkExpr(e)
		}
		if expType.Base == interp.TAberrant && expType.LambdaKnown {
			if rec, ok := imp.child.lambdas.get(expType.LambdaID); ok {
				if len(argExprs) != len(rec.Params) {
					c.errorAt(call.Pos(), "arity_error", "%s/%s: expected %d argument(s), got %d", prefix, rest, len(rec.Params), len(argExprs))
					return rec.Return
				}
				for i, p := range rec.Params {
					want := paramTypeInfo(p)
					if !want.compatible(argTypes[i]) {
						c.errorAt(argExprs[i].Pos(), "type_error", "%s/%s: argument %d: expected %s, got %s", prefix, rest, i+1, want, argTypes[i])
					}
				}
				return rec.Return
			}
		}
		return expType
	}

	if manifest, ok := c.kernels[prefix]; ok {
		argTypes := make([]TypeInfo, len(argExprs))
		for i, e := range argExprs {
			argTypes[i] = c.checkExpr(e)
		}
		if manifest == nil {
			return none()
		}
		fn, ok := manifest.Functions[rest]
		if !ok {
			return none()
		}
		if len(argTypes) != len(fn.Params) {
			c.errorAt(call.Pos(), "arity_error", "%s/%s: expected %d argument(s), got %d", prefix, rest, len(fn.Params), len(argTypes))
			return of(fn.Return)
		}
		for i, pt := range fn.Params {
			want := of(pt)
			if !want.compatible(argTypes[i]) {
				c.errorAt(argExprs[i].Pos(), "type_error", "%s/%s: argument %d: expected %s, got %s", prefix, rest, i+1, want, argTypes[i])
			}
		}
		return of(fn.Return)
	}

	c.errorAt(call.Pos(), "unknown_symbol", "unknown prefix %q", prefix)
	for _, e := range argExprs {
		c.checkExpr(e)
	}
	return none()
}
