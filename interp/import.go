package interp

import (
	"os"
	"path/filepath"

	"golang.org/x/mod/module"

	"github.com/slp-lang/slp/slp"
)

// newChildInterpreter builds the sub-interpreter an import runs in: its own
// scope and lambda table, but the shared program state (cycle guard, kernel
// loader) and the package-level builtin table (spec §4.6 — "share the
// builtin table and the kernel registry but not the user scope").
func (it *Interpreter) newChildInterpreter(name string) *Interpreter {
	return &Interpreter{
		opt:       it.opt,
		fset:      it.fset,
		name:      name,
		shared:    it.shared,
		scope:     newScope(),
		lambdas:   newLambdaTable(),
		imports:   map[string]*importSlot{},
		kernels:   map[string]*kernelSlot{},
		forms:     map[string]*formDef{},
		exported:  map[string]bool{},
		manifests: map[string]*kernelManifestEntry{},
	}
}

// isExported reports whether name was bound through `export` rather than
// plain `def`/`set` (spec §4.5/§4.6).
func (it *Interpreter) isExported(name string) bool {
	return it.exported[name]
}

// resolveIncludePath resolves an import or kernel-manifest-relative path
// against the working directory first, then each include path in order
// (spec §6).
func (it *Interpreter) resolveIncludePath(rel string) (string, bool) {
	if filepath.IsAbs(rel) {
		if _, err := os.Stat(rel); err == nil {
			return rel, true
		}
		return "", false
	}
	candidates := append([]string{it.opt.WorkingDir}, it.opt.IncludePaths...)
	for _, dir := range candidates {
		full := filepath.Join(dir, rel)
		if _, err := os.Stat(full); err == nil {
			return full, true
		}
	}
	return "", false
}

// evalImportDirective handles `#(import <prefix> "<path>")` (spec §4.5,
// §4.6): idempotent on a repeated identical prefix+path, a Redefinition
// error on a repeated prefix with a different path, and an ImportCycle
// error when the resolved file is already InProgress anywhere in the
// program's import graph.
func (it *Interpreter) evalImportDirective(d slp.Cell) (slp.Cell, *Failure) {
	items := d.Items()
	if len(items) != 3 {
		return slp.Cell{}, ThrowAt(d.Pos(), KindArityMismatch, "import requires exactly 2 operands")
	}
	prefixCell, pathCell := items[1], items[2]
	if prefixCell.Tag() != slp.Symbol {
		return slp.Cell{}, ThrowAt(prefixCell.Pos(), KindInvalidType, "import: prefix must be a symbol")
	}
	if pathCell.Tag() != slp.DqList {
		return slp.Cell{}, ThrowAt(pathCell.Pos(), KindInvalidType, "import: path must be a string")
	}
	prefix := prefixCell.SymbolName()
	if err := module.CheckImportPath(prefix); err != nil {
		return slp.Cell{}, ThrowAt(prefixCell.Pos(), KindInvalidType, "import: invalid prefix %q: %v", prefix, err)
	}

	resolved, found := it.resolveIncludePath(pathCell.Str())
	if !found {
		return slp.Cell{}, ThrowAt(pathCell.Pos(), KindImportNotFound, "import: %q not found on include path", pathCell.Str())
	}

	if existing, ok := it.imports[prefix]; ok {
		if existing.path == resolved {
			return slp.NewNone(), nil
		}
		return slp.Cell{}, ThrowAt(d.Pos(), KindRedefinition,
			"import: prefix %q already bound to %q", prefix, existing.path)
	}

	it.shared.mu.Lock()
	if state, seen := it.shared.visited[resolved]; seen && state == stateInProgress {
		it.shared.mu.Unlock()
		return slp.Cell{}, ThrowAt(d.Pos(), KindImportCycle, "import cycle at %q", resolved)
	}
	it.shared.visited[resolved] = stateInProgress
	it.shared.mu.Unlock()

	src, rerr := os.ReadFile(resolved)
	if rerr != nil {
		it.shared.mu.Lock()
		it.shared.visited[resolved] = stateFailed
		it.shared.mu.Unlock()
		return slp.Cell{}, ThrowAt(pathCell.Pos(), KindImportNotFound, "import: %v", rerr)
	}

	child := it.newChildInterpreter(resolved)
	_, evalErr := child.evalNamed(string(src), resolved)

	it.shared.mu.Lock()
	if evalErr != nil {
		it.shared.visited[resolved] = stateFailed
	} else {
		it.shared.visited[resolved] = stateReady
	}
	it.shared.mu.Unlock()
	if evalErr != nil {
		return slp.Cell{}, asFailure(evalErr)
	}

	it.imports[prefix] = &importSlot{prefix: prefix, path: resolved, child: child}
	return slp.NewNone(), nil
}

func asFailure(err error) *Failure {
	if f, ok := err.(*Failure); ok {
		return f
	}
	return Throw(KindImportNotFound, "%v", err)
}

// evalPrefixedCall resolves a slash-prefixed call head (spec §4.6): import
// prefixes resolve through the import's exported bindings and are invoked
// by reconstructing the call in the child interpreter so the existing
// lambda-invocation machinery (arity/type checks, frame push/pop, cleanup)
// runs unchanged; kernel prefixes dispatch directly to the registered
// native function.
func (it *Interpreter) evalPrefixedCall(call slp.Cell, prefix, rest string) (slp.Cell, *Failure) {
	argExprs := call.Items()[1:]

	if imp, ok := it.imports[prefix]; ok {
		if !imp.child.isExported(rest) {
			return slp.Cell{}, ThrowAt(call.Pos(), KindUnknownSymbol, "unknown symbol %s/%s", prefix, rest)
		}
		args := make([]slp.Cell, len(argExprs))
		for i, expr := range argExprs {
			v, err := it.eval(expr)
			if err != nil {
				return slp.Cell{}, err
			}
			args[i] = copyAcrossBoundary(v)
		}
		reconstructed := slp.NewParenList(append([]slp.Cell{slp.NewSymbol(rest)}, args...)).WithPos(call.Pos())
		return imp.child.evalCall(reconstructed)
	}

	if ks, ok := it.kernels[prefix]; ok {
		fn, _, ok := ks.loaded.Lookup(rest)
		if !ok {
			return slp.Cell{}, ThrowAt(call.Pos(), KindUnknownSymbol, "unknown symbol %s/%s", prefix, rest)
		}
		args := make([]slp.Cell, len(argExprs))
		for i, expr := range argExprs {
			v, err := it.eval(expr)
			if err != nil {
				return slp.Cell{}, err
			}
			args[i] = v
		}
		head := slp.NewSymbol(prefix + "/" + rest)
		callCell := slp.NewParenList(append([]slp.Cell{head}, args...)).WithPos(call.Pos())
		res, kerr := fn(it.kernelContext(), callCell)
		if kerr != nil {
			return slp.Cell{}, ThrowAt(call.Pos(), KindKernelLoadFailed, "%s/%s: %v", prefix, rest, kerr)
		}
		return res, nil
	}

	return slp.Cell{}, ThrowAt(call.Pos(), KindUnknownSymbol, "unknown prefix %q", prefix)
}
