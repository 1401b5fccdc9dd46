package interp

import (
	"github.com/slp-lang/slp/kernel"
	"github.com/slp-lang/slp/slp"
)

// evalDatum dispatches a `#(...)` directive (spec §4.5). Directives are
// evaluated wherever they are encountered during a normal eval pass — there
// is no separate macro-expansion phase (spec §3's "Datum directive" entry).
func (it *Interpreter) evalDatum(d slp.Cell) (slp.Cell, *Failure) {
	items := d.Items()
	if len(items) == 0 {
		return slp.Cell{}, ThrowAt(d.Pos(), KindArityMismatch, "empty datum directive")
	}
	head := items[0]
	if head.Tag() != slp.Symbol {
		return slp.Cell{}, ThrowAt(head.Pos(), KindInvalidType, "datum directive head must be a symbol")
	}

	switch head.SymbolName() {
	case "import":
		return it.evalImportDirective(d)
	case "load":
		return it.evalLoadDirective(d)
	case "define-form":
		return it.evalDefineForm(d)
	case "define-kernel":
		return it.evalDefineKernelManifest(d)
	case "define-function":
		return it.evalDefineFunctionManifest(d)
	case "debug":
		return it.evalDebugDatum(d)
	default:
		return slp.Cell{}, ThrowAt(head.Pos(), KindUnknownSymbol, "unknown datum directive %q", head.SymbolName())
	}
}

// evalDebugDatum is `#(debug ...)`, the datum-position equivalent of the
// `debug` builtin (spec §4.5).
func (it *Interpreter) evalDebugDatum(d slp.Cell) (slp.Cell, *Failure) {
	return builtinDebug(it, slp.NewParenList(d.Items()).WithPos(d.Pos()))
}

// kernelManifestEntry records one `#(define-kernel ...)` / `#(define-function
// ...)` pair seen while evaluating a source file. The interpreter itself
// never needs these — a kernel is loaded and self-registers its real
// signatures through `#(load ...)` — but tcs's manifest parser (spec §4.7)
// consumes the exact same directive shape from the sibling `<name>.sxs`
// file, so the interpreter records each define-kernel block in it.manifests
// rather than silently discarding it. A bare `#(define-function ...)` is
// validated but not recorded, and nothing in the package reads
// it.manifests back.
type kernelManifestEntry struct {
	Kernel    string
	LibFile   string
	Functions []kernel.Signature
}

// evalDefineKernelManifest handles `#(define-kernel <name> "<libfile>"
// [ (define-function ...) ... ])` (spec §4.5, §6). At runtime this is
// purely declarative bookkeeping; nothing is loaded here.
func (it *Interpreter) evalDefineKernelManifest(d slp.Cell) (slp.Cell, *Failure) {
	items := d.Items()
	if len(items) < 3 {
		return slp.Cell{}, ThrowAt(d.Pos(), KindArityMismatch, "define-kernel requires at least 2 operands")
	}
	nameCell, libCell := items[1], items[2]
	if nameCell.Tag() != slp.Symbol {
		return slp.Cell{}, ThrowAt(nameCell.Pos(), KindInvalidType, "define-kernel: name must be a symbol")
	}
	if libCell.Tag() != slp.DqList {
		return slp.Cell{}, ThrowAt(libCell.Pos(), KindInvalidType, "define-kernel: libfile must be a string")
	}
	entry := kernelManifestEntry{Kernel: nameCell.SymbolName(), LibFile: libCell.Str()}
	if len(items) >= 4 && items[3].Tag() == slp.BracketList {
		for _, fnForm := range items[3].Items() {
			sig, ferr := parseFunctionManifestForm(fnForm)
			if ferr != nil {
				return slp.Cell{}, ferr
			}
			entry.Functions = append(entry.Functions, sig)
		}
	}
	if it.manifests == nil {
		it.manifests = map[string]*kernelManifestEntry{}
	}
	it.manifests[entry.Kernel] = &entry
	return slp.NewNone(), nil
}

// evalDefineFunctionManifest handles a bare top-level `#(define-function
// <name> (param :type ...) :ret)`, used when a manifest declares one
// function outside of a wrapping `define-kernel` block.
func (it *Interpreter) evalDefineFunctionManifest(d slp.Cell) (slp.Cell, *Failure) {
	_, ferr := parseFunctionManifestForm(d)
	if ferr != nil {
		return slp.Cell{}, ferr
	}
	return slp.NewNone(), nil
}

func parseFunctionManifestForm(form slp.Cell) (kernel.Signature, *Failure) {
	if form.Tag() != slp.Datum && form.Tag() != slp.ParenList {
		return kernel.Signature{}, ThrowAt(form.Pos(), KindInvalidType, "define-function: malformed entry")
	}
	items := form.Items()
	if len(items) < 3 || items[0].Tag() != slp.Symbol || items[0].SymbolName() != "define-function" {
		return kernel.Signature{}, ThrowAt(form.Pos(), KindInvalidType, "expected a define-function entry")
	}
	nameCell, paramsCell, retCell := items[1], items[2], items[len(items)-1]
	if nameCell.Tag() != slp.Symbol || paramsCell.Tag() != slp.ParenList || retCell.Tag() != slp.Symbol {
		return kernel.Signature{}, ThrowAt(form.Pos(), KindInvalidType, "define-function: malformed entry")
	}
	sig := kernel.Signature{Name: nameCell.SymbolName(), ReturnType: retCell.SymbolName()}
	paramItems := paramsCell.Items()
	for i := 1; i < len(paramItems); i += 2 {
		sig.ParamTypes = append(sig.ParamTypes, paramItems[i].SymbolName())
	}
	return sig, nil
}
