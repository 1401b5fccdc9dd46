package tcs

import (
	"go/token"
	"os"
	"path/filepath"

	"github.com/slp-lang/slp/interp"
	"github.com/slp-lang/slp/slp"
)

// manifestFn is one `(define-function name (param :type …) :ret)` entry
// parsed out of a kernel's sibling `<name>.sxs` manifest (spec §4.7: "For
// kernels: parses the kernel's declarative manifest ... to learn function
// signatures; real execution is never required during checking").
type manifestFn struct {
	Name   string
	Params []interp.TypeTag
	Return interp.TypeTag
}

// kernelManifest is everything the checker learns about a kernel without
// ever opening its dylib.
type kernelManifest struct {
	Name      string
	Functions map[string]manifestFn
}

// resolveManifestPath mirrors interp's include-path resolution
// (interp/import.go's resolveIncludePath) but only ever looks for the
// `<name>.sxs` text file — never the dylib itself (spec §4.7: "does not
// load dylibs; it only parses manifest files").
func (c *Checker) resolveManifestPath(name string) (string, bool) {
	fname := name + ".sxs"
	candidates := append([]string{c.opt.WorkingDir}, c.opt.IncludePaths...)
	for _, dir := range candidates {
		full := filepath.Join(dir, fname)
		if _, err := os.Stat(full); err == nil {
			return full, true
		}
	}
	return "", false
}

// loadManifest parses name's sibling manifest, if one is found on the
// include path. A kernel with no manifest present is not a checker error:
// its functions simply can't be statically type-checked (any argument
// matches, result type is :none), which is consistent with eval.go treating
// kernel calls as opaque native dispatch.
func (c *Checker) loadManifest(name string) (*kernelManifest, bool) {
	if m, ok := c.manifestCache[name]; ok {
		return m, m != nil
	}
	path, found := c.resolveManifestPath(name)
	if !found {
		c.manifestCache[name] = nil
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.manifestCache[name] = nil
		return nil, false
	}
	result := slp.Parse(string(data))
	if result.Err != nil {
		c.errorAt(token.NoPos, "import_error", "kernel %q: manifest %s: %s", name, path, result.Err.Message)
		c.manifestCache[name] = nil
		return nil, false
	}

	manifest := &kernelManifest{Name: name, Functions: map[string]manifestFn{}}
	for _, top := range result.Object.Items() {
		c.collectManifestForm(manifest, top)
	}
	c.manifestCache[name] = manifest
	return manifest, true
}

// checkDefineKernelManifest handles a `#(define-kernel ...)` directive seen
// inline in a checked program (as opposed to one read out of a sibling
// manifest file by loadManifest): it records the same Functions table so a
// later `#(load "name")` with no manifest file on disk still lets
// checkPrefixedCall type-check calls into it (spec §4.7).
func (c *Checker) checkDefineKernelManifest(d slp.Cell) {
	items := d.Items()
	if len(items) < 3 {
		c.errorAt(d.Pos(), "arity_error", "define-kernel requires at least 2 operands")
		return
	}
	nameCell, libCell := items[1], items[2]
	if nameCell.Tag() != slp.Symbol {
		c.errorAt(nameCell.Pos(), "type_error", "define-kernel: name must be a symbol")
		return
	}
	if libCell.Tag() != slp.DqList {
		c.errorAt(libCell.Pos(), "type_error", "define-kernel: libfile must be a string")
		return
	}
	manifest := &kernelManifest{Name: nameCell.SymbolName(), Functions: map[string]manifestFn{}}
	if len(items) >= 4 && items[3].Tag() == slp.BracketList {
		for _, fnForm := range items[3].Items() {
			if fn, ok := c.parseManifestFunction(fnForm); ok {
				manifest.Functions[fn.Name] = fn
			}
		}
	}
	c.kernels[manifest.Name] = manifest
	c.manifestCache[manifest.Name] = manifest
}

func (c *Checker) collectManifestForm(manifest *kernelManifest, form slp.Cell) {
	if form.Tag() != slp.Datum {
		return
	}
	items := form.Items()
	if len(items) == 0 || items[0].Tag() != slp.Symbol {
		return
	}
	switch items[0].SymbolName() {
	case "define-kernel":
		if len(items) >= 4 && items[3].Tag() == slp.BracketList {
			for _, fnForm := range items[3].Items() {
				if fn, ok := c.parseManifestFunction(fnForm); ok {
					manifest.Functions[fn.Name] = fn
				}
			}
		}
	case "define-function":
		if fn, ok := c.parseManifestFunction(form); ok {
			manifest.Functions[fn.Name] = fn
		}
	}
}

func (c *Checker) parseManifestFunction(form slp.Cell) (manifestFn, bool) {
	var items []slp.Cell
	switch form.Tag() {
	case slp.Datum, slp.ParenList:
		items = form.Items()
	default:
		return manifestFn{}, false
	}
	if len(items) < 3 || items[0].Tag() != slp.Symbol || items[0].SymbolName() != "define-function" {
		return manifestFn{}, false
	}
	nameCell, paramsCell, retCell := items[1], items[2], items[len(items)-1]
	if nameCell.Tag() != slp.Symbol || paramsCell.Tag() != slp.ParenList || retCell.Tag() != slp.Symbol {
		return manifestFn{}, false
	}
	retTag, _, ok := interp.ParseTypeSymbol(retCell.SymbolName())
	if !ok {
		return manifestFn{}, false
	}
	fn := manifestFn{Name: nameCell.SymbolName(), Return: retTag}
	paramItems := paramsCell.Items()
	for i := 1; i < len(paramItems); i += 2 {
		t, _, ok := interp.ParseTypeSymbol(paramItems[i].SymbolName())
		if !ok {
			return manifestFn{}, false
		}
		fn.Params = append(fn.Params, t)
	}
	return fn, true
}
