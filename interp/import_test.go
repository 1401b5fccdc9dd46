package interp

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

// unpackTxtar writes each file in a txtar archive under a temp dir, returning
// the dir. A single archive can hold a main program plus the files it
// imports, which keeps a multi-file import scenario readable as one literal
// block instead of several separate fixture files on disk.
func unpackTxtar(t *testing.T, archive string) string {
	t.Helper()
	dir := t.TempDir()
	ar := txtar.Parse([]byte(archive))
	for _, f := range ar.Files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatalf("unpacking %s: %v", f.Name, err)
		}
	}
	return dir
}

func TestImportResolvesExportedLambda(t *testing.T) {
	dir := unpackTxtar(t, `
-- main.slp --
[
#(import m "mod.slp")
(def r (m/make 7))
]
-- mod.slp --
[
(export make (fn (x :int) :int [x]))
]
`)
	it := New(Options{WorkingDir: dir})
	if _, err := it.EvalFile(filepath.Join(dir, "main.slp")); err != nil {
		t.Fatalf("EvalFile: unexpected error: %v", err)
	}
	r := global(t, it, "r")
	if r.Int() != 7 {
		t.Errorf("r = %v, want Integer 7", r)
	}
}

func TestImportUnexportedSymbolIsUnknown(t *testing.T) {
	dir := unpackTxtar(t, `
-- main.slp --
[
#(import m "mod.slp")
(m/hidden 1)
]
-- mod.slp --
[
(def hidden (fn (x :int) :int [x]))
]
`)
	it := New(Options{WorkingDir: dir})
	_, err := it.EvalFile(filepath.Join(dir, "main.slp"))
	if err == nil {
		t.Fatal("expected an error calling an unexported symbol across an import boundary")
	}
	f, ok := err.(*Failure)
	if !ok || f.Kind != KindUnknownSymbol {
		t.Errorf("err = %v, want KindUnknownSymbol", err)
	}
}

func TestImportSamePrefixDifferentPathIsRedefinition(t *testing.T) {
	dir := unpackTxtar(t, `
-- main.slp --
[
#(import m "a.slp")
#(import m "b.slp")
]
-- a.slp --
[(export one (fn () :int [1]))]
-- b.slp --
[(export two (fn () :int [2]))]
`)
	it := New(Options{WorkingDir: dir})
	_, err := it.EvalFile(filepath.Join(dir, "main.slp"))
	if err == nil {
		t.Fatal("expected a redefinition error on a repeated prefix with a different path")
	}
	f, ok := err.(*Failure)
	if !ok || f.Kind != KindRedefinition {
		t.Errorf("err = %v, want KindRedefinition", err)
	}
}

func TestImportSamePrefixSamePathIsIdempotent(t *testing.T) {
	dir := unpackTxtar(t, `
-- main.slp --
[
#(import m "mod.slp")
#(import m "mod.slp")
(def r (m/make 9))
]
-- mod.slp --
[(export make (fn (x :int) :int [x]))]
`)
	it := New(Options{WorkingDir: dir})
	if _, err := it.EvalFile(filepath.Join(dir, "main.slp")); err != nil {
		t.Fatalf("EvalFile: unexpected error: %v", err)
	}
	r := global(t, it, "r")
	if r.Int() != 9 {
		t.Errorf("r = %v, want Integer 9", r)
	}
}
