package kernel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/slp-lang/slp/slp"
)

func TestLoaderFindNotFound(t *testing.T) {
	l := NewLoader([]string{t.TempDir()})
	if _, _, err := l.Find("nope"); err == nil {
		t.Fatal("expected an error for a kernel absent from the include path")
	}
}

func TestLoaderFindLocatesDylibAndManifest(t *testing.T) {
	dir := t.TempDir()
	dylib := filepath.Join(dir, dylibFileName("math"))
	if err := os.WriteFile(dylib, []byte{}, 0o644); err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(dir, "math.sxs")
	if err := os.WriteFile(manifest, []byte("#(define-kernel math)"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader([]string{t.TempDir(), dir})
	gotDylib, gotManifest, err := l.Find("math")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if gotDylib != dylib {
		t.Errorf("dylib path = %q, want %q", gotDylib, dylib)
	}
	if gotManifest != manifest {
		t.Errorf("manifest path = %q, want %q", gotManifest, manifest)
	}
}

func TestLoaderLoadMissingKernel(t *testing.T) {
	l := NewLoader([]string{t.TempDir()})
	if _, err := l.Load("absent", nil); err == nil {
		t.Fatal("expected an error loading a kernel that isn't on the include path")
	}
}

func TestCollectingRegistryStoresSignature(t *testing.T) {
	loaded := &Loaded{Name: "math", Functions: map[string]registeredFn{}}
	reg := &collectingRegistry{loaded: loaded}
	sig := Signature{Name: "add", ParamTypes: []string{":int", ":int"}, ReturnType: ":int"}
	reg.RegisterFunction("add", func(ctx Context, call slp.Cell) (slp.Cell, error) {
		return slp.NewInteger(0), nil
	}, sig)

	fn, gotSig, ok := loaded.Lookup("add")
	if !ok || fn == nil {
		t.Fatal("expected add to be registered")
	}
	if gotSig.ReturnType != ":int" {
		t.Errorf("ReturnType = %q, want :int", gotSig.ReturnType)
	}
}

func TestShutdownAllRunsReverseOrder(t *testing.T) {
	var ran []string
	l := NewLoader(nil)
	l.loaded["a"] = &Loaded{Name: "a", shutdown: func(api *APITable) { ran = append(ran, "a") }}
	l.loaded["b"] = &Loaded{Name: "b", shutdown: func(api *APITable) { ran = append(ran, "b") }}
	l.ShutdownAll([]string{"a", "b"})

	if len(ran) != 2 || ran[0] != "b" || ran[1] != "a" {
		t.Errorf("shutdown order = %v, want [b a]", ran)
	}
}

func TestNewAPITableConstructors(t *testing.T) {
	api := NewAPITable(func(ctx Context, cell slp.Cell) (slp.Cell, error) { return cell, nil }, "/work")
	if info := api.GetSystemInfo(); info.WorkingRoot != "/work" {
		t.Errorf("WorkingRoot = %q, want /work", info.WorkingRoot)
	}
	if v := api.CreateInt(42); v.Int() != 42 {
		t.Errorf("CreateInt(42).Int() = %d, want 42", v.Int())
	}
	if v := api.CreateString("hi"); v.Str() != "hi" {
		t.Errorf("CreateString(%q).Str() = %q", "hi", v.Str())
	}
}
