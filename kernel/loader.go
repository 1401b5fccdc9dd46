package kernel

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"runtime"
	"sync"

	"golang.org/x/sync/singleflight"
)

// registeredFn pairs a kernel function with the signature its manifest (or
// its own registration call) declared for it.
type registeredFn struct {
	fn  Fn
	sig Signature
}

// Loaded is one successfully loaded kernel dylib: its registered function
// table plus the shutdown hook run at interpreter teardown.
type Loaded struct {
	Name      string
	Path      string
	Functions map[string]registeredFn

	shutdown ShutdownFunc
	api      *APITable
}

// Lookup returns the registered function named name, if any.
func (l *Loaded) Lookup(name string) (Fn, Signature, bool) {
	rf, ok := l.Functions[name]
	return rf.fn, rf.sig, ok
}

// Loader discovers and loads kernel dylibs on an ordered include path,
// caching them process-wide: "Dynamic libraries: loaded once, shared
// across instances, never unloaded until process teardown" (spec §5).
type Loader struct {
	includePaths []string

	mu     sync.Mutex
	loaded map[string]*Loaded
	order  []string
	group  singleflight.Group
}

// NewLoader builds a Loader that searches includePaths, in order, for both
// the kernel's dylib and its sibling manifest.
func NewLoader(includePaths []string) *Loader {
	return &Loader{includePaths: includePaths, loaded: map[string]*Loaded{}}
}

func dylibFileName(name string) string {
	ext := ".so"
	if runtime.GOOS == "darwin" {
		ext = ".dylib"
	}
	return "libkernel_" + name + ext
}

// Find locates name's dylib (and, if present, its sibling <name>.sxs
// manifest) on the include path (spec §6's kernel dylib layout).
func (l *Loader) Find(name string) (dylibPath, manifestPath string, err error) {
	fname := dylibFileName(name)
	mname := name + ".sxs"
	for _, dir := range l.includePaths {
		candidate := filepath.Join(dir, fname)
		if _, statErr := os.Stat(candidate); statErr == nil {
			dylibPath = candidate
			if _, mErr := os.Stat(filepath.Join(dir, mname)); mErr == nil {
				manifestPath = filepath.Join(dir, mname)
			}
			return dylibPath, manifestPath, nil
		}
	}
	return "", "", fmt.Errorf("kernel %q: not found on include path", name)
}

// Load loads (or returns the already-loaded) kernel named name, running its
// KernelInit export exactly once. Concurrent calls for the same name are
// coalesced by singleflight (spec §5's "loaded once" guarantee extended to
// concurrent first-use, since a host embedding multiple goroutines that
// each trigger the same #(load ...) should not race to open the plugin
// twice).
func (l *Loader) Load(name string, api *APITable) (*Loaded, error) {
	l.mu.Lock()
	if existing, ok := l.loaded[name]; ok {
		l.mu.Unlock()
		return existing, nil
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do(name, func() (interface{}, error) {
		return l.loadOnce(name, api)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Loaded), nil
}

func (l *Loader) loadOnce(name string, api *APITable) (*Loaded, error) {
	l.mu.Lock()
	if existing, ok := l.loaded[name]; ok {
		l.mu.Unlock()
		return existing, nil
	}
	l.mu.Unlock()

	path, _, err := l.Find(name)
	if err != nil {
		return nil, err
	}

	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("kernel %q: %w", name, err)
	}
	initSym, err := p.Lookup("KernelInit")
	if err != nil {
		return nil, fmt.Errorf("kernel %q: missing KernelInit export: %w", name, err)
	}
	initFn, ok := initSym.(func(Registry, *APITable))
	if !ok {
		return nil, fmt.Errorf("kernel %q: KernelInit has an unexpected signature", name)
	}

	loaded := &Loaded{Name: name, Path: path, Functions: map[string]registeredFn{}, api: api}
	initFn(&collectingRegistry{loaded: loaded}, api)

	if shutSym, err := p.Lookup("KernelShutdown"); err == nil {
		if shutFn, ok := shutSym.(func(*APITable)); ok {
			loaded.shutdown = shutFn
		}
	}

	l.mu.Lock()
	l.loaded[name] = loaded
	l.order = append(l.order, name)
	l.mu.Unlock()
	return loaded, nil
}

// Order returns the kernel load order recorded so far, for shutdown.
func (l *Loader) Order() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

type collectingRegistry struct{ loaded *Loaded }

func (c *collectingRegistry) RegisterFunction(name string, fn Fn, sig Signature) {
	c.loaded.Functions[name] = registeredFn{fn: fn, sig: sig}
}

// ShutdownAll runs every loaded kernel's KernelShutdown in reverse load
// order (spec §4.8).
func (l *Loader) ShutdownAll(order []string) {
	l.mu.Lock()
	loaded := make(map[string]*Loaded, len(l.loaded))
	for k, v := range l.loaded {
		loaded[k] = v
	}
	l.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		if k, ok := loaded[order[i]]; ok && k.shutdown != nil {
			k.shutdown(k.api)
		}
	}
}
