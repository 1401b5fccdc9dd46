package interp

import (
	"github.com/slp-lang/slp/kernel"
	"github.com/slp-lang/slp/slp"
)

// kernelContextImpl adapts one Interpreter into the kernel.Context a loaded
// kernel function receives, so it can re-enter this interpreter (spec §4.8,
// §5's re-entrancy requirement) without holding a direct reference to the
// interp package's unexported Interpreter type.
type kernelContextImpl struct{ it *Interpreter }

func (k kernelContextImpl) Eval(cell slp.Cell) (slp.Cell, error) {
	v, err := k.it.eval(cell)
	if err != nil {
		return slp.Cell{}, err
	}
	return v, nil
}

func (k kernelContextImpl) WorkingDir() string { return k.it.opt.WorkingDir }

func (it *Interpreter) kernelContext() kernel.Context {
	return kernelContextImpl{it: it}
}

func (it *Interpreter) apiTable() *kernel.APITable {
	return kernel.NewAPITable(func(ctx kernel.Context, cell slp.Cell) (slp.Cell, error) {
		return ctx.Eval(cell)
	}, it.opt.WorkingDir)
}

// evalLoadDirective handles `#(load "<kernel-name>")` (spec §4.5, §4.8):
// locates the kernel on the include path, loads it through the
// program-shared *kernel.Loader (so it is loaded once and shared across
// every sub-interpreter, per spec §5), and registers it under
// "<kernel-name>/" in this interpreter's own kernel prefix namespace.
func (it *Interpreter) evalLoadDirective(d slp.Cell) (slp.Cell, *Failure) {
	items := d.Items()
	if len(items) != 2 {
		return slp.Cell{}, ThrowAt(d.Pos(), KindArityMismatch, "load requires exactly 1 operand")
	}
	nameCell := items[1]
	if nameCell.Tag() != slp.DqList {
		return slp.Cell{}, ThrowAt(nameCell.Pos(), KindInvalidType, "load: kernel name must be a string")
	}
	name := nameCell.Str()

	loaded, err := it.shared.loader.Load(name, it.apiTable())
	if err != nil {
		return slp.Cell{}, ThrowAt(d.Pos(), KindKernelLoadFailed, "%v", err)
	}

	it.shared.mu.Lock()
	it.shared.order = append(it.shared.order, name)
	it.shared.mu.Unlock()

	it.kernels[name] = &kernelSlot{name: name, loaded: loaded}
	return slp.NewNone(), nil
}
