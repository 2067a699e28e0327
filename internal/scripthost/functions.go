package scripthost

import (
	"strconv"

	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// Function enumerates the application hooks scripts may define as globals.
type Function int

const (
	FunctionAppInit Function = iota
	FunctionPostAppInit
	FunctionAppDestroy
	FunctionPostAppDestroy
	FunctionAppConfigure
	FunctionPostAppConfigure
	FunctionPlay
	FunctionSidebuttonClick
	functionCount
)

var functionNames = [functionCount]string{
	"AppInit",
	"PostAppInit",
	"AppDestroy",
	"PostAppDestroy",
	"AppConfigure",
	"PostAppConfigure",
	"Play",
	"SidebuttonClick",
}

func (f Function) String() string {
	if f < 0 || f >= functionCount {
		return "Function(" + strconv.Itoa(int(f)) + ")"
	}
	return functionNames[f]
}

// Functions lists every hook in table order.
func Functions() []Function {
	out := make([]Function, functionCount)
	for i := range out {
		out[i] = Function(i)
	}
	return out
}

// FunctionReference is a hook resolved by global name during Init.
type FunctionReference struct {
	Name   string
	handle *Handle
}

// Resolved reports whether the script defined the hook.
func (r FunctionReference) Resolved() bool {
	return r.handle.Valid()
}

// Reference returns the table entry for fn.
func (h *Host) Reference(fn Function) (FunctionReference, bool) {
	if fn < 0 || fn >= functionCount {
		return FunctionReference{}, false
	}
	return h.functions[fn], true
}

func (h *Host) resolveFunctions() {
	for i := range h.functions {
		ref := &h.functions[i]
		h.l.Global(ref.Name)
		if !h.l.IsFunction(-1) {
			h.l.Pop(1)
			h.logf("hook %s not defined", ref.Name)
			continue
		}
		ref.handle = h.persist(h.l)
	}
}

// CallReferencedFunction calls the hook with no arguments and no results.
func (h *Host) CallReferencedFunction(fn Function) error {
	return h.CallReferencedFunctionArgs(fn, nil)
}

// CallReferencedFunctionArgs calls the hook with args and no results.
// Calling an undefined hook is a NOT_FOUND error.
func (h *Host) CallReferencedFunctionArgs(fn Function, args []Var) error {
	if err := h.alive("call " + fn.String()); err != nil {
		return err
	}
	ref, ok := h.Reference(fn)
	if !ok {
		return apperrors.New(apperrors.CodeOutOfRange, "unknown hook "+fn.String())
	}
	if !ref.Resolved() {
		return apperrors.WithMetadata(apperrors.CodeNotFound, "hook "+ref.Name+" is not defined",
			map[string]string{"Name": ref.Name})
	}

	top := h.l.Top()
	defer h.l.SetTop(top)

	if err := ref.handle.Push(h.l); err != nil {
		return err
	}
	for _, arg := range args {
		if err := h.PushVar(h.l, arg); err != nil {
			return err
		}
	}
	if err := protectedCall(h.l, len(args), 0); err != nil {
		return apperrors.WrapWithMetadata(apperrors.CodeScriptRuntime, "call "+ref.Name,
			map[string]string{"Script": ref.Name}, err)
	}
	return nil
}
