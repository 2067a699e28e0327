package scripthost

import (
	"testing"

	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

func TestScopeReleasesMarshaledHandles(t *testing.T) {
	h, _ := initHost(t, `T = {1, 2} function F() return true end`)
	l := h.Lua()
	before := h.HandleCount()

	scope := h.NewScope()
	l.Global("T")
	l.Global("F")
	l.PushString("plain")
	vars, err := h.ToVars(l, 1, scope)
	if err != nil {
		t.Fatalf("to vars: %v", err)
	}
	l.SetTop(0)

	if len(vars) != 3 {
		t.Fatalf("vars = %d, want 3", len(vars))
	}
	if vars[0].Kind() != KindHandle || vars[1].Kind() != KindHandle || vars[2].Kind() != KindString {
		t.Fatalf("kinds = %v %v %v", vars[0].Kind(), vars[1].Kind(), vars[2].Kind())
	}
	if scope.Len() != 2 || h.HandleCount() != before+2 {
		t.Fatalf("scope len = %d, handles = %d", scope.Len(), h.HandleCount())
	}
	table, _ := vars[0].AsHandle()
	if table.TypeName() != "table" {
		t.Fatalf("type = %s", table.TypeName())
	}

	scope.Release()
	scope.Release()
	if h.HandleCount() != before {
		t.Fatalf("handles after release = %d, want %d", h.HandleCount(), before)
	}
	if table.Valid() {
		t.Fatal("handle must be invalid after scope release")
	}
	if err := h.PushVar(l, vars[0]); !apperrors.IsCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("push released err = %v", err)
	}
	if l.Top() != 1 {
		t.Fatalf("push of released handle must still push one value, top = %d", l.Top())
	}
	l.SetTop(0)
}

func TestToVarWithoutScopeRejectsTables(t *testing.T) {
	h, _ := initHost(t, `T = {}`)
	l := h.Lua()
	l.Global("T")
	defer l.Pop(1)
	if _, err := h.ToVar(l, -1, nil); !apperrors.IsCode(err, apperrors.CodeTypeMismatch) {
		t.Fatalf("err = %v", err)
	}
}

func TestRetainOutlivesScope(t *testing.T) {
	h, _ := initHost(t, `function F() return "yes" end`)
	l := h.Lua()
	before := h.HandleCount()

	scope := h.NewScope()
	l.Global("F")
	v, err := h.ToVar(l, -1, scope)
	l.Pop(1)
	if err != nil {
		t.Fatalf("to var: %v", err)
	}
	hd, _ := v.AsHandle()
	kept, err := hd.Retain()
	if err != nil {
		t.Fatalf("retain: %v", err)
	}
	scope.Release()

	if !kept.Valid() || h.HandleCount() != before+1 {
		t.Fatalf("kept valid = %v, handles = %d", kept.Valid(), h.HandleCount())
	}
	ok, err := kept.Invoke(nil)
	if err != nil || !ok {
		t.Fatalf("invoke = %v, %v", ok, err)
	}
	kept.Release()
	kept.Release()
	if h.HandleCount() != before {
		t.Fatalf("handles = %d, want %d", h.HandleCount(), before)
	}
	if _, err := kept.Retain(); !apperrors.IsCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("retain released err = %v", err)
	}
}

func TestSlotsAreReused(t *testing.T) {
	h, _ := initHost(t, `function F() end`)
	l := h.Lua()
	l.Global("F")
	first := h.persist(l)
	slot := first.slot
	first.Release()

	l.Global("F")
	second := h.persist(l)
	defer second.Release()
	if second.slot != slot {
		t.Fatalf("slot = %d, want reused %d", second.slot, slot)
	}
}

func TestInvokeTruthiness(t *testing.T) {
	h, _ := initHost(t, `
function Yes() return 1 end
function No() return false end
function Nothing() end
function Raise() error("nope") end
function Echo(ctx) return ctx ~= nil end
NotAFunction = 3
`)
	l := h.Lua()
	tests := []struct {
		name    string
		ctx     any
		want    bool
		errCode apperrors.Code
	}{
		{name: "Yes", want: true},
		{name: "No", want: false},
		{name: "Nothing", want: false},
		{name: "Raise", errCode: apperrors.CodeScriptRuntime},
		{name: "Echo", ctx: "payload", want: true},
		{name: "Echo", want: false},
		{name: "NotAFunction", errCode: apperrors.CodeTypeMismatch},
	}
	for _, tt := range tests {
		l.Global(tt.name)
		hd := h.persist(l)
		got, err := hd.Invoke(tt.ctx)
		hd.Release()
		if tt.errCode != "" {
			if !apperrors.IsCode(err, tt.errCode) {
				t.Fatalf("%s err = %v, want %s", tt.name, err, tt.errCode)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%s = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
	if l.Top() != 0 {
		t.Fatalf("stack top = %d", l.Top())
	}
}

func TestDestroyReportsLeakedHandles(t *testing.T) {
	dir := newScriptDir(t, `function AppInit() end T = {}`)
	h, logs := newTestHost(t, dir)
	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	l := h.Lua()
	l.Global("T")
	leak := h.persist(l)

	if got := h.Destroy(); got != 1 {
		t.Fatalf("leaked = %d, want 1", got)
	}
	if logs.Len() == 0 {
		t.Fatal("expected leak to be logged")
	}
	if leak.Valid() {
		t.Fatal("handle must be invalid after destroy")
	}
	leak.Release()
}

func TestRegistryValue(t *testing.T) {
	h, _ := initHost(t, ``)
	type owner struct{ name string }
	want := &owner{name: "core"}
	if err := h.SetRegistryValue("test.owner", want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := RegistryValue(h.Lua(), "test.owner").(*owner)
	if !ok || got != want {
		t.Fatalf("registry value = %#v", got)
	}
	if RegistryValue(h.Lua(), "test.absent") != nil {
		t.Fatal("absent key must be nil")
	}
	if h.Lua().Top() != 0 {
		t.Fatalf("stack top = %d", h.Lua().Top())
	}
}
