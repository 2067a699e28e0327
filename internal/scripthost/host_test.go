package scripthost

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

func writeScript(t *testing.T, dir, file, code string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(code), 0o644); err != nil {
		t.Fatalf("write %s: %v", file, err)
	}
}

// newScriptDir writes the constants and main scripts required by Init.
func newScriptDir(t *testing.T, main string) string {
	t.Helper()
	dir := t.TempDir()
	writeScript(t, dir, "_constants.lua", `VERSION = "1.0"`)
	writeScript(t, dir, "_main.lua", main)
	return dir
}

func newTestHost(t *testing.T, dir string) (*Host, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	h, err := New(Config{Dir: dir, Logger: log.New(&logs, "", 0)})
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	t.Cleanup(func() { h.Destroy() })
	return h, &logs
}

func initHost(t *testing.T, main string) (*Host, string) {
	t.Helper()
	dir := newScriptDir(t, main)
	h, _ := newTestHost(t, dir)
	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return h, dir
}

func mustGlobal(t *testing.T, h *Host, name string) Var {
	t.Helper()
	v, err := h.GetGlobalVariable(name)
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	return v
}

func TestNewRequiresDir(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestInitLoadsConventionalScripts(t *testing.T) {
	dir := newScriptDir(t, `MAIN_SAW_VERSION = VERSION`)
	writeScript(t, dir, "mod_a.lua", `LOADED_A = true`)
	writeScript(t, dir, "_private.lua", `LOADED_PRIVATE = true`)
	writeScript(t, dir, "notes.txt", `LOADED_TXT = true`)
	writeScript(t, dir, "broken.lua", `error("bad mod")`)
	writeScript(t, dir, "mod_b.lua", `LOADED_B = true`)
	if err := os.Mkdir(filepath.Join(dir, "sub.lua"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	h, logs := newTestHost(t, dir)
	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if h.Status() != StateLoaded {
		t.Fatalf("state = %s, want loaded", h.Status())
	}

	if v, _ := mustGlobal(t, h, "MAIN_SAW_VERSION").AsString(); v != "1.0" {
		t.Fatalf("main saw version %q", v)
	}
	for _, name := range []string{"LOADED_A", "LOADED_B"} {
		if b, ok := mustGlobal(t, h, name).AsBool(); !ok || !b {
			t.Fatalf("%s not loaded", name)
		}
	}
	for _, name := range []string{"LOADED_PRIVATE", "LOADED_TXT"} {
		if mustGlobal(t, h, name).Kind() != KindNil {
			t.Fatalf("%s must not be auto-loaded", name)
		}
	}
	if !strings.Contains(logs.String(), "bad mod") {
		t.Fatalf("expected broken script to be logged, got %q", logs.String())
	}
}

func TestInitFailsWithoutMainScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "_constants.lua", `X = 1`)
	h, _ := newTestHost(t, dir)

	err := h.Init()
	if !apperrors.IsCode(err, apperrors.CodeScriptLoad) {
		t.Fatalf("err = %v, want script load", err)
	}
	if h.Status() != StateUninitialized {
		t.Fatalf("state = %s, want uninitialized", h.Status())
	}
	if n, _ := mustGlobal(t, h, "X").AsNumber(); n != 1 {
		t.Fatal("host must stay usable for diagnostics")
	}
}

func TestInitFailsWhenConstantsRaise(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "_constants.lua", `error("no constants")`)
	writeScript(t, dir, "_main.lua", `MAIN = true`)
	h, _ := newTestHost(t, dir)

	err := h.Init()
	if !apperrors.IsCode(err, apperrors.CodeScriptRuntime) {
		t.Fatalf("err = %v, want script runtime", err)
	}
	if !strings.Contains(err.Error(), "no constants") {
		t.Fatalf("err = %v, want engine message", err)
	}
}

func TestLifecycleIsLinear(t *testing.T) {
	dir := newScriptDir(t, ``)
	h, _ := newTestHost(t, dir)
	if err := h.Start(); !apperrors.IsCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("start before init err = %v", err)
	}
	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := h.Init(); !apperrors.IsCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("second init err = %v", err)
	}
	if err := h.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h.Status() != StateRunning {
		t.Fatalf("state = %s", h.Status())
	}
	h.Destroy()
	if h.Status() != StateDestroyed {
		t.Fatalf("state = %s", h.Status())
	}
	if err := h.LoadScript("_main"); !apperrors.IsCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("load after destroy err = %v", err)
	}
	if _, err := h.GetGlobalVariable("x"); !apperrors.IsCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("get after destroy err = %v", err)
	}
	if h.Destroy() != 0 {
		t.Fatal("second destroy must report nothing")
	}
}

func TestPushGlobalVariableRoundTrip(t *testing.T) {
	h, _ := initHost(t, ``)
	tests := []struct {
		name string
		raw  string
		kind Kind
		want Var
	}{
		{name: "flag", raw: "true", kind: KindBool, want: Bool(true)},
		{name: "count", raw: "2.5", kind: KindNumber, want: Number(2.5)},
		{name: "title", raw: "Might and Magic", kind: KindString, want: String("Might and Magic")},
		{name: "gone", raw: "ignored", kind: KindNil, want: Nil()},
	}
	for _, tt := range tests {
		if err := h.PushGlobalVariable(tt.name, tt.raw, tt.kind); err != nil {
			t.Fatalf("push %s: %v", tt.name, err)
		}
		got := mustGlobal(t, h, tt.name)
		if got != tt.want {
			t.Fatalf("%s = %#v, want %#v", tt.name, got, tt.want)
		}
	}
}

func TestPushGlobalVariableRejectsBadText(t *testing.T) {
	h, _ := initHost(t, ``)
	if err := h.PushGlobalVariable("flag", "maybe", KindBool); !apperrors.IsCode(err, apperrors.CodeTypeMismatch) {
		t.Fatalf("err = %v, want type mismatch", err)
	}
	if err := h.PushGlobalVariable("h", "x", KindHandle); !apperrors.IsCode(err, apperrors.CodeTypeMismatch) {
		t.Fatalf("err = %v, want type mismatch", err)
	}
}

func TestGetGlobalVariableRejectsTablesAndFunctions(t *testing.T) {
	h, _ := initHost(t, `T = {} function F() end`)
	for _, name := range []string{"T", "F"} {
		if _, err := h.GetGlobalVariable(name); !apperrors.IsCode(err, apperrors.CodeTypeMismatch) {
			t.Fatalf("%s err = %v, want type mismatch", name, err)
		}
	}
}

func TestLoadScriptFailuresLeaveStateUnchanged(t *testing.T) {
	h, dir := initHost(t, `KEEP = "yes"`)
	writeScript(t, dir, "syntax.lua", `this is not lua`)
	writeScript(t, dir, "raises.lua", `KEEP = "changed" error("late failure")`)
	before := h.HandleCount()

	if err := h.LoadScript("missing"); !apperrors.IsCode(err, apperrors.CodeScriptLoad) {
		t.Fatalf("missing err = %v", err)
	}
	if v, _ := mustGlobal(t, h, "KEEP").AsString(); v != "yes" {
		t.Fatalf("KEEP = %q after missing load", v)
	}
	if err := h.LoadScript("syntax"); !apperrors.IsCode(err, apperrors.CodeScriptLoad) {
		t.Fatalf("syntax err = %v", err)
	}
	err := h.LoadScript("raises")
	if !apperrors.IsCode(err, apperrors.CodeScriptRuntime) {
		t.Fatalf("runtime err = %v", err)
	}
	if !strings.Contains(err.Error(), "late failure") {
		t.Fatalf("err = %v, want message text", err)
	}
	// Side effects before the failure stay applied.
	if v, _ := mustGlobal(t, h, "KEEP").AsString(); v != "changed" {
		t.Fatalf("KEEP = %q", v)
	}
	if h.HandleCount() != before {
		t.Fatalf("handles = %d, want %d", h.HandleCount(), before)
	}
	if h.Lua().Top() != 0 {
		t.Fatalf("stack top = %d, want 0", h.Lua().Top())
	}
}

func TestCallReferencedFunction(t *testing.T) {
	h, _ := initHost(t, `
function AppInit() INIT_CALLS = (INIT_CALLS or 0) + 1 end
function Play() error("cannot play") end
function SidebuttonClick(id) CLICKED = id end
`)
	if err := h.CallReferencedFunction(FunctionAppInit); err != nil {
		t.Fatalf("AppInit: %v", err)
	}
	if n, _ := mustGlobal(t, h, "INIT_CALLS").AsNumber(); n != 1 {
		t.Fatalf("INIT_CALLS = %v", n)
	}

	err := h.CallReferencedFunction(FunctionPlay)
	if !apperrors.IsCode(err, apperrors.CodeScriptRuntime) || !strings.Contains(err.Error(), "cannot play") {
		t.Fatalf("Play err = %v", err)
	}

	if err := h.CallReferencedFunction(FunctionAppDestroy); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("missing hook err = %v", err)
	}
	if err := h.CallReferencedFunction(Function(99)); !apperrors.IsCode(err, apperrors.CodeOutOfRange) {
		t.Fatalf("bad slot err = %v", err)
	}

	if err := h.CallReferencedFunctionArgs(FunctionSidebuttonClick, []Var{Number(3)}); err != nil {
		t.Fatalf("SidebuttonClick: %v", err)
	}
	if n, _ := mustGlobal(t, h, "CLICKED").AsNumber(); n != 3 {
		t.Fatalf("CLICKED = %v", n)
	}
	if h.Lua().Top() != 0 {
		t.Fatalf("stack top = %d, want 0", h.Lua().Top())
	}
}

func TestReferenceTableResolution(t *testing.T) {
	h, _ := initHost(t, `function AppInit() end function PostAppConfigure() end`)
	resolved := map[Function]bool{FunctionAppInit: true, FunctionPostAppConfigure: true}
	for _, fn := range Functions() {
		ref, ok := h.Reference(fn)
		if !ok {
			t.Fatalf("no slot for %s", fn)
		}
		if ref.Name != fn.String() {
			t.Fatalf("slot name = %q, want %q", ref.Name, fn.String())
		}
		if ref.Resolved() != resolved[fn] {
			t.Fatalf("%s resolved = %v", fn, ref.Resolved())
		}
	}
	if h.HandleCount() != 2 {
		t.Fatalf("handles = %d, want 2", h.HandleCount())
	}
}

func TestCallEvent(t *testing.T) {
	h, _ := initHost(t, `
function events.Init() INIT = true end
function events.Foo(a, b, c) SUM = a + b; NAME = c end
events.NotCallable = 5
`)
	if err := h.CallEvent("Init"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if b, _ := mustGlobal(t, h, "INIT").AsBool(); !b {
		t.Fatal("Init handler not called")
	}
	if err := h.CallEvent("Unknown"); err != nil {
		t.Fatalf("missing handler must be a no-op: %v", err)
	}
	if err := h.CallEvent("NotCallable"); err != nil {
		t.Fatalf("non-callable handler must be a no-op: %v", err)
	}
	if err := h.CallEventArgs("Foo", []Var{Number(1), Number(2), String("x")}); err != nil {
		t.Fatalf("Foo: %v", err)
	}
	if n, _ := mustGlobal(t, h, "SUM").AsNumber(); n != 3 {
		t.Fatalf("SUM = %v", n)
	}
	if s, _ := mustGlobal(t, h, "NAME").AsString(); s != "x" {
		t.Fatalf("NAME = %q", s)
	}
}

func TestCallEventWithoutEventsTable(t *testing.T) {
	h, _ := initHost(t, `events = nil`)
	if err := h.CallEvent("Init"); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestCallEventErrorIsCaught(t *testing.T) {
	h, _ := initHost(t, `function events.Boom() error("kaboom") end`)
	err := h.CallEvent("Boom")
	if !apperrors.IsCode(err, apperrors.CodeScriptRuntime) {
		t.Fatalf("err = %v", err)
	}
	if err := h.ExecString(`AFTER = 1`); err != nil {
		t.Fatalf("host unusable after error: %v", err)
	}
}

func TestExecStringErrors(t *testing.T) {
	h, _ := initHost(t, ``)
	if err := h.ExecString(`(`); !apperrors.IsCode(err, apperrors.CodeScriptLoad) {
		t.Fatalf("compile err = %v", err)
	}
	if err := h.ExecString(`error("x")`); !apperrors.IsCode(err, apperrors.CodeScriptRuntime) {
		t.Fatalf("runtime err = %v", err)
	}
}

func TestScriptPathConvention(t *testing.T) {
	h, err := New(Config{Dir: "scripts", Extension: ".script"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer h.Destroy()
	if got := h.ScriptPath("setup"); got != filepath.Join("scripts", "setup.script") {
		t.Fatalf("path = %q", got)
	}
}
