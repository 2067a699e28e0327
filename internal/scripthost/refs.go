package scripthost

import (
	"github.com/Shopify/go-lua"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

const refsKey = "amber.refs"

// refTable keeps persisted values in a private table stored in the Lua
// registry. Freed slots are reused.
type refTable struct {
	free []int
	next int
	live int
}

func (t *refTable) init(l *lua.State) {
	l.NewTable()
	l.SetField(lua.RegistryIndex, refsKey)
	t.next = 1
}

// store pops the top value of l into a new slot.
func (t *refTable) store(l *lua.State) int {
	var slot int
	if n := len(t.free); n > 0 {
		slot = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		slot = t.next
		t.next++
	}
	l.Field(lua.RegistryIndex, refsKey)
	l.PushValue(-2)
	l.RawSetInt(-2, slot)
	l.Pop(2)
	t.live++
	return slot
}

func (t *refTable) push(l *lua.State, slot int) {
	l.Field(lua.RegistryIndex, refsKey)
	l.RawGetInt(-1, slot)
	l.Remove(-2)
}

func (t *refTable) drop(l *lua.State, slot int) {
	l.Field(lua.RegistryIndex, refsKey)
	l.PushNil()
	l.RawSetInt(-2, slot)
	l.Pop(1)
	t.free = append(t.free, slot)
	t.live--
}

// Handle is a persisted reference to a Lua value. It must be released
// exactly once; Release is idempotent so guards may call it freely.
type Handle struct {
	host     *Host
	slot     int
	released bool
}

// persist pops the top value of l into a new handle.
func (h *Host) persist(l *lua.State) *Handle {
	return &Handle{host: h, slot: h.refs.store(l)}
}

// Valid reports whether the handle still refers to a live value.
func (hd *Handle) Valid() bool {
	return hd != nil && !hd.released && hd.host.state != StateDestroyed
}

// Release frees the slot. Later calls do nothing.
func (hd *Handle) Release() {
	if hd == nil || hd.released {
		return
	}
	hd.released = true
	if hd.host.state == StateDestroyed {
		return
	}
	hd.host.refs.drop(hd.host.l, hd.slot)
}

// Retain persists a second, independent handle to the same value so it can
// outlive the scope that created hd.
func (hd *Handle) Retain() (*Handle, error) {
	if !hd.Valid() {
		return nil, invalidHandle()
	}
	l := hd.host.l
	hd.host.refs.push(l, hd.slot)
	return hd.host.persist(l), nil
}

// Push places the referenced value on top of l.
func (hd *Handle) Push(l *lua.State) error {
	if !hd.Valid() {
		return invalidHandle()
	}
	hd.host.refs.push(l, hd.slot)
	return nil
}

// TypeName returns the Lua type name of the referenced value.
func (hd *Handle) TypeName() string {
	if !hd.Valid() {
		return "invalid"
	}
	l := hd.host.l
	hd.host.refs.push(l, hd.slot)
	defer l.Pop(1)
	return lua.TypeNameOf(l, -1)
}

// Invoke calls the referenced function with callCtx as its only argument
// and returns the truthiness of its first result. A function that returns
// nothing reports false.
func (hd *Handle) Invoke(callCtx any) (bool, error) {
	if !hd.Valid() {
		return false, invalidHandle()
	}
	l := hd.host.l
	top := l.Top()
	defer l.SetTop(top)

	hd.host.refs.push(l, hd.slot)
	if !l.IsFunction(-1) {
		return false, apperrors.New(apperrors.CodeTypeMismatch, "handle refers to "+lua.TypeNameOf(l, -1)+", not a function")
	}
	if callCtx == nil {
		l.PushNil()
	} else {
		l.PushUserData(callCtx)
	}
	if err := protectedCall(l, 1, 1); err != nil {
		return false, apperrors.Wrap(apperrors.CodeScriptRuntime, "invoke persisted function", err)
	}
	return l.ToBoolean(-1), nil
}

func invalidHandle() error {
	return apperrors.New(apperrors.CodeInvalidState, "persisted handle was released")
}

// Scope owns the handles created while marshaling one native call and
// releases all of them exactly once.
type Scope struct {
	host     *Host
	handles  []*Handle
	released bool
}

// NewScope returns an empty scope.
func (h *Host) NewScope() *Scope {
	return &Scope{host: h}
}

// Len returns the number of handles the scope created.
func (s *Scope) Len() int {
	return len(s.handles)
}

// Release releases every handle created in the scope. Later calls do nothing.
func (s *Scope) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	for _, hd := range s.handles {
		hd.Release()
	}
	s.handles = nil
}

func (s *Scope) persist(l *lua.State, index int) (*Handle, error) {
	if s.released {
		return nil, apperrors.New(apperrors.CodeInvalidState, "scope already released")
	}
	l.PushValue(index)
	hd := s.host.persist(l)
	s.handles = append(s.handles, hd)
	return hd, nil
}
