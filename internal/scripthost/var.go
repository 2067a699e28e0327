package scripthost

import (
	"fmt"
	"strconv"

	"github.com/Shopify/go-lua"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// Kind tags the active field of a Var.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindHandle
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindHandle:
		return "handle"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Var is a value crossing the Go/Lua boundary. The zero Var is nil.
// Tables, functions and userdata travel as handles.
type Var struct {
	kind Kind
	b    bool
	n    float64
	s    string
	h    *Handle
}

// Nil returns the nil Var.
func Nil() Var { return Var{} }

// Bool wraps a boolean.
func Bool(v bool) Var { return Var{kind: KindBool, b: v} }

// Number wraps a Lua number.
func Number(v float64) Var { return Var{kind: KindNumber, n: v} }

// String wraps a string.
func String(v string) Var { return Var{kind: KindString, s: v} }

// HandleVar wraps a persisted handle.
func HandleVar(hd *Handle) Var { return Var{kind: KindHandle, h: hd} }

// Kind returns the tag.
func (v Var) Kind() Kind { return v.kind }

// AsBool returns the value when the tag is KindBool.
func (v Var) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsNumber returns the value when the tag is KindNumber.
func (v Var) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

// AsString returns the value when the tag is KindString.
func (v Var) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsHandle returns the handle when the tag is KindHandle.
func (v Var) AsHandle() (*Handle, bool) {
	if v.kind != KindHandle {
		return nil, false
	}
	return v.h, true
}

// GoString renders the value for logs.
func (v Var) GoString() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindHandle:
		return "handle(" + v.h.TypeName() + ")"
	default:
		return "nil"
	}
}

// ParseVar converts raw text into a Var of the requested kind.
func ParseVar(raw string, kind Kind) (Var, error) {
	switch kind {
	case KindNil:
		return Nil(), nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Var{}, apperrors.Wrap(apperrors.CodeTypeMismatch, "parse bool "+strconv.Quote(raw), err)
		}
		return Bool(b), nil
	case KindNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Var{}, apperrors.Wrap(apperrors.CodeTypeMismatch, "parse number "+strconv.Quote(raw), err)
		}
		return Number(n), nil
	case KindString:
		return String(raw), nil
	default:
		return Var{}, apperrors.New(apperrors.CodeTypeMismatch, "cannot parse a "+kind.String()+" from text")
	}
}

// ToVar converts the value at index of l. Tables, functions, userdata and
// threads are persisted into scope; without a scope they are a type mismatch.
func (h *Host) ToVar(l *lua.State, index int, scope *Scope) (Var, error) {
	switch l.TypeOf(index) {
	case lua.TypeNil, lua.TypeNone:
		return Nil(), nil
	case lua.TypeBoolean:
		return Bool(l.ToBoolean(index)), nil
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		return Number(n), nil
	case lua.TypeString:
		s, _ := l.ToString(index)
		return String(s), nil
	default:
		if scope == nil {
			return Var{}, apperrors.WithMetadata(apperrors.CodeTypeMismatch,
				"cannot marshal "+lua.TypeNameOf(l, index)+" without a scope",
				map[string]string{"Name": lua.TypeNameOf(l, index)})
		}
		hd, err := scope.persist(l, index)
		if err != nil {
			return Var{}, err
		}
		return HandleVar(hd), nil
	}
}

// ToVars converts the stack slots from index to the top of l.
func (h *Host) ToVars(l *lua.State, from int, scope *Scope) ([]Var, error) {
	top := l.Top()
	if from > top {
		return nil, nil
	}
	vars := make([]Var, 0, top-from+1)
	for i := from; i <= top; i++ {
		v, err := h.ToVar(l, i, scope)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// PushVar pushes v onto l. A released handle pushes nil and returns an error,
// so the stack always grows by exactly one.
func (h *Host) PushVar(l *lua.State, v Var) error {
	switch v.kind {
	case KindNil:
		l.PushNil()
	case KindBool:
		l.PushBoolean(v.b)
	case KindNumber:
		l.PushNumber(v.n)
	case KindString:
		l.PushString(v.s)
	case KindHandle:
		if err := v.h.Push(l); err != nil {
			l.PushNil()
			return err
		}
	default:
		l.PushNil()
		return apperrors.New(apperrors.CodeTypeMismatch, "unknown var kind "+v.kind.String())
	}
	return nil
}

// PushTable pushes a new table holding the entries of bundle.
func (h *Host) PushTable(l *lua.State, bundle map[string]Var) error {
	l.CreateTable(0, len(bundle))
	for key, v := range bundle {
		if err := h.PushVar(l, v); err != nil {
			l.Pop(2)
			return fmt.Errorf("field %s: %w", key, err)
		}
		l.SetField(-2, key)
	}
	return nil
}
