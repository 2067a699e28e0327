package scripthost

import (
	"github.com/Shopify/go-lua"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// PushGlobalVariable parses raw as kind and stores it in the global name.
func (h *Host) PushGlobalVariable(name, raw string, kind Kind) error {
	v, err := ParseVar(raw, kind)
	if err != nil {
		return err
	}
	return h.SetGlobal(name, v)
}

// SetGlobal stores v in the global name.
func (h *Host) SetGlobal(name string, v Var) error {
	if err := h.alive("set global " + name); err != nil {
		return err
	}
	top := h.l.Top()
	defer h.l.SetTop(top)
	if err := h.PushVar(h.l, v); err != nil {
		return err
	}
	h.l.SetGlobal(name)
	return nil
}

// GetGlobalVariable reads the global name. Only nil, booleans, numbers and
// strings can be read; other types are a TYPE_MISMATCH error.
func (h *Host) GetGlobalVariable(name string) (Var, error) {
	if err := h.alive("get global " + name); err != nil {
		return Var{}, err
	}
	top := h.l.Top()
	defer h.l.SetTop(top)

	h.l.Global(name)
	switch h.l.TypeOf(-1) {
	case lua.TypeNil, lua.TypeBoolean, lua.TypeNumber, lua.TypeString:
		return h.ToVar(h.l, -1, nil)
	default:
		return Var{}, apperrors.WithMetadata(apperrors.CodeTypeMismatch,
			"global "+name+" is a "+lua.TypeNameOf(h.l, -1),
			map[string]string{"Name": name})
	}
}
