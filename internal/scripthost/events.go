package scripthost

import (
	"github.com/Shopify/go-lua"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// eventsTable is the global table scripts put their event handlers in.
const eventsTable = "events"

// Event names fired by the launcher.
const (
	EventInit      = "Init"
	EventPostInit  = "PostInit"
	EventDestroy   = "Destroy"
	EventConfigure = "Configure"
	EventPlay      = "Play"
)

// Events lists the launcher events in firing order of a full session.
var Events = [...]string{EventInit, EventPostInit, EventConfigure, EventPlay, EventDestroy}

// CallEvent calls events[name] with no arguments.
func (h *Host) CallEvent(name string) error {
	return h.CallEventArgs(name, nil)
}

// CallEventArgs calls events[name] with args. A missing events table or
// handler is not an error.
func (h *Host) CallEventArgs(name string, args []Var) error {
	if err := h.alive("event " + name); err != nil {
		return err
	}
	top := h.l.Top()
	defer h.l.SetTop(top)

	h.l.Global(eventsTable)
	if h.l.TypeOf(-1) != lua.TypeTable {
		h.logf("event %s: no %s table", name, eventsTable)
		return nil
	}
	h.l.Field(-1, name)
	if !h.l.IsFunction(-1) {
		h.logf("event %s: no handler", name)
		return nil
	}
	for _, arg := range args {
		if err := h.PushVar(h.l, arg); err != nil {
			return err
		}
	}
	if err := protectedCall(h.l, len(args), 0); err != nil {
		return apperrors.WrapWithMetadata(apperrors.CodeScriptRuntime, "event "+name,
			map[string]string{"Script": eventsTable + "." + name}, err)
	}
	return nil
}
