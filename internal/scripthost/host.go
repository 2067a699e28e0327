// Package scripthost owns the embedded Lua engine: script loading
// conventions, the fixed table of application hooks, named event dispatch,
// persisted value handles and marshaling between Go and Lua values.
//
// A Host is driven from a single goroutine. Script failures are caught at
// the protected-call boundary and returned as coded errors; they never
// unwind into Go callers.
package scripthost

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Shopify/go-lua"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// State is the lifecycle phase of a Host. Transitions are linear.
type State int

const (
	StateUninitialized State = iota
	StateLoaded
	StateRunning
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config controls where scripts are found.
type Config struct {
	// Dir holds the constants script, the main script and auto-loaded files.
	Dir string
	// Extension is the script file extension without the dot.
	Extension string
	// ConstantsScript and MainScript are loaded by Init, in that order.
	ConstantsScript string
	MainScript      string
	Logger          *log.Logger
	Verbose         bool
}

const (
	DefaultExtension       = "lua"
	DefaultConstantsScript = "_constants"
	DefaultMainScript      = "_main"
)

// Host wraps one Lua state.
type Host struct {
	l         *lua.State
	cfg       Config
	state     State
	refs      refTable
	functions [functionCount]FunctionReference
	logger    *log.Logger
	verbose   bool
}

// New creates a host with the standard Lua libraries opened and an empty
// global events table.
func New(cfg Config) (*Host, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("script dir is required")
	}
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	cfg.Extension = strings.TrimPrefix(cfg.Extension, ".")
	if cfg.ConstantsScript == "" {
		cfg.ConstantsScript = DefaultConstantsScript
	}
	if cfg.MainScript == "" {
		cfg.MainScript = DefaultMainScript
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}

	l := lua.NewState()
	lua.OpenLibraries(l)

	h := &Host{
		l:       l,
		cfg:     cfg,
		logger:  logger,
		verbose: cfg.Verbose,
	}
	for i := range h.functions {
		h.functions[i].Name = Function(i).String()
	}
	h.refs.init(l)

	l.NewTable()
	l.SetGlobal(eventsTable)
	return h, nil
}

// Status returns the lifecycle phase.
func (h *Host) Status() State {
	return h.state
}

// Lua exposes the engine for native function registration. It is nil once
// the host is destroyed.
func (h *Host) Lua() *lua.State {
	return h.l
}

// Config returns the effective configuration.
func (h *Host) Config() Config {
	return h.cfg
}

// Init loads the constants and main scripts, resolves the application hook
// table and auto-loads the remaining scripts. Failure to load either of the
// first two scripts fails Init and leaves the host uninitialized.
func (h *Host) Init() error {
	if h.state != StateUninitialized {
		return h.invalidState("init")
	}
	for _, name := range []string{h.cfg.ConstantsScript, h.cfg.MainScript} {
		if err := h.LoadScript(name); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	h.resolveFunctions()

	loaded, failures := h.autoload()
	h.logf("auto-loaded %d scripts from %s (%d failed)", loaded, h.cfg.Dir, len(failures))

	h.state = StateLoaded
	return nil
}

// Start moves a loaded host to running.
func (h *Host) Start() error {
	if h.state != StateLoaded {
		return h.invalidState("start")
	}
	h.state = StateRunning
	return nil
}

// Destroy releases the hook references and drops the engine. Handles still
// persisted at this point are reported as leaked and become invalid.
func (h *Host) Destroy() (leaked int) {
	if h.state == StateDestroyed {
		return 0
	}
	for i := range h.functions {
		if h.functions[i].handle != nil {
			h.functions[i].handle.Release()
			h.functions[i].handle = nil
		}
	}
	leaked = h.refs.live
	if leaked > 0 {
		h.logger.Printf("script host destroyed with %d persisted handles outstanding", leaked)
	}
	h.state = StateDestroyed
	h.refs = refTable{}
	h.l = nil
	return leaked
}

// HandleCount returns the number of live persisted handles.
func (h *Host) HandleCount() int {
	return h.refs.live
}

// RegisterNamespace installs fns as fields of a global table called name.
// Existing fields of that table are kept.
func (h *Host) RegisterNamespace(name string, fns []lua.RegistryFunction) error {
	if err := h.alive("register " + name); err != nil {
		return err
	}
	top := h.l.Top()
	defer h.l.SetTop(top)

	h.l.Global(name)
	if h.l.TypeOf(-1) != lua.TypeTable {
		h.l.Pop(1)
		h.l.NewTable()
		h.l.PushValue(-1)
		h.l.SetGlobal(name)
	}
	lua.SetFunctions(h.l, fns, 0)
	return nil
}

// SetRegistryValue stores v as userdata under key in the Lua registry,
// where scripts cannot reach it.
func (h *Host) SetRegistryValue(key string, v any) error {
	if err := h.alive("store " + key); err != nil {
		return err
	}
	h.l.PushUserData(v)
	h.l.SetField(lua.RegistryIndex, key)
	return nil
}

// RegistryValue recovers a value stored with SetRegistryValue from any
// state sharing the registry.
func RegistryValue(l *lua.State, key string) any {
	l.Field(lua.RegistryIndex, key)
	defer l.Pop(1)
	if l.TypeOf(-1) != lua.TypeUserData {
		return nil
	}
	return l.ToUserData(-1)
}

func (h *Host) alive(op string) error {
	if h.state == StateDestroyed || h.l == nil {
		return h.invalidState(op)
	}
	return nil
}

func (h *Host) invalidState(op string) error {
	return apperrors.New(apperrors.CodeInvalidState, op+": script host is "+h.state.String())
}

func (h *Host) logf(format string, args ...any) {
	if !h.verbose || h.logger == nil {
		return
	}
	h.logger.Printf(format, args...)
}

// protectedCall runs the function below nargs arguments and converts a
// script failure into an error carrying the engine's message.
func protectedCall(l *lua.State, nargs, nresults int) error {
	if err := l.ProtectedCall(nargs, nresults, 0); err != nil {
		return fmt.Errorf("%s", errorText(l, err))
	}
	return nil
}

// errorText reads the error object the engine left on the stack.
func errorText(l *lua.State, err error) string {
	if l.Top() > 0 && l.TypeOf(-1) == lua.TypeString {
		if msg, ok := l.ToString(-1); ok && msg != "" {
			return msg
		}
	}
	return err.Error()
}
