// Package command implements launcher actions that are either native Go
// functions or persisted script functions, and the registry that runs them.
package command

// Flags is a bitmask of command lifecycle and backing markers.
type Flags uint32

const (
	// FlagPreInit commands run before the application init hook.
	FlagPreInit Flags = 1 << iota
	// FlagPostInit commands run after the application init hook.
	FlagPostInit
	// FlagCleanup commands run during shutdown.
	FlagCleanup
	// FlagScriptBacked marks commands whose executor is the script trampoline.
	FlagScriptBacked
)

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Executor runs a command. The boolean is the command's success result.
type Executor func(c *Command, args []Arg) bool

// ScriptFunction is a persisted handle to a script-side function.
// Release must be safe to call more than once; only the first call frees
// the underlying slot.
type ScriptFunction interface {
	// Invoke calls the function with callCtx as its only argument and
	// reports the truthiness of its first result.
	Invoke(callCtx any) (bool, error)
	Release()
}

// Command is one registered action.
type Command struct {
	name     string
	owner    any
	executor Executor
	flags    Flags
	numArgs  int
	script   ScriptFunction
	priority int
}

// Name returns the unique registry key.
func (c *Command) Name() string { return c.name }

// Owner returns the value that registered the command.
func (c *Command) Owner() any { return c.owner }

// Flags returns the command flags.
func (c *Command) Flags() Flags { return c.flags }

// Priority orders flagged batch runs; higher runs first.
func (c *Command) Priority() int { return c.priority }

// NumArgs returns the argument count of the last execution.
func (c *Command) NumArgs() int { return c.numArgs }

// ScriptBacked reports whether the command resolves a script function.
func (c *Command) ScriptBacked() bool { return c.flags.Has(FlagScriptBacked) }
