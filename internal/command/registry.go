package command

import (
	"io"
	"iter"
	"log"
	"sort"
	"strings"

	"github.com/neutonm/Amber-Launcher-sub000/internal/container"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// Registry is an ordered, name-keyed collection of commands.
// Registration order is preserved; re-adding a name updates the existing
// entry in place.
type Registry struct {
	commands  *container.Array[*Command]
	logger    *log.Logger
	iterating int
}

// NewRegistry returns a registry with room for capacity commands.
// A nil logger discards output.
func NewRegistry(capacity int, logger *log.Logger) (*Registry, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	commands := container.New[*Command](0)
	if err := commands.Reserve(capacity); err != nil {
		return nil, err
	}
	return &Registry{commands: commands, logger: logger}, nil
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return r.commands.Len()
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	index := r.find(name)
	if index == container.NotFound {
		return nil, false
	}
	c, _ := r.commands.Get(index)
	return c, true
}

// AddNative registers exec under name, or rebinds an existing entry to it.
func (r *Registry) AddNative(name string, exec Executor, owner any, priority int, flags ...Flags) error {
	if exec == nil {
		return apperrors.New(apperrors.CodeInvalidState, "native command "+name+" has no executor")
	}
	return r.add(name, exec, nil, owner, priority, combine(flags))
}

// AddScript registers a script-backed command. The registry owns fn from
// now on and releases it when it is replaced or the registry is cleared.
func (r *Registry) AddScript(name string, fn ScriptFunction, owner any, priority int, flags ...Flags) error {
	if fn == nil {
		return apperrors.New(apperrors.CodeInvalidState, "script command "+name+" has no function")
	}
	if err := r.add(name, r.runScript, fn, owner, priority, combine(flags)|FlagScriptBacked); err != nil {
		fn.Release()
		return err
	}
	return nil
}

func (r *Registry) add(name string, exec Executor, fn ScriptFunction, owner any, priority int, flags Flags) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperrors.New(apperrors.CodeInvalidState, "command name is required")
	}
	if r.iterating > 0 {
		return apperrors.New(apperrors.CodeBusy, "add "+name+" while listing commands")
	}

	if c, ok := r.Lookup(name); ok {
		if c.script != nil && c.script != fn {
			c.script.Release()
		}
		c.executor = exec
		c.script = fn
		c.flags = flags
		c.priority = priority
		c.owner = owner
		r.logger.Printf("command %s updated (priority %d)", name, priority)
		return nil
	}

	return r.commands.PushBack(&Command{
		name:     name,
		owner:    owner,
		executor: exec,
		flags:    flags,
		script:   fn,
		priority: priority,
	})
}

// Execute runs the command registered under name and returns its result.
// An unknown name is a NOT_FOUND error.
func (r *Registry) Execute(name string, args ...Arg) (bool, error) {
	c, ok := r.Lookup(name)
	if !ok {
		return false, apperrors.WithMetadata(apperrors.CodeNotFound,
			"command "+name+" not registered", map[string]string{"Name": name})
	}
	c.numArgs = len(args)
	return c.executor(c, args), nil
}

// RunFlagged executes every command carrying flag, highest priority first.
// Ties keep registration order. It returns the names that reported failure.
func (r *Registry) RunFlagged(flag Flags) []string {
	var batch []*Command
	for _, c := range r.commands.All() {
		if c.flags.Has(flag) {
			batch = append(batch, c)
		}
	}
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].priority > batch[j].priority
	})

	var failed []string
	for _, c := range batch {
		c.numArgs = 0
		if !c.executor(c, nil) {
			failed = append(failed, c.name)
		}
	}
	return failed
}

// List yields name/priority pairs in registration order. Each range over
// the sequence reflects the registry contents at that moment.
func (r *Registry) List() iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		r.iterating++
		defer func() { r.iterating-- }()
		for _, c := range r.commands.All() {
			if !yield(c.name, c.priority) {
				return
			}
		}
	}
}

// ReleaseScriptHandles releases the script function of every script-backed
// command. The commands stay registered but fail when executed.
func (r *Registry) ReleaseScriptHandles() int {
	released := 0
	for _, c := range r.commands.All() {
		if c.script == nil {
			continue
		}
		c.script.Release()
		c.script = nil
		released++
	}
	return released
}

// Clear releases script handles and removes every command.
func (r *Registry) Clear() error {
	if r.iterating > 0 {
		return apperrors.New(apperrors.CodeBusy, "clear while listing commands")
	}
	r.ReleaseScriptHandles()
	r.commands.Clear()
	return nil
}

func (r *Registry) runScript(c *Command, _ []Arg) bool {
	if c.script == nil {
		r.logger.Printf("command %s: script function released", c.name)
		return false
	}
	ok, err := c.script.Invoke(c)
	if err != nil {
		r.logger.Printf("command %s: %v", c.name, err)
		return false
	}
	return ok
}

// find matches names the way add stores them, without surrounding spaces.
func (r *Registry) find(name string) int {
	return r.commands.FindByPredicate(func(c *Command, ctx any) bool {
		return c.name == ctx.(string)
	}, strings.TrimSpace(name))
}

func combine(flags []Flags) Flags {
	var out Flags
	for _, f := range flags {
		out |= f
	}
	return out
}
