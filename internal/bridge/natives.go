package bridge

import (
	"github.com/Shopify/go-lua"
	"github.com/neutonm/Amber-Launcher-sub000/internal/command"
	"github.com/neutonm/Amber-Launcher-sub000/internal/scripthost"
)

// flagConstants are published in the Amber table for CommandAdd.
var flagConstants = []struct {
	name string
	flag command.Flags
}{
	{"CMD_PREINIT", command.FlagPreInit},
	{"CMD_POSTINIT", command.FlagPostInit},
	{"CMD_CLEANUP", command.FlagCleanup},
}

func (b *Bridge) natives() []lua.RegistryFunction {
	return []lua.RegistryFunction{
		{Name: "CommandAdd", Function: commandAdd},
		{Name: "CommandCall", Function: commandCall},
		{Name: "GetTableOfCommands", Function: getTableOfCommands},
		{Name: "EventCall", Function: eventCall},
		{Name: "UICall", Function: uiCall},
		{Name: "SetRegistryKey", Function: setRegistryKey},
		{Name: "GetRegistryKey", Function: getRegistryKey},
		{Name: "ConvertMP3ToWAV", Function: convertMP3ToWAV},
		{Name: "ArchiveExtract", Function: archiveExtract},
		{Name: "INILoad", Function: iniLoad},
		{Name: "INIClose", Function: iniClose},
		{Name: "INIGet", Function: iniGet},
	}
}

// bridgeOf recovers the core that installed the namespace.
func bridgeOf(l *lua.State) *Bridge {
	b, ok := scripthost.RegistryValue(l, registryKey).(*Bridge)
	if !ok {
		lua.Errorf(l, "%s namespace used without a running launcher core", Namespace)
		return nil
	}
	return b
}

// raise turns err into a script error. It does not return.
func (b *Bridge) raise(l *lua.State, err error) {
	lua.Errorf(l, "%s", b.Message(err))
}

// CommandAdd(name, fn [, priority [, flags]])
func commandAdd(l *lua.State) int {
	b := bridgeOf(l)
	name := lua.CheckString(l, 1)
	lua.CheckType(l, 2, lua.TypeFunction)
	priority := lua.OptInteger(l, 3, 0)
	flags := command.Flags(lua.OptInteger(l, 4, 0)) &^ command.FlagScriptBacked

	fn, err := b.persistArg(l, 2)
	if err != nil {
		b.raise(l, err)
		return 0
	}
	if err := b.registry.AddScript(name, fn, b, priority, flags); err != nil {
		b.raise(l, err)
		return 0
	}
	b.logf("script command %s registered (priority %d, flags %#x)", name, priority, uint32(flags))
	return 0
}

// persistArg keeps the value at index alive beyond the current call.
func (b *Bridge) persistArg(l *lua.State, index int) (*scripthost.Handle, error) {
	scope := b.host.NewScope()
	defer scope.Release()
	v, err := b.host.ToVar(l, index, scope)
	if err != nil {
		return nil, err
	}
	hd, _ := v.AsHandle()
	return hd.Retain()
}

// CommandCall(name [, args...]) -> bool
func commandCall(l *lua.State) int {
	b := bridgeOf(l)
	name := lua.CheckString(l, 1)

	var args []command.Arg
	for i := 2; i <= l.Top(); i++ {
		switch l.TypeOf(i) {
		case lua.TypeNumber:
			args = append(args, command.Int(int64(lua.CheckInteger(l, i))))
		case lua.TypeString:
			s, _ := l.ToString(i)
			args = append(args, command.String(s))
		default:
			lua.ArgumentError(l, i, "command arguments must be integers or strings")
			return 0
		}
	}

	ok, err := b.CommandCall(b.ctx, name, args...)
	if err != nil {
		b.raise(l, err)
		return 0
	}
	l.PushBoolean(ok)
	return 1
}

// GetTableOfCommands() -> { {name=, priority=}, ... }
func getTableOfCommands(l *lua.State) int {
	b := bridgeOf(l)
	l.CreateTable(b.registry.Len(), 0)
	i := 0
	for name, priority := range b.registry.List() {
		i++
		l.CreateTable(0, 2)
		l.PushString(name)
		l.SetField(-2, "name")
		l.PushInteger(priority)
		l.SetField(-2, "priority")
		l.RawSetInt(-2, i)
	}
	return 1
}

// EventCall(name, ...)
func eventCall(l *lua.State) int {
	b := bridgeOf(l)
	name := lua.CheckString(l, 1)

	scope := b.host.NewScope()
	defer scope.Release()
	args, err := b.host.ToVars(l, 2, scope)
	if err != nil {
		b.raise(l, err)
		return 0
	}
	_ = b.fire(b.ctx, name, args, FromScript)
	return 0
}

// UICall(id, ...) -> table or nil
func uiCall(l *lua.State) int {
	b := bridgeOf(l)
	id := lua.CheckString(l, 1)

	scope := b.host.NewScope()
	defer scope.Release()
	args, err := b.host.ToVars(l, 2, scope)
	if err != nil {
		b.raise(l, err)
		return 0
	}
	if b.cfg.UI == nil {
		b.logger.Printf("UICall %s: no UI callback installed", id)
		l.PushNil()
		return 1
	}
	bundle, err := b.cfg.UI(id, args)
	if err != nil {
		b.logger.Printf("UICall %s: %v", id, err)
		l.PushNil()
		return 1
	}
	if err := b.host.PushTable(l, bundle); err != nil {
		b.logger.Printf("UICall %s result: %v", id, err)
		l.PushNil()
	}
	return 1
}

// SetRegistryKey(key, value) -> bool
func setRegistryKey(l *lua.State) int {
	b := bridgeOf(l)
	key := lua.CheckString(l, 1)
	value := lua.CheckString(l, 2)
	store := b.cfg.Collaborators.Settings
	if store == nil {
		b.missing("SetRegistryKey")
		l.PushBoolean(false)
		return 1
	}
	if err := store.SetKey(key, value); err != nil {
		b.logger.Printf("SetRegistryKey %s: %v", key, err)
		l.PushBoolean(false)
		return 1
	}
	l.PushBoolean(true)
	return 1
}

// GetRegistryKey(key) -> string or nil
func getRegistryKey(l *lua.State) int {
	b := bridgeOf(l)
	key := lua.CheckString(l, 1)
	store := b.cfg.Collaborators.Settings
	if store == nil {
		b.missing("GetRegistryKey")
		l.PushNil()
		return 1
	}
	value, ok, err := store.GetKey(key)
	switch {
	case err != nil:
		b.logger.Printf("GetRegistryKey %s: %v", key, err)
		l.PushNil()
	case !ok:
		l.PushNil()
	default:
		l.PushString(value)
	}
	return 1
}

// ConvertMP3ToWAV(path) -> wav path or nil
func convertMP3ToWAV(l *lua.State) int {
	b := bridgeOf(l)
	path := lua.CheckString(l, 1)
	audio := b.cfg.Collaborators.Audio
	if audio == nil {
		b.missing("ConvertMP3ToWAV")
		l.PushNil()
		return 1
	}
	out, err := audio.ConvertMP3ToWAV(path)
	if err != nil {
		b.logger.Printf("ConvertMP3ToWAV %s: %v", path, err)
		l.PushNil()
		return 1
	}
	l.PushString(out)
	return 1
}

// ArchiveExtract(archivePath, destDir) -> bool
func archiveExtract(l *lua.State) int {
	b := bridgeOf(l)
	archivePath := lua.CheckString(l, 1)
	destDir := lua.CheckString(l, 2)
	archive := b.cfg.Collaborators.Archive
	if archive == nil {
		b.missing("ArchiveExtract")
		l.PushBoolean(false)
		return 1
	}
	if err := archive.Extract(archivePath, destDir); err != nil {
		b.logger.Printf("ArchiveExtract %s: %v", archivePath, err)
		l.PushBoolean(false)
		return 1
	}
	l.PushBoolean(true)
	return 1
}

// INILoad(path) -> handle or nil
func iniLoad(l *lua.State) int {
	b := bridgeOf(l)
	path := lua.CheckString(l, 1)
	store := b.cfg.Collaborators.INI
	if store == nil {
		b.missing("INILoad")
		l.PushNil()
		return 1
	}
	handle, err := store.Load(path)
	if err != nil {
		b.logger.Printf("INILoad %s: %v", path, err)
		l.PushNil()
		return 1
	}
	l.PushInteger(handle)
	return 1
}

// INIClose(handle) -> bool
func iniClose(l *lua.State) int {
	b := bridgeOf(l)
	handle := lua.CheckInteger(l, 1)
	store := b.cfg.Collaborators.INI
	if store == nil {
		b.missing("INIClose")
		l.PushBoolean(false)
		return 1
	}
	l.PushBoolean(store.Close(handle))
	return 1
}

// INIGet(handle, section, key) -> string or nil
func iniGet(l *lua.State) int {
	b := bridgeOf(l)
	handle := lua.CheckInteger(l, 1)
	section := lua.CheckString(l, 2)
	key := lua.CheckString(l, 3)
	store := b.cfg.Collaborators.INI
	if store == nil {
		b.missing("INIGet")
		l.PushNil()
		return 1
	}
	value, ok := store.Get(handle, section, key)
	if !ok {
		l.PushNil()
		return 1
	}
	l.PushString(value)
	return 1
}

func (b *Bridge) missing(fn string) {
	b.logger.Printf("%s: no collaborator configured", fn)
}
