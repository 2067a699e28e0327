// Package bridge is the application core that joins the script host, the
// command registry and the notification hub. It owns the launcher
// lifecycle and exposes the Amber namespace to scripts.
package bridge

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/neutonm/Amber-Launcher-sub000/internal/command"
	"github.com/neutonm/Amber-Launcher-sub000/internal/notify"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
	"github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors/i18n"
	platformotel "github.com/neutonm/Amber-Launcher-sub000/internal/platform/otel"
	"github.com/neutonm/Amber-Launcher-sub000/internal/scripthost"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Namespace is the global table holding the native functions.
	Namespace = "Amber"
	// NopCommand is registered on start and always succeeds.
	NopCommand = "Nop"
	// DefaultCommandCapacity is reserved in the registry when Config leaves it zero.
	DefaultCommandCapacity = 64

	registryKey = "amber.core"
	tracerName  = "github.com/neutonm/Amber-Launcher-sub000/internal/bridge"
)

// Notification flags mark where an event was raised.
const (
	FromNative notify.Flags = 1 << iota
	FromScript
)

// Event is the payload native observers receive. Args are only valid for
// the duration of the notification; handles in them are released right after.
type Event struct {
	Name string
	Args []scripthost.Var
}

// Config wires the bridge.
type Config struct {
	Scripts         scripthost.Config
	CommandCapacity int
	// Locale selects the language of error messages raised to scripts.
	Locale        string
	UI            UIFunc
	Collaborators Collaborators
	Logger        *log.Logger
	Verbose       bool
}

// Bridge is one launcher core instance.
type Bridge struct {
	cfg      Config
	host     *scripthost.Host
	registry *command.Registry
	subject  *notify.Subject
	catalog  *i18n.Catalog
	logger   *log.Logger
	verbose  bool
	tracer   trace.Tracer

	// ctx parents spans opened by script-initiated calls.
	ctx     context.Context
	started bool
	stopped bool
}

// New builds the core. Scripts are not loaded until Start.
func New(cfg Config) (*Bridge, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	if cfg.Scripts.Logger == nil {
		cfg.Scripts.Logger = logger
	}
	if cfg.Verbose {
		cfg.Scripts.Verbose = true
	}
	if cfg.CommandCapacity <= 0 {
		cfg.CommandCapacity = DefaultCommandCapacity
	}

	host, err := scripthost.New(cfg.Scripts)
	if err != nil {
		return nil, fmt.Errorf("new script host: %w", err)
	}
	registry, err := command.NewRegistry(cfg.CommandCapacity, logger)
	if err != nil {
		host.Destroy()
		return nil, fmt.Errorf("new command registry: %w", err)
	}

	return &Bridge{
		cfg:      cfg,
		host:     host,
		registry: registry,
		subject:  notify.NewSubject(),
		catalog:  i18n.GetCatalog(cfg.Locale),
		logger:   logger,
		verbose:  cfg.Verbose,
		tracer:   platformotel.Tracer(tracerName),
		ctx:      context.Background(),
	}, nil
}

// Host returns the script host.
func (b *Bridge) Host() *scripthost.Host {
	return b.host
}

// Registry returns the command registry.
func (b *Bridge) Registry() *command.Registry {
	return b.registry
}

// Observe attaches a native observer for every event the bridge fires.
func (b *Bridge) Observe(o notify.Observer) (notify.ObserverID, error) {
	return b.subject.Attach(o)
}

// Unobserve detaches an observer added with Observe.
func (b *Bridge) Unobserve(id notify.ObserverID) (bool, error) {
	return b.subject.Detach(id)
}

// Start installs the Amber namespace, loads the scripts and runs the init
// sequence: Init event, PreInit commands, AppInit, PostInit commands,
// PostAppInit, PostInit event. Script failures inside the sequence are
// logged and do not stop it; only a failed Init of the host does.
func (b *Bridge) Start(ctx context.Context) (err error) {
	if b.started || b.stopped {
		return apperrors.New(apperrors.CodeInvalidState, "bridge already started")
	}
	ctx, span := b.tracer.Start(ctx, "bridge.start")
	defer func() { endSpan(span, err) }()
	b.ctx = ctx

	if err := b.install(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := b.host.Init(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	b.started = true

	b.fire(ctx, scripthost.EventInit, nil, FromNative)
	b.runFlagged(ctx, command.FlagPreInit)
	b.callHook(ctx, scripthost.FunctionAppInit, nil)
	b.runFlagged(ctx, command.FlagPostInit)
	b.callHook(ctx, scripthost.FunctionPostAppInit, nil)
	b.fire(ctx, scripthost.EventPostInit, nil, FromNative)

	return b.host.Start()
}

func (b *Bridge) install() error {
	if err := b.host.RegisterNamespace(Namespace, b.natives()); err != nil {
		return err
	}
	l := b.host.Lua()
	l.Global(Namespace)
	for _, c := range flagConstants {
		l.PushInteger(int(c.flag))
		l.SetField(-2, c.name)
	}
	l.Pop(1)

	if err := b.host.SetRegistryValue(registryKey, b); err != nil {
		return err
	}
	return b.registry.AddNative(NopCommand, func(*command.Command, []command.Arg) bool {
		return true
	}, b, 0)
}

// Stop runs the shutdown sequence: Destroy event, AppDestroy, Cleanup
// commands, PostAppDestroy. It then releases every script-backed command,
// clears the registry and destroys the host. Handles still held at that
// point are reported as a HANDLE_LEAK error.
func (b *Bridge) Stop(ctx context.Context) (err error) {
	if b.stopped {
		return nil
	}
	b.stopped = true
	ctx, span := b.tracer.Start(ctx, "bridge.stop")
	defer func() { endSpan(span, err) }()

	if b.started {
		b.fire(ctx, scripthost.EventDestroy, nil, FromNative)
		b.callHook(ctx, scripthost.FunctionAppDestroy, nil)
		b.runFlagged(ctx, command.FlagCleanup)
		b.callHook(ctx, scripthost.FunctionPostAppDestroy, nil)
	}

	released := b.registry.ReleaseScriptHandles()
	if err := b.registry.Clear(); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	b.logf("released %d script commands", released)

	leaked := b.host.Destroy()
	span.SetAttributes(attribute.Int("amber.handles.leaked", leaked))
	if leaked > 0 {
		return apperrors.WithMetadata(apperrors.CodeHandleLeak,
			strconv.Itoa(leaked)+" persisted handles outstanding at stop",
			map[string]string{"Count": strconv.Itoa(leaked)})
	}
	return nil
}

// CommandCall executes a registered command on behalf of native code.
func (b *Bridge) CommandCall(ctx context.Context, name string, args ...command.Arg) (ok bool, err error) {
	_, span := b.tracer.Start(ctx, "bridge.command",
		trace.WithAttributes(attribute.String("amber.command", name), attribute.Int("amber.args", len(args))))
	defer func() { endSpan(span, err) }()

	ok, err = b.registry.Execute(name, args...)
	span.SetAttributes(attribute.Bool("amber.command.ok", ok))
	return ok, err
}

// EventCall fires name to native observers and to the script handler.
func (b *Bridge) EventCall(ctx context.Context, name string, args []scripthost.Var) error {
	if err := b.running("event " + name); err != nil {
		return err
	}
	return b.fire(ctx, name, args, FromNative)
}

// Configure runs AppConfigure, the Configure event and PostAppConfigure.
func (b *Bridge) Configure(ctx context.Context) error {
	if err := b.running("configure"); err != nil {
		return err
	}
	return stderrors.Join(
		b.callHook(ctx, scripthost.FunctionAppConfigure, nil),
		b.fire(ctx, scripthost.EventConfigure, nil, FromNative),
		b.callHook(ctx, scripthost.FunctionPostAppConfigure, nil),
	)
}

// Play runs the Play hook and fires the Play event.
func (b *Bridge) Play(ctx context.Context) error {
	if err := b.running("play"); err != nil {
		return err
	}
	return stderrors.Join(
		b.callHook(ctx, scripthost.FunctionPlay, nil),
		b.fire(ctx, scripthost.EventPlay, nil, FromNative),
	)
}

// SidebuttonClick forwards a side button press to the script hook.
func (b *Bridge) SidebuttonClick(ctx context.Context, id int) error {
	if err := b.running("side button"); err != nil {
		return err
	}
	return b.callHook(ctx, scripthost.FunctionSidebuttonClick, []scripthost.Var{scripthost.Number(float64(id))})
}

// Message renders err for display in the configured locale.
func (b *Bridge) Message(err error) string {
	coded, ok := apperrors.As(err)
	if !ok {
		return err.Error()
	}
	msg := b.catalog.Format(string(coded.Code), coded.Metadata)
	if msg == string(coded.Code) {
		return err.Error()
	}
	return msg
}

// fire notifies native observers, then the script handler, with the same args.
func (b *Bridge) fire(ctx context.Context, name string, args []scripthost.Var, flags notify.Flags) error {
	_, span := b.tracer.Start(ctx, "bridge.event",
		trace.WithAttributes(attribute.String("amber.event", name), attribute.Int("amber.args", len(args))))

	b.subject.Notify(flags, Event{Name: name, Args: args})
	err := b.host.CallEventArgs(name, args)
	endSpan(span, err)
	if err != nil {
		b.logger.Printf("event %s: %v", name, err)
	}
	return err
}

// callHook calls a hook if the scripts define it. Undefined hooks are skipped.
func (b *Bridge) callHook(ctx context.Context, fn scripthost.Function, args []scripthost.Var) error {
	_, span := b.tracer.Start(ctx, "bridge.hook", trace.WithAttributes(attribute.String("amber.hook", fn.String())))
	err := b.host.CallReferencedFunctionArgs(fn, args)
	if apperrors.IsCode(err, apperrors.CodeNotFound) {
		b.logf("hook %s not defined", fn)
		err = nil
	}
	endSpan(span, err)
	if err != nil {
		b.logger.Printf("hook %s: %v", fn, err)
	}
	return err
}

func (b *Bridge) runFlagged(ctx context.Context, flag command.Flags) {
	_, span := b.tracer.Start(ctx, "bridge.commands", trace.WithAttributes(attribute.Int("amber.flag", int(flag))))
	defer span.End()
	failed := b.registry.RunFlagged(flag)
	for _, name := range failed {
		b.logger.Printf("command %s reported failure", name)
	}
	span.SetAttributes(attribute.StringSlice("amber.commands.failed", failed))
}

func (b *Bridge) running(op string) error {
	if b.host.Status() != scripthost.StateRunning {
		return apperrors.New(apperrors.CodeInvalidState, op+": script host is "+b.host.Status().String())
	}
	return nil
}

func (b *Bridge) logf(format string, args ...any) {
	if !b.verbose {
		return
	}
	b.logger.Printf(format, args...)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
