// Package cmd holds the helpers every launcher entry point shares: loading
// configuration from env then flags, and running the body under tracing
// with interrupt handling.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/neutonm/Amber-Launcher-sub000/internal/platform/config"
	"github.com/neutonm/Amber-Launcher-sub000/internal/platform/otel"
	"github.com/neutonm/Amber-Launcher-sub000/internal/platform/timeouts"
)

// ServiceAmber identifies the launcher for telemetry.
const ServiceAmber = "amber"

// Load fills a T from the environment, lets bind register flags seeded with
// those values and parses args. Flags win over env.
func Load[T any](fs *flag.FlagSet, args []string, bind func(*flag.FlagSet, *T)) (T, error) {
	var cfg T
	if fs == nil {
		return cfg, errors.New("flag parser is required")
	}
	if err := config.ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if bind != nil {
		bind(fs, &cfg)
	}
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RunOptions tunes Run.
type RunOptions struct {
	// ShutdownTimeout bounds the final span flush. Zero uses the default.
	ShutdownTimeout time.Duration
	// Signals cancel the body's context. Nil means interrupt and SIGTERM;
	// an empty non-nil slice disables signal handling.
	Signals []os.Signal
}

// Run configures tracing for service and executes body. The tracer provider
// is flushed after body returns, whatever its result.
func Run(ctx context.Context, service string, options RunOptions, body func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if body == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	signals := options.Signals
	if signals == nil {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	if len(signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, signals...)
		defer stop()
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		timeout := options.ShutdownTimeout
		if timeout <= 0 {
			timeout = timeouts.TelemetryShutdown
		}
		flushCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return body(ctx)
}
