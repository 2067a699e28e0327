// Package amber implements the launcher command: it loads the script folder,
// runs the lifecycle and optionally drives one command, event or chunk of
// Lua before shutting down.
package amber

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/neutonm/Amber-Launcher-sub000/internal/bridge"
	"github.com/neutonm/Amber-Launcher-sub000/internal/collab/archive"
	"github.com/neutonm/Amber-Launcher-sub000/internal/collab/audio"
	"github.com/neutonm/Amber-Launcher-sub000/internal/collab/inifile"
	"github.com/neutonm/Amber-Launcher-sub000/internal/collab/settings"
	platformcmd "github.com/neutonm/Amber-Launcher-sub000/internal/platform/cmd"
	"github.com/neutonm/Amber-Launcher-sub000/internal/scripthost"
)

// Config holds launcher command configuration.
type Config struct {
	ScriptsDir      string `env:"AMBER_SCRIPTS_DIR"        envDefault:"scripts"`
	ScriptExt       string `env:"AMBER_SCRIPT_EXT"         envDefault:"lua"`
	ConstantsScript string `env:"AMBER_CONSTANTS_SCRIPT"   envDefault:"_constants"`
	MainScript      string `env:"AMBER_MAIN_SCRIPT"        envDefault:"_main"`
	SettingsDB      string `env:"AMBER_SETTINGS_DB"        envDefault:"amber.db"`
	CommandCapacity int    `env:"AMBER_COMMAND_CAPACITY"   envDefault:"64"`
	Locale          string `env:"AMBER_LOCALE"             envDefault:"en-US"`
	Verbose         bool   `env:"AMBER_VERBOSE"`

	Command   string
	Event     string
	Eval      string
	Configure bool
	Play      bool
	List      bool
}

// ParseConfig loads env defaults and then parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	return platformcmd.Load(fs, args, bindFlags)
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ScriptsDir, "scripts", cfg.ScriptsDir, "script folder")
	fs.StringVar(&cfg.SettingsDB, "settings", cfg.SettingsDB, "settings database path (empty disables settings)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for script-facing messages")
	fs.StringVar(&cfg.Command, "command", "", "run this command after start")
	fs.StringVar(&cfg.Event, "event", "", "fire this event after start")
	fs.StringVar(&cfg.Eval, "eval", "", "run this Lua chunk after start")
	fs.BoolVar(&cfg.Configure, "configure", false, "run the configure sequence")
	fs.BoolVar(&cfg.Play, "play", false, "run the play sequence")
	fs.BoolVar(&cfg.List, "list", false, "print registered commands")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
}

// Run starts the launcher core, performs the requested actions and stops it.
// The stop sequence always runs once start succeeded.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) (err error) {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if strings.TrimSpace(cfg.ScriptsDir) == "" {
		return errors.New("scripts dir is required")
	}
	logger := log.New(errOut, "", 0)

	collaborators := bridge.Collaborators{
		Archive: archive.New(logger),
		Audio:   audio.New(logger),
		INI:     inifile.New(logger),
	}
	if path := strings.TrimSpace(cfg.SettingsDB); path != "" {
		store, err := settings.Open(ctx, path)
		if err != nil {
			return fmt.Errorf("open settings: %w", err)
		}
		defer store.Close()
		collaborators.Settings = store
	}

	core, err := bridge.New(bridge.Config{
		Scripts: scripthost.Config{
			Dir:             cfg.ScriptsDir,
			Extension:       cfg.ScriptExt,
			ConstantsScript: cfg.ConstantsScript,
			MainScript:      cfg.MainScript,
		},
		CommandCapacity: cfg.CommandCapacity,
		Locale:          cfg.Locale,
		UI:              HeadlessUI(out),
		Collaborators:   collaborators,
		Logger:          logger,
		Verbose:         cfg.Verbose,
	})
	if err != nil {
		return err
	}
	if err := core.Start(ctx); err != nil {
		_ = core.Stop(ctx)
		return err
	}
	defer func() {
		err = errors.Join(err, core.Stop(ctx))
	}()

	return act(ctx, core, cfg, out)
}

func act(ctx context.Context, core *bridge.Bridge, cfg Config, out io.Writer) error {
	if cfg.Configure {
		if err := core.Configure(ctx); err != nil {
			return err
		}
	}
	if cfg.Command != "" {
		ok, err := core.CommandCall(ctx, cfg.Command)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "command %s: %t\n", cfg.Command, ok)
	}
	if cfg.Event != "" {
		if err := core.EventCall(ctx, cfg.Event, nil); err != nil {
			return err
		}
	}
	if cfg.Eval != "" {
		if err := core.Host().ExecString(cfg.Eval); err != nil {
			return err
		}
	}
	if cfg.Play {
		if err := core.Play(ctx); err != nil {
			return err
		}
	}
	if cfg.List {
		for name, priority := range core.Registry().List() {
			fmt.Fprintf(out, "%s\t%d\n", name, priority)
		}
	}
	return nil
}

// HeadlessUI prints UI requests to out and answers with an empty bundle.
func HeadlessUI(out io.Writer) bridge.UIFunc {
	return func(id string, args []scripthost.Var) (map[string]scripthost.Var, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, a.GoString())
		}
		fmt.Fprintf(out, "ui %s(%s)\n", id, strings.Join(parts, ", "))
		return map[string]scripthost.Var{}, nil
	}
}
