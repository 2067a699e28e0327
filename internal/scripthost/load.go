package scripthost

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// ScriptPath returns <dir>/<name>.<ext>.
func (h *Host) ScriptPath(name string) string {
	return filepath.Join(h.cfg.Dir, name+"."+h.cfg.Extension)
}

// LoadScript loads and runs <dir>/<name>.<ext>. A missing file or compile
// error is SCRIPT_LOAD; an error raised while running is SCRIPT_RUNTIME.
// Either way the host stays usable.
func (h *Host) LoadScript(name string) error {
	if err := h.alive("load " + name); err != nil {
		return err
	}
	return h.loadFile(h.ScriptPath(name), name)
}

// ExecString compiles and runs a chunk of Lua source.
func (h *Host) ExecString(code string) error {
	if err := h.alive("exec"); err != nil {
		return err
	}
	top := h.l.Top()
	defer h.l.SetTop(top)

	if err := lua.LoadString(h.l, code); err != nil {
		return apperrors.WithMetadata(apperrors.CodeScriptLoad, "compile chunk: "+errorText(h.l, err),
			map[string]string{"Script": "chunk"})
	}
	if err := protectedCall(h.l, 0, 0); err != nil {
		return apperrors.WrapWithMetadata(apperrors.CodeScriptRuntime, "run chunk",
			map[string]string{"Script": "chunk"}, err)
	}
	return nil
}

func (h *Host) loadFile(path, label string) error {
	meta := map[string]string{"Script": label}
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.WrapWithMetadata(apperrors.CodeScriptLoad, "load "+label, meta, err)
	}
	if info.IsDir() {
		return apperrors.WithMetadata(apperrors.CodeScriptLoad, "load "+label+": "+path+" is a directory", meta)
	}

	top := h.l.Top()
	defer h.l.SetTop(top)

	if err := lua.LoadFile(h.l, path, ""); err != nil {
		return apperrors.WithMetadata(apperrors.CodeScriptLoad, "load "+label+": "+errorText(h.l, err), meta)
	}
	if err := protectedCall(h.l, 0, 0); err != nil {
		return apperrors.WrapWithMetadata(apperrors.CodeScriptRuntime, "run "+label, meta, err)
	}
	h.logf("loaded script %s", path)
	return nil
}

// autoload runs every script in the configured dir whose name does not start
// with "_", in the order the directory lists them. One failing file does not
// stop the others.
func (h *Host) autoload() (loaded int, failures []error) {
	dir, err := os.Open(h.cfg.Dir)
	if err != nil {
		h.logger.Printf("auto-load %s: %v", h.cfg.Dir, err)
		return 0, []error{err}
	}
	entries, err := dir.ReadDir(-1)
	_ = dir.Close()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.logger.Printf("auto-load %s: %v", h.cfg.Dir, err)
		failures = append(failures, err)
	}

	suffix := "." + h.cfg.Extension
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") || !strings.HasSuffix(name, suffix) {
			continue
		}
		if err := h.loadFile(filepath.Join(h.cfg.Dir, name), strings.TrimSuffix(name, suffix)); err != nil {
			h.logger.Printf("auto-load: %v", err)
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			continue
		}
		loaded++
	}
	return loaded, failures
}
