package config_test

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/neutonm/Amber-Launcher-sub000/internal/platform/config"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// TestExitf_ExitsWithCode1 uses the subprocess pattern because os.Exit
// cannot be intercepted in-process.
func TestExitf_ExitsWithCode1(t *testing.T) {
	if os.Getenv("TEST_EXITF_SUBPROCESS") == "1" {
		config.Exitf("fatal: %s", "something broke")
		return
	}

	out, code := runSubprocess(t, "^TestExitf_ExitsWithCode1$", "TEST_EXITF_SUBPROCESS=1")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(out, "fatal: something broke") {
		t.Fatalf("expected stderr to contain %q, got %q", "fatal: something broke", out)
	}
}

func TestExitError_UsesErrorCode(t *testing.T) {
	if os.Getenv("TEST_EXITERROR_SUBPROCESS") == "1" {
		config.ExitError(fmt.Errorf("start: %w", apperrors.New(apperrors.CodeScriptLoad, "load _main")))
		return
	}

	out, code := runSubprocess(t, "^TestExitError_UsesErrorCode$", "TEST_EXITERROR_SUBPROCESS=1")
	if code != 3 {
		t.Fatalf("expected exit code 3, got %d", code)
	}
	if !strings.Contains(out, "Error: start: load _main") {
		t.Fatalf("unexpected stderr %q", out)
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{fmt.Errorf("plain"), 1},
		{apperrors.New(apperrors.CodeNotFound, "missing"), 4},
		{fmt.Errorf("wrapped: %w", apperrors.New(apperrors.CodeBusy, "busy")), 5},
	}
	for _, tt := range tests {
		if got := config.ExitStatus(tt.err); got != tt.want {
			t.Fatalf("ExitStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func runSubprocess(t *testing.T, pattern, env string) (string, int) {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run="+pattern)
	cmd.Env = append(os.Environ(), env)
	out, err := cmd.CombinedOutput()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	return string(out), exitErr.ExitCode()
}
