package config

import (
	"fmt"
	"os"

	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	ExitCodef(1, format, args...)
}

// ExitCodef writes a formatted error message to stderr and exits with code.
func ExitCodef(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}

// ExitError reports err and exits with the status mapped from its error code,
// so scripts failing and lookups missing are distinguishable by callers.
func ExitError(err error) {
	ExitCodef(ExitStatus(err), "Error: %v", err)
}

// ExitStatus returns the process status ExitError would use for err.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	return apperrors.CodeOf(err).ExitCode()
}
