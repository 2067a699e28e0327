// Package errors provides coded errors for the launcher core.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Container errors
	CodeAllocationFailure Code = "ALLOCATION_FAILURE"
	CodeOutOfRange        Code = "OUT_OF_RANGE"

	// Lookup errors
	CodeNotFound Code = "NOT_FOUND"

	// Script boundary errors
	CodeScriptLoad    Code = "SCRIPT_LOAD"
	CodeScriptRuntime Code = "SCRIPT_RUNTIME"
	CodeTypeMismatch  Code = "TYPE_MISMATCH"

	// Lifecycle errors
	CodeInvalidState Code = "INVALID_STATE"
	CodeBusy         Code = "BUSY"
	CodeHandleLeak   Code = "HANDLE_LEAK"

	// External collaborator errors
	CodeCollaborator Code = "COLLABORATOR"
)

// ExitCode maps codes to process exit codes for CLI entry points.
func (c Code) ExitCode() int {
	switch c {
	// Script problems the user can fix by editing scripts
	case CodeScriptLoad,
		CodeScriptRuntime,
		CodeTypeMismatch:
		return 3

	// Lookups of names that were never registered
	case CodeNotFound:
		return 4

	// Host lifecycle misuse
	case CodeInvalidState,
		CodeBusy,
		CodeHandleLeak:
		return 5

	default:
		return 1
	}
}
