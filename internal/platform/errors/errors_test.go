package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeNotFound, "command Foo not registered")
	if !stderrors.Is(err, &Error{Code: CodeNotFound}) {
		t.Fatal("expected code match")
	}
	if stderrors.Is(err, &Error{Code: CodeBusy}) {
		t.Fatal("expected code mismatch")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(CodeScriptRuntime, "call AppInit", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "call AppInit: boom" {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestCodeOfWrappedChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeTypeMismatch, "global x is a table"))
	if got := CodeOf(err); got != CodeTypeMismatch {
		t.Fatalf("code = %s, want %s", got, CodeTypeMismatch)
	}
	if !IsCode(err, CodeTypeMismatch) {
		t.Fatal("expected IsCode match")
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %s, want %s", got, CodeUnknown)
	}
	if IsCode(nil, CodeTypeMismatch) {
		t.Fatal("nil error must not match")
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeScriptLoad, 3},
		{CodeScriptRuntime, 3},
		{CodeNotFound, 4},
		{CodeInvalidState, 5},
		{CodeAllocationFailure, 1},
		{CodeUnknown, 1},
	}
	for _, tt := range tests {
		if got := tt.code.ExitCode(); got != tt.want {
			t.Fatalf("%s exit code = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestAsFindsMetadata(t *testing.T) {
	err := fmt.Errorf("outer: %w", WithMetadata(CodeNotFound, "missing", map[string]string{"Name": "Foo"}))
	coded, ok := As(err)
	if !ok {
		t.Fatal("expected coded error")
	}
	if coded.Metadata["Name"] != "Foo" {
		t.Fatalf("metadata = %v", coded.Metadata)
	}
	if _, ok := As(fmt.Errorf("plain")); ok {
		t.Fatal("plain error must not match")
	}
}
