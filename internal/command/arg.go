package command

import "fmt"

// ArgKind tags the active field of an Arg.
type ArgKind uint8

const (
	ArgInt ArgKind = iota + 1
	ArgString
	ArgPointer
)

func (k ArgKind) String() string {
	switch k {
	case ArgInt:
		return "int"
	case ArgString:
		return "string"
	case ArgPointer:
		return "pointer"
	default:
		return "invalid"
	}
}

// Arg is a command argument holding exactly one of an integer, a string or
// an opaque pointer. The zero Arg holds nothing.
type Arg struct {
	kind ArgKind
	i    int64
	s    string
	p    any
}

// Int returns an integer argument.
func Int(v int64) Arg { return Arg{kind: ArgInt, i: v} }

// String returns a string argument.
func String(v string) Arg { return Arg{kind: ArgString, s: v} }

// Pointer returns an opaque pointer argument.
func Pointer(v any) Arg { return Arg{kind: ArgPointer, p: v} }

// Kind returns the tag.
func (a Arg) Kind() ArgKind { return a.kind }

// AsInt returns the integer when the tag is ArgInt.
func (a Arg) AsInt() (int64, bool) {
	if a.kind != ArgInt {
		return 0, false
	}
	return a.i, true
}

// AsString returns the string when the tag is ArgString.
func (a Arg) AsString() (string, bool) {
	if a.kind != ArgString {
		return "", false
	}
	return a.s, true
}

// AsPointer returns the pointer when the tag is ArgPointer.
func (a Arg) AsPointer() (any, bool) {
	if a.kind != ArgPointer {
		return nil, false
	}
	return a.p, true
}

// GoString renders the argument for logs.
func (a Arg) GoString() string {
	switch a.kind {
	case ArgInt:
		return fmt.Sprintf("int(%d)", a.i)
	case ArgString:
		return fmt.Sprintf("string(%q)", a.s)
	case ArgPointer:
		return fmt.Sprintf("pointer(%T)", a.p)
	default:
		return "invalid"
	}
}
