package render

import (
	"fmt"
	"io"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"
)

// Kind classifies a startup failure.
type Kind int

const (
	DeviceCreation Kind = iota + 1
	ShaderCompilation
	ResourceAllocation
)

func (k Kind) String() string {
	switch k {
	case DeviceCreation:
		return "device creation failure"
	case ShaderCompilation:
		return "shader compilation failure"
	case ResourceAllocation:
		return "resource allocation failure"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by New when the device cannot be brought up. Op names
// the step that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Format prints the wrapped stack trace for %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s: %s: %+v", e.Kind, e.Op, e.Err)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func fail(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

func failf(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

func failResult(kind Kind, op string, result vks.Result) error {
	return fail(kind, op, result.AsErr())
}
