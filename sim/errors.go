package sim

import "fmt"

// ErrorKind classifies why a public sim operation failed. Kinds 1-3 are
// returned to the caller or to the activity body that triggered them; kind 4
// never reaches a caller and is only observable through a Hook at
// HookPosDispatchDropped; kind 5 is not representable as an *Error at all —
// it panics.
type ErrorKind int

const (
	// ErrValidation covers an unknown model, a duplicate instance or
	// activity name, an unknown spec, or an empty name.
	ErrValidation ErrorKind = iota + 1
	// ErrBinding covers a pad that does not exist, a pad that is already
	// bound to something other than the requested peer, or a bind between
	// two pads of the same instance (including a pad and itself).
	ErrBinding
	// ErrRuntime covers suspending an already-paused activity, a
	// pad_send on an unbound pad, or a pad_receive on an unknown pad.
	ErrRuntime
)

// Error is the concrete error type every public sim operation returns. It
// satisfies the standard error interface and is recoverable by errors.As.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// String names an ErrorKind for diagnostics.
func (k ErrorKind) String() string {
	switch k {
	case ErrValidation:
		return "validation"
	case ErrBinding:
		return "binding"
	case ErrRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

func newValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func newBindingError(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrBinding, Message: fmt.Sprintf(format, args...)}
}

func newRuntimeError(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrRuntime, Message: fmt.Sprintf(format, args...)}
}
