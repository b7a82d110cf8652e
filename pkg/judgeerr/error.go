package judgeerr

import (
	"fmt"
	"runtime"
	"strings"
)

// Error is a structural error carrying a Code, an optional wrapped cause,
// and free-form context for logging.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
	Stack   string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error carrying code with its default message.
func New(code Code) *Error {
	return &Error{Code: code, Message: code.Message(), Stack: getStack(2)}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Stack: getStack(2)}
}

// Wrap attaches code to an existing error, preserving it as the cause.
func Wrap(err error, code Code) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		e.Code = code
		return e
	}
	return &Error{Code: code, Message: err.Error(), Err: err, Stack: getStack(2)}
}

// Wrapf wraps err with code and a formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err, Stack: getStack(2)}
}

// WithDetail attaches a key-value pair for structured logging.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// GetCode extracts the Code from any error, defaulting to InternalError
// (and returning Success for a nil error).
func GetCode(err error) Code {
	if err == nil {
		return Success
	}
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return InternalError
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}

func getStack(skip int) string {
	const maxDepth = 10
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip+1, pcs[:])
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.Function, "runtime.") {
			if !more {
				break
			}
			continue
		}
		fmt.Fprintf(&b, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}
