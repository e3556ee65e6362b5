package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a structured error carrying a code, a human-readable message,
// optional key/value context, and an optional wrapped cause.
type Error struct {
	// Code classifies the error condition.
	Code ErrorCode

	// Message is a human-readable description of the failure.
	Message string

	// Context carries additional metadata about the failure, such as the
	// offending path, contract name, or revision.
	Context map[string]interface{}

	// cause is the wrapped underlying error, if any.
	cause error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with a code and message. It returns nil when
// err is nil so call sites can wrap unconditionally.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		cause:   err,
	}
}

// WrapWithContext wraps an existing error with a code, message, and context
// metadata. It returns nil when err is nil.
func WrapWithContext(err error, code ErrorCode, message string, context map[string]interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Context: context,
		cause:   err,
	}
}

// Error implements the error interface. Context keys are rendered sorted for
// deterministic output.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, e.Context[k])
		}
		sb.WriteString(")")
	}

	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}

	return sb.String()
}

// Unwrap returns the wrapped cause, enabling errors.Is and errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithContext returns a copy of the error with an additional context entry.
func (e *Error) WithContext(key string, value interface{}) *Error {
	clone := *e
	clone.Context = make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		clone.Context[k] = v
	}
	clone.Context[key] = value
	return &clone
}

// GetCode returns the ErrorCode of err if it is (or wraps) an *Error,
// and CodeUnknown otherwise.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err is (or wraps) an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Is delegates to the standard library so callers need only import this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As delegates to the standard library so callers need only import this package.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
