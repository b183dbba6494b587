package codec

import (
	"errors"
	"fmt"

	"github.com/zeusync/ppersist/internal/core/schema/registry"
)

// Sentinels for errors.Is. Every *Error matches exactly one of them through its Code.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnsafeType   = errors.New("unsafe type")
	ErrDecode       = errors.New("malformed blob")
	ErrSessionState = errors.New("invalid session state")
)

// ErrorCode classifies an *Error.
type ErrorCode int

const (
	ErrorCodeValidation   ErrorCode = 1001
	ErrorCodeUnsafeType   ErrorCode = 2001
	ErrorCodeDecode       ErrorCode = 3001
	ErrorCodeSessionState ErrorCode = 4001
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeValidation:
		return "validation"
	case ErrorCodeUnsafeType:
		return "unsafe type"
	case ErrorCodeDecode:
		return "decode"
	case ErrorCodeSessionState:
		return "session state"
	default:
		return fmt.Sprintf("code %d", int(c))
	}
}

func (c ErrorCode) sentinel() error {
	switch c {
	case ErrorCodeValidation:
		return ErrValidation
	case ErrorCodeUnsafeType:
		return ErrUnsafeType
	case ErrorCodeDecode:
		return ErrDecode
	case ErrorCodeSessionState:
		return ErrSessionState
	default:
		return nil
	}
}

// Error carries the failure class plus the bundle key or type tag it concerns.
type Error struct {
	Code    ErrorCode
	Message string
	Key     string
	Tag     registry.Tag
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Key != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Key)
	}
	if e.Code == ErrorCodeUnsafeType {
		msg = fmt.Sprintf("%s: %q", msg, e.Tag.String())
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for e.Code.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Code.sentinel()
}

// NewValidationError reports a bundle entry that may not be encoded.
func NewValidationError(key, message string, cause error) *Error {
	return &Error{Code: ErrorCodeValidation, Message: message, Key: key, Cause: cause}
}

// NewUnsafeTypeError reports a tag rejected by the allow-list.
func NewUnsafeTypeError(tag registry.Tag) *Error {
	return &Error{Code: ErrorCodeUnsafeType, Message: "type not allowed", Tag: tag}
}

// NewDecodeError reports structurally invalid input.
func NewDecodeError(message string, cause error) *Error {
	return &Error{Code: ErrorCodeDecode, Message: message, Cause: cause}
}

// NewSessionStateError reports misuse of a save session.
func NewSessionStateError(message string) *Error {
	return &Error{Code: ErrorCodeSessionState, Message: message}
}

func decodeErrorf(format string, args ...any) *Error {
	return NewDecodeError(fmt.Sprintf(format, args...), nil)
}

// IsUnsafeType reports whether err is, or wraps, an allow-list rejection.
func IsUnsafeType(err error) bool { return errors.Is(err, ErrUnsafeType) }

// IsDecode reports whether err is, or wraps, a malformed-input error.
func IsDecode(err error) bool { return errors.Is(err, ErrDecode) }

// IsValidation reports whether err is, or wraps, a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
