// Package errors provides the structured error type shared by sizekit
// packages. Only validation errors surface to callers of mutating APIs;
// the remaining categories are logged and degraded gracefully.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeLookup      ErrorType = "lookup"
	ErrorTypePersistence ErrorType = "persistence"
	ErrorTypeLifecycle   ErrorType = "lifecycle"
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeInternal    ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeBaseSizeRange   = "ERR_BASE_SIZE_RANGE"
	ErrCodeScaleRange      = "ERR_SCALE_RANGE"
	ErrCodeInvalidPreset   = "ERR_INVALID_PRESET"
	ErrCodeUnknownPreset   = "ERR_UNKNOWN_PRESET"
	ErrCodeUnknownBP       = "ERR_UNKNOWN_BREAKPOINT"
	ErrCodeInvalidBP       = "ERR_INVALID_BREAKPOINT"
	ErrCodeDestroyed       = "ERR_DESTROYED"
	ErrCodeCorruptState    = "ERR_CORRUPT_STATE"
	ErrCodeStorage         = "ERR_STORAGE"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeTemplate        = "ERR_TEMPLATE"
	ErrCodeStyleWrite      = "ERR_STYLE_WRITE"
	ErrCodeListenerPanic   = "ERR_LISTENER_PANIC"
	ErrCodeInternalFailure = "ERR_INTERNAL"
)

// Sentinels for errors.Is comparisons. Matching is by type and code, so any
// error built with the same pair compares equal regardless of message.
var (
	ErrBaseSizeOutOfRange = &Error{Type: ErrorTypeValidation, Code: ErrCodeBaseSizeRange}
	ErrScaleOutOfRange    = &Error{Type: ErrorTypeValidation, Code: ErrCodeScaleRange}
	ErrInvalidPreset      = &Error{Type: ErrorTypeValidation, Code: ErrCodeInvalidPreset}
	ErrInvalidBreakpoint  = &Error{Type: ErrorTypeValidation, Code: ErrCodeInvalidBP}
	ErrUnknownPreset      = &Error{Type: ErrorTypeLookup, Code: ErrCodeUnknownPreset}
	ErrUnknownBreakpoint  = &Error{Type: ErrorTypeLookup, Code: ErrCodeUnknownBP}
	ErrDestroyed          = &Error{Type: ErrorTypeLifecycle, Code: ErrCodeDestroyed}
	ErrCorruptState       = &Error{Type: ErrorTypePersistence, Code: ErrCodeCorruptState}
)

// Error is a structured error type with context.
type Error struct {
	Type      ErrorType
	Code      string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Component string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else {
		parts = append(parts, string(e.Type)+" error")
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewLookupError creates a lookup error.
func NewLookupError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeLookup,
		Code:    code,
		Message: message,
	}
}

// NewPersistenceError creates a persistence error.
func NewPersistenceError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypePersistence,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewLifecycleError creates an error for use of a destroyed component.
func NewLifecycleError(message string) *Error {
	return &Error{
		Type:    ErrorTypeLifecycle,
		Code:    ErrCodeDestroyed,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsValidation reports whether err is a validation error. Validation errors
// are the only category returned from mutating calls.
func IsValidation(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsLookup reports whether err is a lookup failure.
func IsLookup(err error) bool {
	return hasType(err, ErrorTypeLookup)
}

// IsPersistence reports whether err is a persistence failure.
func IsPersistence(err error) bool {
	return hasType(err, ErrorTypePersistence)
}

func hasType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}

	return false
}
