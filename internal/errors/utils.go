package errors

import (
	"errors"

	"go.uber.org/multierr"
)

// Wrap wraps an error with additional context, creating an *Error if the
// input is not already one.
func Wrap(err error, errType ErrorType, code, message string) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return &Error{
			Type:      errType,
			Code:      code,
			Message:   message,
			Cause:     e,
			Context:   e.Context,
			Component: e.Component,
		}
	}

	return &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapPersistence wraps a storage failure.
func WrapPersistence(err error, message string) *Error {
	return Wrap(err, ErrorTypePersistence, ErrCodeStorage, message)
}

// WrapIO wraps an I/O failure writing a style target.
func WrapIO(err error, message string) *Error {
	return Wrap(err, ErrorTypeIO, ErrCodeStyleWrite, message)
}

// Combine merges independent failures into one error, skipping nils.
func Combine(errs ...error) error {
	return multierr.Combine(errs...)
}

// Flatten returns the individual errors held by a combined error.
func Flatten(err error) []error {
	return multierr.Errors(err)
}

// Chain returns every error in the chain from outermost to innermost.
func Chain(err error) []error {
	var chain []error
	for err != nil {
		chain = append(chain, err)
		err = errors.Unwrap(err)
	}

	return chain
}

// RootCause returns the innermost error in the chain.
func RootCause(err error) error {
	chain := Chain(err)
	if len(chain) == 0 {
		return nil
	}

	return chain[len(chain)-1]
}

// Code returns the code of the outermost *Error in the chain, or "".
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ""
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code string) bool {
	for _, e := range Chain(err) {
		if te, ok := e.(*Error); ok && te.Code == code {
			return true
		}
	}

	return false
}
