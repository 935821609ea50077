package errors

import (
	stderrors "errors"
	"fmt"
)

// New creates a basic error. It's a convenience wrapper around the standard
// library so that callers don't need to import both error packages.
func New(msg string) error {
	return stderrors.New(msg)
}

// ContextError annotates an error with a description of the operation that
// failed. Contexts stack as the error propagates up the call chain.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

func (err ContextError) Unwrap() error {
	return err.Err
}

// WithContext annotates err with the operation that produced it.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// RootCause returns the innermost error in a chain of ContextErrors. It's
// used to compare against sentinel errors, and to check whether an error
// implements FriendlyError.
func RootCause(err error) error {
	for {
		contextErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = contextErr.Err
	}
}
