package errors

import "fmt"

// FriendlyError is an error whose message is meant to be shown to the user
// as is, without the "Error:" prefix or the context chain. Errors that know
// how the user should recover (e.g. rate limits) implement this interface.
type FriendlyError interface {
	FriendlyMessage() string
}

type friendlyError struct {
	msg string
}

func (err friendlyError) Error() string {
	return err.msg
}

func (err friendlyError) FriendlyMessage() string {
	return err.msg
}

// NewFriendlyError creates an error that will be displayed directly to the
// user.
func NewFriendlyError(format string, args ...interface{}) error {
	return friendlyError{fmt.Sprintf(format, args...)}
}
