package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrGroupNotFound      = fmt.Errorf("group not found")
	ErrNotLoggedIn        = fmt.Errorf("connection has not logged in")
	ErrConnectionClosed   = fmt.Errorf("connection closed")
	ErrBackpressure       = fmt.Errorf("send buffer full")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)

// Is re-exports the standard errors.Is so callers depending on this package
// don't need a second aliased import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

