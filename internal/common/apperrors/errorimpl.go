package apperrors

import (
	"errors"
)

// appError is the concrete Error implementation. A nil attached slice is the
// common case; it is only allocated when errors are attached.
type appError struct {
	msg      string
	base     error
	attached []error
	status   int
}

// New creates a root-level error with the given message.
func New(msg string) Error {
	return &appError{msg: msg}
}

func (e *appError) Error() string {
	return e.msg
}

// Unwrap returns the base error so errors.Is can walk the derivation chain.
func (e *appError) Unwrap() error {
	return e.base
}

// UnwrapAll returns the attached errors in the order they were added.
func (e *appError) UnwrapAll() []error {
	return e.attached
}

// New derives a fresh error that reports the receiver as its base. The status
// code is inherited.
func (e *appError) New(msg string) Error {
	return &appError{
		msg:    msg,
		base:   e,
		status: e.status,
	}
}

// Msg replaces the message and wraps the receiver so identity is preserved.
func (e *appError) Msg(msg string) Error {
	return &appError{
		msg:      msg,
		base:     e,
		attached: append([]error{e}, e.attached...),
		status:   e.status,
	}
}

// MsgErr replaces the message and attaches additional errors.
func (e *appError) MsgErr(msg string, errs ...error) Error {
	return &appError{
		msg:      msg,
		base:     e,
		attached: append([]error{e}, errs...),
		status:   e.status,
	}
}

// Err attaches additional errors while keeping the receiver's message.
func (e *appError) Err(errs ...error) Error {
	return &appError{
		msg:      e.msg,
		base:     e,
		attached: append([]error{e}, errs...),
		status:   e.status,
	}
}

// SetStatusCode returns a shallow copy carrying the given status code.
func (e *appError) SetStatusCode(code int) Error {
	cp := *e
	cp.status = code
	return &cp
}

// StatusCode returns the status code carried by this error.
func (e *appError) StatusCode() int {
	return e.status
}

// Is matches against the base chain and every attached error.
func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if errors.Is(e.base, target) {
		return true
	}
	for _, err := range e.attached {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
