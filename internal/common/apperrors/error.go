// Package apperrors provides the application error type used across the
// diagnostic core. It supports error chaining, HTTP-style status codes, and
// message rewriting while remaining compatible with errors.Is / errors.As.
package apperrors

// Error is the interface implemented by all application errors. Methods that
// produce a new error never mutate the receiver, so package-level error vars
// are safe to share.
type Error interface {
	error
	Unwrap() error // base error for errors.Is / errors.As

	New(msg string) Error                  // derives a fresh error with the receiver as base
	Msg(msg string) Error                  // rewrites the message and wraps the receiver
	MsgErr(msg string, errs ...error) Error // rewrites the message and attaches extra errors
	Err(errs ...error) Error               // attaches extra errors, keeping the message
	SetStatusCode(code int) Error          // returns a copy carrying the status code
	StatusCode() int                       // status code carried by this error
	UnwrapAll() []error                    // all attached errors, most recent first
}
