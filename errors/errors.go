package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the error type returned by every layer of tp. The code follows the HTTP
// status semantics: it is either the status returned by the backend or the status
// that best describes a failure detected locally.
type Error interface {
	error

	Code() int
	Message() string
	Cause() error
}

// DefaultCode is used when no code is given. It is set to 500, Internal Server Error.
var DefaultCode = 500

type tpError struct {
	code  int
	msg   string
	cause error
}

func (err *tpError) Error() string {
	if err.cause == nil {
		return err.msg
	}

	return fmt.Sprintf("%s: %v", err.msg, err.cause)
}

func (err *tpError) Code() int       { return err.code }
func (err *tpError) Message() string { return err.msg }
func (err *tpError) Cause() error    { return err.cause }
func (err *tpError) Unwrap() error   { return err.cause }

type ErrorEnricher func(error) error

// WithCode sets the code of err. Plain errors are converted first.
func WithCode(code int) ErrorEnricher {
	return func(err error) error {
		if err == nil {
			return nil
		}

		if e, ok := err.(*tpError); ok {
			e.code = code
			return e
		}

		return &tpError{msg: err.Error(), code: code}
	}
}

// WithCause attaches cause to err. When err is a plain error, the code of the cause
// is forwarded.
func WithCause(cause error) ErrorEnricher {
	return func(err error) error {
		if err == nil {
			return nil
		}

		if e, ok := err.(*tpError); ok {
			e.cause = cause
			return e
		}

		return &tpError{msg: err.Error(), code: Code(cause), cause: cause}
	}
}

// New creates an error with DefaultCode and applies the enrichers in order.
func New(msg string, fs ...ErrorEnricher) error {
	var err error = &tpError{msg: msg, code: DefaultCode}
	for _, f := range fs {
		err = f(err)
	}
	return err
}

// Code returns the code carried by err, looking through wrapped errors. nil gives 0
// and an error with no code gives DefaultCode.
func Code(err error) int {
	if err == nil {
		return 0
	}

	var e Error
	if stderrors.As(err, &e) {
		return e.Code()
	}
	return DefaultCode
}

// Message returns the user facing message of err, without its causes.
func Message(err error) string {
	var e Error
	if stderrors.As(err, &e) {
		return e.Message()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsUnauthorized reports whether err means the session is no longer valid.
func IsUnauthorized(err error) bool {
	return Code(err) == 401
}

// Is and As are re-exported so callers do not need to import both packages.
func Is(err, target error) bool             { return stderrors.Is(err, target) }
func As(err error, target interface{}) bool { return stderrors.As(err, target) }
