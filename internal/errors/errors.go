// Package errors defines the coded application errors used to decide how a
// failed relay is reported to the user.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnexpected        = "UNEXPECTED"
	CodeInputRejected     = "INPUT_REJECTED"
	CodeRemoteFailure     = "REMOTE_FAILURE"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodeEmptyReply        = "EMPTY_REPLY"
	CodeConfig            = "CONFIG"
	CodeStore             = "STORE"
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error represents a basic application error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnexpected if there is none.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnexpected
}

// RemoteFailureError reports a non-success HTTP status from the completion API.
// Body holds the (possibly truncated) response text for diagnostics.
type RemoteFailureError struct {
	base   Error
	Status int
	Body   string
}

func (e *RemoteFailureError) Error() string {
	return e.base.Error()
}

func (e *RemoteFailureError) Code() string {
	return e.base.Code()
}

func (e *RemoteFailureError) Unwrap() error {
	return e.base.Unwrap()
}

func NewRemoteFailure(status int, body string) error {
	return &RemoteFailureError{
		base: Error{
			code:    CodeRemoteFailure,
			message: fmt.Sprintf("completion API returned status %d", status),
		},
		Status: status,
		Body:   body,
	}
}

func NewMalformedResponse(message string, cause error) error {
	return &Error{code: CodeMalformedResponse, message: message, err: cause}
}

func NewEmptyReply(message string) error {
	return &Error{code: CodeEmptyReply, message: message}
}

func NewInputRejected(message string) error {
	return &Error{code: CodeInputRejected, message: message}
}

func NewConfigError(message string, cause error) error {
	return &Error{code: CodeConfig, message: message, err: cause}
}

func NewStoreError(message string, cause error) error {
	return &Error{code: CodeStore, message: message, err: cause}
}
