package services

import (
	"errors"
	"fmt"
)

// Kind classifies failures so the HTTP layer can pick a status code.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindUnprocessable         Kind = "unprocessable"
	KindAuthentication        Kind = "authentication"
	KindAuthorization         Kind = "authorization"
	KindForbidden             Kind = "forbidden"
	KindUpstreamAuthorization Kind = "upstream_authorization"
	KindPersistence           Kind = "persistence"
	KindDownstreamUnavailable Kind = "downstream_unavailable"
)

// Error is returned by every service operation. Message and Details are
// safe to show to callers; Err is only for logs.
type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func ValidationError(msg string, details any) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

// UnprocessableError reports a well-formed request body missing required fields.
func UnprocessableError(msg string, details any) *Error {
	return &Error{Kind: KindUnprocessable, Message: msg, Details: details}
}

func AuthenticationError(msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

func AuthorizationError(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func ForbiddenError(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func UpstreamAuthorizationError(msg string, details any, err error) *Error {
	return &Error{Kind: KindUpstreamAuthorization, Message: msg, Details: details, Err: err}
}

func PersistenceError(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

func DownstreamUnavailableError(msg string, details any) *Error {
	return &Error{Kind: KindDownstreamUnavailable, Message: msg, Details: details}
}
