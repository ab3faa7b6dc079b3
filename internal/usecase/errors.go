package usecase

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrorInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrorConfiguration ErrorCode = "CONFIGURATION_ERROR"
	ErrorInternal      ErrorCode = "INTERNAL_ERROR"
)

// Client-facing reasons for invalid input.
const (
	ReasonMissingCountry = "Missing country path parameter"
	ReasonMissingBody    = "Missing request body"
	ReasonInvalidBody    = "Invalid request body"
)

// Error is a failure with a code that decides its HTTP status and a reason
// that is safe to show to a client when the status is a 4xx.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatusCode reports the status the error translates to.
func (e *Error) HTTPStatusCode() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case ErrorInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text returned to the client for this error.
func (e *Error) PublicMessage() string {
	if e == nil {
		return ""
	}
	return e.Reason
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// BadRequest returns an invalid-input error carrying reason.
func BadRequest(reason string) *Error {
	return newError(ErrorInvalidInput, reason, nil)
}
